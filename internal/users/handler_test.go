package users_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/users"
)

func newRouter(repo *memRepo) http.Handler {
	r := chi.NewRouter()
	r.Route("/admin/users", users.NewHandler(nil, users.NewService(repo, nil)).MountRoutes)
	return r
}

func TestHandlerListFilters(t *testing.T) {
	repo := newMemRepo(seedUsers()...)
	router := newRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users?status=active&role=student&q=omar", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, users.ListFilter{Status: users.StatusActive, Role: access.RoleStudent, Query: "omar"}, repo.last)

	var body struct {
		Users      []users.User `json:"users"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Pagination.Total)

	for _, bad := range []string{"?status=banned", "?role=moderator"} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestHandlerToggles(t *testing.T) {
	repo := newMemRepo(seedUsers()...)
	router := newRouter(repo)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "activate", method: http.MethodPatch, path: "/admin/users/2/active", body: `{"value":true}`, status: http.StatusOK},
		{name: "missing value", method: http.MethodPatch, path: "/admin/users/2/active", body: `{}`, status: http.StatusBadRequest},
		{name: "bad id", method: http.MethodPatch, path: "/admin/users/abc/active", body: `{"value":true}`, status: http.StatusBadRequest},
		{name: "unknown user", method: http.MethodPatch, path: "/admin/users/77/multi-device", body: `{"value":true}`, status: http.StatusNotFound},
		{name: "admin permissions", method: http.MethodPut, path: "/admin/users/1/permissions", body: `{"permissions":{"hasCollectionAccess":true}}`, status: http.StatusBadRequest},
		{name: "permissions", method: http.MethodPut, path: "/admin/users/3/permissions", body: `{"permissions":{"hasCollectionAccess":true}}`, status: http.StatusOK},
		{name: "reset device", method: http.MethodDelete, path: "/admin/users/2/device", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	u, err := repo.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.RegisteredIP)
	u, err = repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, u.Permissions.HasCollectionAccess)
}
