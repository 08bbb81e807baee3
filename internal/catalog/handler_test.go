package catalog_test

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
	"github.com/qudrat-academy/qudrat/internal/catalog"
)

type stubActions struct{}

func (stubActions) ItemActions(ctx context.Context, p *access.Principal, items []catalog.Item) (map[string]access.Actions, error) {
	out := make(map[string]access.Actions, len(items))
	for _, it := range items {
		if it.HasTest {
			out[it.ID] = access.Actions{access.ActionTakeQuiz}
		}
	}
	return out, nil
}

func newTestRouter(p *access.Principal) http.Handler {
	svc := catalog.NewService(newMemRepo(), nil, nil)
	h := catalog.NewHandler(nil, svc, stubActions{})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(access.ContextWithPrincipal(req.Context(), p)))
		})
	})
	h.MountPublic(r)
	r.Route("/section/{sectionId}", func(r chi.Router) {
		h.MountSection(r)
		r.Route("/subject/{subjectId}", h.MountSubject)
	})
	r.Route("/admin/catalog", h.MountAdmin)
	return r
}

func TestCoursesListsOutline(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/courses", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Sections []catalog.Section `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Sections, 2)
	assert.Len(t, body.Sections[1].Subjects, 2)
}

func TestItemsCarryActions(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/section/section_qudrat/subject/subject_verbal/category/cat_foundation/chapter/ch_1/items", nil)
	newTestRouter(verbalOnly()).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Items []struct {
			ID      string   `json:"id"`
			Actions []string `json:"actions"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, []string{"takeQuiz"}, body.Items[0].Actions)
	assert.Equal(t, []string{}, body.Items[1].Actions)
}

func TestMismatchedPathIsNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/section/section_tahseel/subject/subject_verbal/categories", nil)
	newTestRouter(verbalOnly()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminSaveChapter(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/catalog/chapters", strings.NewReader(`{"categoryId":"cat_foundation","name":"باب"}`))
	newTestRouter(nil).ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var ch catalog.Chapter
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ch))
	assert.Equal(t, "cat_foundation", ch.CategoryID)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/catalog/chapters", strings.NewReader(`{"categoryId":"cat_foundation"}`))
	newTestRouter(nil).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"Name":"required"`)
}

func TestAdminItemWrites(t *testing.T) {
	router := newTestRouter(nil)
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "create", method: http.MethodPost, path: "/admin/catalog/items", body: `{"id":"item_3","chapterId":"ch_1","name":"ثالث"}`, status: http.StatusCreated},
		{name: "create with taken item id", method: http.MethodPost, path: "/admin/catalog/items", body: `{"id":"item_1","chapterId":"ch_1","name":"x"}`, status: http.StatusConflict},
		{name: "create with chapter id", method: http.MethodPost, path: "/admin/catalog/items", body: `{"id":"ch_1","chapterId":"ch_1","name":"x"}`, status: http.StatusConflict},
		{name: "update", method: http.MethodPut, path: "/admin/catalog/items/item_2", body: `{"chapterId":"ch_1","name":"renamed"}`, status: http.StatusOK},
		{name: "update missing item", method: http.MethodPut, path: "/admin/catalog/items/item_9", body: `{"chapterId":"ch_1","name":"x"}`, status: http.StatusNotFound},
		{name: "update missing chapter", method: http.MethodPut, path: "/admin/catalog/chapters/ch_9", body: `{"categoryId":"cat_foundation","name":"x"}`, status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/admin/catalog/items/item_2", strings.NewReader(`{"chapterId":"ch_1","name":"again"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"hasTest":false`)
}
