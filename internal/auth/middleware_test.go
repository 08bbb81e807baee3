package auth_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDevicePolicyAllows(t *testing.T) {
	assert.True(t, auth.DevicePolicy{}.Allows("1.2.3.4"))
	assert.True(t, auth.DevicePolicy{RegisteredIP: "1.2.3.4"}.Allows("1.2.3.4"))
	assert.False(t, auth.DevicePolicy{RegisteredIP: "1.2.3.4"}.Allows("5.6.7.8"))
	assert.False(t, auth.DevicePolicy{RegisteredIP: "1.2.3.4"}.Allows(""))
	assert.True(t, auth.DevicePolicy{RegisteredIP: "1.2.3.4", AllowMultiDevice: true}.Allows("5.6.7.8"))
}

func TestRestrictDevice(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := auth.RestrictDevice(discardLogger())(ok)

	cases := []struct {
		name     string
		identity *auth.Identity
		remote   string
		want     int
	}{
		{name: "anonymous", remote: "9.9.9.9:1", want: http.StatusOK},
		{
			name:     "student on registered device",
			identity: &auth.Identity{Principal: access.NewPrincipal(1, access.RoleStudent, true, nil), Device: auth.DevicePolicy{RegisteredIP: "1.1.1.1"}},
			remote:   "1.1.1.1:5000",
			want:     http.StatusOK,
		},
		{
			name:     "student elsewhere",
			identity: &auth.Identity{Principal: access.NewPrincipal(1, access.RoleStudent, true, nil), Device: auth.DevicePolicy{RegisteredIP: "1.1.1.1"}},
			remote:   "2.2.2.2:5000",
			want:     http.StatusForbidden,
		},
		{
			name:     "admin elsewhere",
			identity: &auth.Identity{Principal: access.NewPrincipal(2, access.RoleAdmin, true, nil), Device: auth.DevicePolicy{RegisteredIP: "1.1.1.1"}},
			remote:   "2.2.2.2:5000",
			want:     http.StatusOK,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.identity != nil {
				req = req.WithContext(auth.ContextWithIdentity(req.Context(), *tc.identity))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestTokenManagerRejectsTampering(t *testing.T) {
	tokens := auth.NewTokenManager("secret-a", time.Hour)
	token, expires, err := tokens.Issue(9, "student", "s-9")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	_, err = auth.NewTokenManager("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)

	expired := auth.NewTokenManager("secret-a", -time.Minute)
	stale, _, err := expired.Issue(9, "student", "s-9")
	require.NoError(t, err)
	_, err = tokens.Verify(stale)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := auth.BearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "bearer abc")
	token, ok := auth.BearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", auth.NormalizeEmail("  User@Example.COM "))
}
