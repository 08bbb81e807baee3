package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
	"github.com/qudrat-academy/qudrat/internal/shared"
)

// DeviceRestrictedMessage is returned to students outside their device.
const DeviceRestrictedMessage = "Access allowed only from your registered device. Contact administrator for multi-device access."

// IdentityResolver loads the identity of a user id.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, id int64) (Identity, error)
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity and its principal in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, identityContextKey{}, id)
	return access.ContextWithPrincipal(ctx, id.Principal)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// BearerToken returns the token of an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// ClientIP returns the request address without port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SessionChecker reports whether a login session is still open.
type SessionChecker interface {
	SessionActive(ctx context.Context, id string, userID int64) (bool, error)
}

// PrincipalMiddleware resolves the signed-in user once per request, from a
// bearer token when present and from the session cookie otherwise. With
// Sessions set, bearer tokens whose login session was closed are ignored.
type PrincipalMiddleware struct {
	Logger   *slog.Logger
	Tokens   *TokenManager
	Resolver IdentityResolver
	Sessions SessionChecker
}

// Handler implements the middleware.
func (m PrincipalMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.userID(r)
		if userID == 0 {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := m.Resolver.ResolveIdentity(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, httpx.ErrNotFound) {
				m.Logger.Error("resolve principal", slog.Int64("user_id", userID), slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			// Deleted account: continue anonymously.
			if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.User() == userID {
				sess.SetUser(0)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

func (m PrincipalMiddleware) userID(r *http.Request) int64 {
	if raw, ok := BearerToken(r); ok {
		if m.Tokens == nil {
			return 0
		}
		id, sessionID, err := m.Tokens.Parse(raw)
		if err != nil {
			m.Logger.Debug("bearer token rejected", slog.Any("error", err))
			return 0
		}
		if m.Sessions == nil {
			return id
		}
		if sessionID == "" {
			m.Logger.Debug("bearer token without session rejected", slog.Int64("user_id", id))
			return 0
		}
		active, err := m.Sessions.SessionActive(r.Context(), sessionID, id)
		if err != nil {
			m.Logger.Error("check token session", slog.Int64("user_id", id), slog.Any("error", err))
			return 0
		}
		if !active {
			m.Logger.Debug("bearer token session closed", slog.Int64("user_id", id))
			return 0
		}
		return id
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return 0
}

// RestrictDevice rejects students calling from an address other than the
// one they registered with, unless multi-device access was granted. Admins
// and anonymous requests pass through.
func RestrictDevice(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !identity.Principal.IsStudent() {
				next.ServeHTTP(w, r)
				return
			}
			ip := ClientIP(r)
			if identity.Device.Allows(ip) {
				next.ServeHTTP(w, r)
				return
			}
			logger.Info("device restriction blocked request",
				slog.Int64("user_id", identity.Principal.ID),
				slog.String("ip", ip))
			httpx.Problem(w, http.StatusForbidden, "Device Not Allowed", DeviceRestrictedMessage)
		})
	}
}
