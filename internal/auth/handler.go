package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
	"github.com/qudrat-academy/qudrat/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	identities     IdentityResolver
	tokens         *TokenManager
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	guard          access.Middleware
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, identities IdentityResolver, tokens *TokenManager, sessions *shared.SessionManager, csrf *shared.CSRFManager, guard access.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		identities:     identities,
		tokens:         tokens,
		sessionManager: sessions,
		csrfManager:    csrf,
		guard:          guard,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.csrfToken)
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.With(h.guard.RequireSignedIn()).Get("/me", h.me)
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name, req.Phone, ClientIP(r))
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "An account with this email already exists.")
			return
		}
		h.logger.Error("register user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("student registered", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":       user.ID,
		"email":    user.Email,
		"isActive": user.IsActive,
		"message":  "Account created. An administrator must activate it before lessons open.",
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	ip := ClientIP(r)
	if user.Role == access.RoleStudent {
		if err := h.service.RecordDevice(r.Context(), user.ID, ip); err != nil {
			h.logger.Warn("record device", slog.Any("error", err))
		}
	}

	identity, err := h.identities.ResolveIdentity(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("resolve identity after login", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	var csrfToken, sessionID string
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Renew()
		sessionID = sess.ID
		sess.SetUser(user.ID)
		if csrfToken, err = h.csrfManager.EnsureToken(r.Context(), sess); err != nil {
			h.logger.Warn("rotate csrf token", slog.Any("error", err))
		}
		expiresAt := time.Now().Add(h.sessionManager.TTL())
		if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, ip, r.UserAgent()); err != nil {
			h.logger.Warn("register session", slog.Any("error", err))
		}
	} else {
		h.logger.Error("session missing during login")
	}

	token, expires, err := h.tokens.Issue(user.ID, string(user.Role), sessionID)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: identity.Principal, CSRFToken: csrfToken})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if raw, ok := BearerToken(r); ok {
		if _, sessionID, err := h.tokens.Parse(raw); err == nil && sessionID != "" {
			if err := h.service.RemoveSession(r.Context(), sessionID); err != nil {
				h.logger.Warn("remove token session", slog.Any("error", err))
			}
			if err := h.sessionManager.DestroyID(r.Context(), sessionID); err != nil {
				h.logger.Warn("destroy token session", slog.Any("error", err))
			}
		}
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		access.Render(w, r, access.OutcomeFor(access.StateUnauthenticated))
		return
	}
	_, viaToken := BearerToken(r)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":          identity.Principal.ID,
		"email":       identity.Email,
		"name":        identity.Name,
		"role":        identity.Principal.Role,
		"isActive":    identity.Principal.IsActive,
		"permissions": identity.Principal.Permissions,
		"viaToken":    viaToken,
	})
}
