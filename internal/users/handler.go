package users

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Route("/{userId}", func(r chi.Router) {
		r.Get("/", h.getUser)
		r.Patch("/active", h.setActive)
		r.Put("/permissions", h.updatePermissions)
		r.Patch("/multi-device", h.setMultiDevice)
		r.Delete("/device", h.resetDevice)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status")), Role: access.Role(q.Get("role")), Query: q.Get("q")}
	switch filter.Status {
	case StatusAll, StatusActive, StatusInactive:
	default:
		httpx.RespondError(w, fmt.Errorf("users: status %q: %w", filter.Status, httpx.ErrValidation))
		return
	}
	if filter.Role != "" && !filter.Role.Valid() {
		httpx.RespondError(w, fmt.Errorf("users: role %q: %w", filter.Role, httpx.ErrValidation))
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	users, pagination, err := h.service.List(r.Context(), filter, page, perPage)
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users, "pagination": pagination})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

type toggleRequest struct {
	Value *bool `json:"value"`
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	value, ok := decodeToggle(w, r)
	if !ok {
		return
	}
	u, err := h.service.SetActive(r.Context(), id, value)
	if err != nil {
		h.fail(w, "set active", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) setMultiDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	value, ok := decodeToggle(w, r)
	if !ok {
		return
	}
	u, err := h.service.SetMultiDevice(r.Context(), id, value)
	if err != nil {
		h.fail(w, "set multi device", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) resetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.service.ResetDevice(r.Context(), id)
	if err != nil {
		h.fail(w, "reset device", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) updatePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in PermissionsInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.UpdatePermissions(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("users: invalid id: %w", httpx.ErrValidation))
		return 0, false
	}
	return id, true
}

func decodeToggle(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req toggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return false, false
	}
	if req.Value == nil {
		httpx.RespondError(w, fmt.Errorf("users: value is required: %w", httpx.ErrValidation))
		return false, false
	}
	return *req.Value, true
}
