package progress

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Handler exposes answer submission and progress endpoints.
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

// MountLesson registers routes below .../item/{itemId}.
func (h *Handler) MountLesson(r chi.Router) {
	r.Post("/answers", h.submit)
	r.Post("/attempts", h.finishQuiz)
}

// MountRoutes registers the signed-in progress routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/incorrect", h.incorrect)
	r.Get("/attempts", h.attempts)
}

// MountAdmin registers the cross-student progress views.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.adminList)
	r.Get("/attempts", h.adminAttempts)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var in AnswerInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.SubmitAnswer(r.Context(), access.PrincipalFromContext(r.Context()), catalog.PathFromRequest(r), in)
	if err != nil {
		h.fail(w, "submit answer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.service.MyProgress(r.Context(), p.ID)
	if err != nil {
		h.fail(w, "list progress", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lessons": rows})
}

func (h *Handler) finishQuiz(w http.ResponseWriter, r *http.Request) {
	var in FinishQuizInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.FinishQuiz(r.Context(), access.PrincipalFromContext(r.Context()), catalog.PathFromRequest(r), in)
	if err != nil {
		h.fail(w, "finish quiz", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) incorrect(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.service.IncorrectAnswers(r.Context(), p.ID)
	if err != nil {
		h.fail(w, "list incorrect answers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"questions": rows})
}

func (h *Handler) attempts(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	rows, err := h.service.QuizAttempts(r.Context(), p.ID, strings.TrimSpace(r.URL.Query().Get("itemId")))
	if err != nil {
		h.fail(w, "list quiz attempts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"attempts": rows})
}

func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.service.AllProgress(r.Context(), f)
	if err != nil {
		h.fail(w, "list all progress", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lessons": rows})
}

func (h *Handler) adminAttempts(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.service.AllQuizAttempts(r.Context(), f)
	if err != nil {
		h.fail(w, "list all quiz attempts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"attempts": rows})
}

func parseFilter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	q := r.URL.Query()
	f := Filter{ItemID: strings.TrimSpace(q.Get("itemId"))}
	if raw := strings.TrimSpace(q.Get("userId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, fmt.Errorf("progress: invalid user id: %w", httpx.ErrValidation))
			return Filter{}, false
		}
		f.UserID = id
	}
	return f, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
