package content

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Handler exposes lesson and artifact endpoints.
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
	r.Get("/", h.lesson)
	r.Get("/quiz", h.quiz)
}

// MountAdmin registers artifact management routes.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Route("/items/{itemId}", func(r chi.Router) {
		r.Get("/artifacts", h.artifacts)
		r.Put("/video", h.saveVideo)
		r.Delete("/video", h.deleteVideo)
		r.Put("/file", h.saveFile)
		r.Delete("/file", h.deleteFile)
		r.Get("/questions", h.listQuestions)
		r.Post("/questions", h.createQuestion)
	})
	r.Put("/questions/{questionId}", h.updateQuestion)
	r.Delete("/questions/{questionId}", h.deleteQuestion)
}

func (h *Handler) lesson(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.LessonView(r.Context(), access.PrincipalFromContext(r.Context()), catalog.PathFromRequest(r))
	if err != nil {
		h.fail(w, "lesson view", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) quiz(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.StudentQuiz(r.Context(), access.PrincipalFromContext(r.Context()), catalog.PathFromRequest(r))
	if err != nil {
		h.fail(w, "quiz", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (h *Handler) artifacts(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if err := h.service.requireItem(r.Context(), itemID); err != nil {
		h.fail(w, "artifacts", err)
		return
	}
	artifacts, err := h.service.ArtifactsForItem(r.Context(), itemID)
	if err != nil {
		h.fail(w, "artifacts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, artifacts)
}

func (h *Handler) saveVideo(w http.ResponseWriter, r *http.Request) {
	var in VideoInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.SaveVideo(r.Context(), chi.URLParam(r, "itemId"), in, actorID(r))
	if err != nil {
		h.fail(w, "save video", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) deleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteVideo(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		h.fail(w, "delete video", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) saveFile(w http.ResponseWriter, r *http.Request) {
	var in FileInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	f, err := h.service.SaveFile(r.Context(), chi.URLParam(r, "itemId"), in, actorID(r))
	if err != nil {
		h.fail(w, "save file", err)
		return
	}
	httpx.JSON(w, http.StatusOK, f)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFile(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		h.fail(w, "delete file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Questions(r.Context(), chi.URLParam(r, "itemId"))
	if err != nil {
		h.fail(w, "list questions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var in QuestionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.CreateQuestion(r.Context(), chi.URLParam(r, "itemId"), in, actorID(r))
	if err != nil {
		h.fail(w, "create question", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var in QuestionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q, err := h.service.UpdateQuestion(r.Context(), chi.URLParam(r, "questionId"), in)
	if err != nil {
		h.fail(w, "update question", err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuestion(r.Context(), chi.URLParam(r, "questionId")); err != nil {
		h.fail(w, "delete question", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func actorID(r *http.Request) int64 {
	if p := access.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return 0
}
