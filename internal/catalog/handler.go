package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// ActionResolver decorates listed items with the actions visible to the
// principal.
type ActionResolver interface {
	ItemActions(ctx context.Context, p *access.Principal, items []Item) (map[string]access.Actions, error)
}

// Handler exposes catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	actions ActionResolver
}

// NewHandler builds Handler instance. actions may be nil.
func NewHandler(logger *slog.Logger, service *Service, actions ActionResolver) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, actions: actions}
}

// MountPublic registers unauthenticated catalog routes.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/courses", h.courses)
}

// MountHome registers the signed-in landing route.
func (h *Handler) MountHome(r chi.Router) {
	r.Get("/home", h.home)
}

// MountSection registers routes below /section/{sectionId}.
func (h *Handler) MountSection(r chi.Router) {
	r.Get("/subjects", h.subjects)
}

// MountSubject registers routes below /subject/{subjectId}.
func (h *Handler) MountSubject(r chi.Router) {
	r.Get("/categories", h.categories)
	r.Get("/category/{categoryId}/chapters", h.chapters)
	r.Get("/category/{categoryId}/chapter/{chapterId}/items", h.items)
}

// MountAdmin registers catalog management routes.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/tree", h.tree)
	r.Get("/nodes/{kind}/{nodeId}", h.node)
	r.Post("/chapters", h.createChapter)
	r.Put("/chapters/{chapterId}", h.updateChapter)
	r.Delete("/chapters/{chapterId}", h.deleteChapter)
	r.Post("/items", h.createItem)
	r.Put("/items/{itemId}", h.updateItem)
	r.Delete("/items/{itemId}", h.deleteItem)
}

// PathFromRequest reads the tree path from chi route parameters.
func PathFromRequest(r *http.Request) Path {
	return Path{
		SectionID:  strings.TrimSpace(chi.URLParam(r, "sectionId")),
		SubjectID:  strings.TrimSpace(chi.URLParam(r, "subjectId")),
		CategoryID: strings.TrimSpace(chi.URLParam(r, "categoryId")),
		ChapterID:  strings.TrimSpace(chi.URLParam(r, "chapterId")),
		ItemID:     strings.TrimSpace(chi.URLParam(r, "itemId")),
	}
}

func (h *Handler) courses(w http.ResponseWriter, r *http.Request) {
	sections, err := h.service.Outline(r.Context())
	if err != nil {
		h.fail(w, "list courses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	subjects, err := h.service.AccessibleSubjects(r.Context(), p)
	if err != nil {
		h.fail(w, "list accessible subjects", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":     p,
		"subjects": subjects,
	})
}

func (h *Handler) subjects(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	subjects, err := h.service.SectionSubjects(r.Context(), p, PathFromRequest(r).SectionID)
	if err != nil {
		h.fail(w, "list subjects", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"subjects": subjects})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context(), PathFromRequest(r))
	if err != nil {
		h.fail(w, "list categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) chapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.service.Chapters(r.Context(), PathFromRequest(r))
	if err != nil {
		h.fail(w, "list chapters", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"chapters": chapters})
}

type itemView struct {
	Item
	Actions access.Actions `json:"actions"`
}

func (h *Handler) items(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Items(r.Context(), PathFromRequest(r))
	if err != nil {
		h.fail(w, "list items", err)
		return
	}
	var actions map[string]access.Actions
	if h.actions != nil {
		actions, err = h.actions.ItemActions(r.Context(), access.PrincipalFromContext(r.Context()), items)
		if err != nil {
			h.fail(w, "resolve item actions", err)
			return
		}
	}
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		acts := actions[it.ID]
		if acts == nil {
			acts = access.Actions{}
		}
		out = append(out, itemView{Item: it, Actions: acts})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.fail(w, "load tree", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) node(w http.ResponseWriter, r *http.Request) {
	node, err := h.service.GetNode(r.Context(), NodeKind(chi.URLParam(r, "kind")), chi.URLParam(r, "nodeId"))
	if err != nil {
		h.fail(w, "get node", err)
		return
	}
	httpx.JSON(w, http.StatusOK, node)
}

func (h *Handler) createChapter(w http.ResponseWriter, r *http.Request) {
	var in ChapterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ch, err := h.service.CreateChapter(r.Context(), in)
	if err != nil {
		h.fail(w, "create chapter", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ch)
}

func (h *Handler) updateChapter(w http.ResponseWriter, r *http.Request) {
	var in ChapterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ch, err := h.service.UpdateChapter(r.Context(), chi.URLParam(r, "chapterId"), in)
	if err != nil {
		h.fail(w, "update chapter", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ch)
}

func (h *Handler) deleteChapter(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteChapter(r.Context(), chi.URLParam(r, "chapterId")); err != nil {
		h.fail(w, "delete chapter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	it, err := h.service.CreateItem(r.Context(), in)
	if err != nil {
		h.fail(w, "create item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, it)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	it, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "itemId"), in)
	if err != nil {
		h.fail(w, "update item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, it)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		h.fail(w, "delete item", err)
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
