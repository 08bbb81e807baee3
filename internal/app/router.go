package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/auth"
	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/content"
	"github.com/qudrat-academy/qudrat/internal/observability"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
	"github.com/qudrat-academy/qudrat/internal/progress"
	"github.com/qudrat-academy/qudrat/internal/shared"
	"github.com/qudrat-academy/qudrat/internal/users"
	"github.com/qudrat-academy/qudrat/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Principals     auth.PrincipalMiddleware
	Guard          access.Middleware

	AuthHandler     *auth.Handler
	CatalogHandler  *catalog.Handler
	ContentHandler  *content.Handler
	ProgressHandler *progress.Handler
	UsersHandler    *users.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Qudrat defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Principals:     params.Principals,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(RequestLogger(params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	params.CatalogHandler.MountPublic(r)

	device := auth.RestrictDevice(params.Logger)
	signedIn := params.Guard.RequireSignedIn()
	courseContent := params.Guard.RequireContent()

	r.Group(func(r chi.Router) {
		r.Use(signedIn, device)
		params.CatalogHandler.MountHome(r)
		if params.ProgressHandler != nil {
			r.Route("/progress", params.ProgressHandler.MountRoutes)
		}
	})

	// The guard reads section and subject ids from route parameters, so it
	// runs once per level after chi has matched them.
	r.Route("/section/{sectionId}", func(r chi.Router) {
		r.With(courseContent, device).Group(params.CatalogHandler.MountSection)
		r.Route("/subject/{subjectId}", func(r chi.Router) {
			r.Use(courseContent, device)
			params.CatalogHandler.MountSubject(r)
			r.Route("/category/{categoryId}/chapter/{chapterId}/item/{itemId}", func(r chi.Router) {
				params.ContentHandler.MountLesson(r)
				if params.ProgressHandler != nil {
					params.ProgressHandler.MountLesson(r)
				}
			})
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(params.Guard.RequireRole(access.RoleAdmin))
		r.Route("/catalog", params.CatalogHandler.MountAdmin)
		r.Route("/content", params.ContentHandler.MountAdmin)
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.ProgressHandler != nil {
			r.Route("/progress", params.ProgressHandler.MountAdmin)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
