package access

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// DecisionRecorder observes every guard decision.
type DecisionRecorder interface {
	ObserveGuard(state string)
}

// Middleware wires route protection into chi routers.
type Middleware struct {
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

// Protect evaluates the guard for every request and renders non-authorised
// states instead of calling next. Section and subject ids are taken from the
// sectionId and subjectId route parameters.
func (m Middleware) Protect(req Requirements) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			state := Evaluate(principal, req, paramsFromRequest(r))
			if m.Recorder != nil {
				m.Recorder.ObserveGuard(state.String())
			}
			if state == StateAuthorized {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				attrs := []any{slog.String("state", state.String()), slog.String("path", r.URL.Path)}
				if principal != nil {
					attrs = append(attrs, slog.Int64("user_id", principal.ID))
				}
				m.Logger.Info("route guard blocked request", attrs...)
			}
			Render(w, r, OutcomeFor(state))
		})
	}
}

// RequireSignedIn only demands a principal.
func (m Middleware) RequireSignedIn() func(http.Handler) http.Handler {
	return m.Protect(Requirements{})
}

// RequireContent guards course content: an active principal with access
// to the section and subject named in the route.
func (m Middleware) RequireContent() func(http.Handler) http.Handler {
	return m.Protect(Requirements{CheckActivity: true})
}

// RequireRole demands the given role.
func (m Middleware) RequireRole(role Role) func(http.Handler) http.Handler {
	return m.Protect(Requirements{RequiredRole: role})
}

// Render writes the outcome. Browsers asking for HTML are redirected;
// everyone else receives the outcome as JSON.
func Render(w http.ResponseWriter, r *http.Request, o Outcome) {
	if o.IsRedirect() && acceptsHTML(r) {
		http.Redirect(w, r, o.Redirect, http.StatusSeeOther)
		return
	}
	httpx.JSON(w, o.Status, o)
}

func paramsFromRequest(r *http.Request) Params {
	return Params{
		SectionID: strings.TrimSpace(chi.URLParam(r, "sectionId")),
		SubjectID: strings.TrimSpace(chi.URLParam(r, "subjectId")),
	}
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
