package access

import "net/http"

// GuardState is the terminal decision of route protection.
type GuardState int

const (
	StateAuthorized GuardState = iota
	StateUnauthenticated
	StateInactiveBlocked
	StateRoleMismatch
	StateSectionDenied
	StateSubjectDenied
)

var stateNames = map[GuardState]string{
	StateAuthorized:      "authorized",
	StateUnauthenticated: "unauthenticated",
	StateInactiveBlocked: "inactive_blocked",
	StateRoleMismatch:    "role_mismatch",
	StateSectionDenied:   "section_denied",
	StateSubjectDenied:   "subject_denied",
}

func (s GuardState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the state by name.
func (s GuardState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Requirements describe what a protected route demands of the principal.
type Requirements struct {
	// RequiredRole is empty when any role may pass.
	RequiredRole Role
	// CheckActivity blocks inactive students.
	CheckActivity bool
}

// Params carries the route identifiers relevant to authorisation.
type Params struct {
	SectionID string
	SubjectID string
}

// Evaluate decides the guard state. Checks run in a fixed order and the
// first failing one wins; admin bypass lives in the permission predicates.
func Evaluate(p *Principal, req Requirements, params Params) GuardState {
	if p == nil {
		return StateUnauthenticated
	}
	if req.CheckActivity && p.Role == RoleStudent && !p.IsActive {
		return StateInactiveBlocked
	}
	if req.RequiredRole != "" && p.Role != req.RequiredRole {
		return StateRoleMismatch
	}
	if params.SectionID != "" && p.Role == RoleStudent && !HasSectionAccess(p, params.SectionID) {
		return StateSectionDenied
	}
	if params.SubjectID != "" && p.Role == RoleStudent && !HasSubjectAccess(p, params.SubjectID) {
		return StateSubjectDenied
	}
	return StateAuthorized
}

// Recovery is the single action offered on a blocking notice.
type Recovery struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}

// Outcome is how a guard state is presented to the client.
type Outcome struct {
	State    GuardState `json:"state"`
	Status   int        `json:"-"`
	Message  string     `json:"message,omitempty"`
	Redirect string     `json:"redirect,omitempty"`
	Recovery *Recovery  `json:"recovery,omitempty"`
}

// IsRedirect reports whether the outcome sends the client elsewhere.
func (o Outcome) IsRedirect() bool {
	return o.Redirect != ""
}

// Paths used by guard outcomes.
const (
	LoginPath   = "/login"
	HomePath    = "/"
	CoursesPath = "/courses"
)

// OutcomeFor maps a state onto its response shape.
func OutcomeFor(s GuardState) Outcome {
	switch s {
	case StateAuthorized:
		return Outcome{State: s, Status: http.StatusOK}
	case StateUnauthenticated:
		return Outcome{State: s, Status: http.StatusUnauthorized, Redirect: LoginPath}
	case StateInactiveBlocked:
		return Outcome{
			State:    s,
			Status:   http.StatusForbidden,
			Message:  "Your account is not active yet. Please contact the administrator.",
			Recovery: &Recovery{Action: "home", Path: HomePath},
		}
	case StateRoleMismatch:
		return Outcome{State: s, Status: http.StatusForbidden, Redirect: HomePath}
	case StateSectionDenied:
		return Outcome{
			State:    s,
			Status:   http.StatusForbidden,
			Message:  "You do not have access to this section.",
			Recovery: &Recovery{Action: "courses", Path: CoursesPath},
		}
	case StateSubjectDenied:
		return Outcome{
			State:    s,
			Status:   http.StatusForbidden,
			Message:  "You do not have access to this subject.",
			Recovery: &Recovery{Action: "courses", Path: CoursesPath},
		}
	}
	return Outcome{State: s, Status: http.StatusForbidden}
}
