package access

// Role identifies the kind of account behind a principal.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// AbilitySubjects refines abilities access per subject.
type AbilitySubjects struct {
	Verbal       bool `json:"verbal"`
	Quantitative bool `json:"quantitative"`
}

// PermissionSet is the only state consulted when authorising a student.
// The zero value denies everything.
type PermissionSet struct {
	HasCollectionAccess bool            `json:"hasCollectionAccess"`
	HasAbilitiesAccess  bool            `json:"hasAbilitiesAccess"`
	AbilitiesSubjects   AbilitySubjects `json:"abilitiesSubjects"`
}

// DenyAll returns a permission set with every flag cleared.
func DenyAll() PermissionSet {
	return PermissionSet{}
}

// Principal describes the authenticated actor of a request.
type Principal struct {
	ID          int64         `json:"id"`
	Role        Role          `json:"role"`
	IsActive    bool          `json:"isActive"`
	Permissions PermissionSet `json:"permissions"`
}

// NewPrincipal builds a principal with a fully populated permission set.
func NewPrincipal(id int64, role Role, active bool, perms *PermissionSet) *Principal {
	p := &Principal{ID: id, Role: role, IsActive: active, Permissions: DenyAll()}
	if perms != nil {
		p.Permissions = *perms
	}
	return p
}

// IsAdmin reports whether the principal bypasses content gating.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// IsStudent reports whether the principal is a student.
func (p *Principal) IsStudent() bool {
	return p != nil && p.Role == RoleStudent
}

// Well-known section identifiers.
const (
	SectionTahseelID = "section_tahseel"
	SectionQudratID  = "section_qudrat"
)

// Well-known subject identifiers.
const (
	SubjectVerbalID       = "subject_verbal"
	SubjectQuantitativeID = "subject_quantitative"
	SubjectMathID         = "subject_math"
	SubjectBiologyID      = "subject_biology"
	SubjectPhysicsID      = "subject_physics"
	SubjectChemistryID    = "subject_chemistry"
)

// SectionClass is the closed set of gated section kinds.
type SectionClass int

const (
	SectionUnknown SectionClass = iota
	SectionCollection
	SectionAbilities
)

// ClassifySection maps a section id onto its class.
func ClassifySection(id string) SectionClass {
	switch id {
	case SectionTahseelID:
		return SectionCollection
	case SectionQudratID:
		return SectionAbilities
	default:
		return SectionUnknown
	}
}

// SubjectClass is the closed set of gated subject kinds.
type SubjectClass int

const (
	SubjectUnknown SubjectClass = iota
	SubjectVerbal
	SubjectQuantitative
	SubjectCollection
)

// ClassifySubject maps a subject id onto its class.
func ClassifySubject(id string) SubjectClass {
	switch id {
	case SubjectVerbalID:
		return SubjectVerbal
	case SubjectQuantitativeID:
		return SubjectQuantitative
	case SubjectMathID, SubjectBiologyID, SubjectPhysicsID, SubjectChemistryID:
		return SubjectCollection
	default:
		return SubjectUnknown
	}
}
