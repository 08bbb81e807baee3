package access

// HasSectionAccess reports whether p may open the given section.
//
// A nil principal yields true; route protection rejects anonymous requests
// before this is consulted, so callers must not treat the result as a grant.
func HasSectionAccess(p *Principal, sectionID string) bool {
	if p == nil {
		return true
	}
	if p.Role == RoleAdmin {
		return true
	}
	if !p.IsActive {
		return false
	}
	switch ClassifySection(sectionID) {
	case SectionCollection:
		return p.Permissions.HasCollectionAccess
	case SectionAbilities:
		return p.Permissions.HasAbilitiesAccess
	case SectionUnknown:
		return false
	}
	return false
}

// HasSubjectAccess reports whether p may open the given subject.
// Ability subjects need both the section flag and the per-subject flag.
func HasSubjectAccess(p *Principal, subjectID string) bool {
	if p == nil {
		return true
	}
	if p.Role == RoleAdmin {
		return true
	}
	if !p.IsActive {
		return false
	}
	perms := p.Permissions
	switch ClassifySubject(subjectID) {
	case SubjectVerbal:
		return perms.HasAbilitiesAccess && perms.AbilitiesSubjects.Verbal
	case SubjectQuantitative:
		return perms.HasAbilitiesAccess && perms.AbilitiesSubjects.Quantitative
	case SubjectCollection:
		return perms.HasCollectionAccess
	case SubjectUnknown:
		return false
	}
	return false
}

// FilterSubjectIDs keeps the ids p may open, preserving order.
func FilterSubjectIDs(p *Principal, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if HasSubjectAccess(p, id) {
			out = append(out, id)
		}
	}
	return out
}
