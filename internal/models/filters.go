package models

import "time"

// QueryFilters scopes every analytics query. Tenant, academic year and the
// inclusive date range are mandatory; the remaining dimension filters
// narrow scope when present.
type QueryFilters struct {
	TenantID       string
	AcademicYearID string
	StartDate      time.Time
	EndDate        time.Time
	ClassID        string
	SubjectID      string
	TeacherID      string
	StudentID      string
}

// ScopeReady reports whether the mandatory filter fields are all present.
// Pipelines must not issue any datastore query while the scope is not
// ready; they return the zero-valued report instead.
func (f QueryFilters) ScopeReady() bool {
	return f.TenantID != "" &&
		f.AcademicYearID != "" &&
		!f.StartDate.IsZero() &&
		!f.EndDate.IsZero()
}
