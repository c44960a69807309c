package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/school-insights-api/internal/models"
	appErrors "github.com/noah-isme/school-insights-api/pkg/errors"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		_, err := time.Parse(dateLayout, raw)
		return err == nil
	})
	return v
}

// AnalyticsQuery captures the query parameters accepted by every report
// endpoint. Scope fields are optional at the HTTP layer; an incomplete
// scope yields an empty report, not a validation error.
type AnalyticsQuery struct {
	TenantID       string `form:"tenant_id"`
	AcademicYearID string `form:"academic_year_id"`
	StartDate      string `form:"start_date" validate:"dateonly"`
	EndDate        string `form:"end_date" validate:"dateonly"`
	ClassID        string `form:"class_id"`
	SubjectID      string `form:"subject_id"`
	TeacherID      string `form:"teacher_id"`
	StudentID      string `form:"student_id"`
	Limit          int    `form:"limit" validate:"omitempty,min=1"`
}

// Filters validates the query and converts it into the internal filter
// value. Malformed dates and non-positive limits are validation errors;
// absent dates stay zero.
func (q AnalyticsQuery) Filters() (models.QueryFilters, error) {
	if err := validate.Struct(q); err != nil {
		return models.QueryFilters{}, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters")
	}

	filters := models.QueryFilters{
		TenantID:       q.TenantID,
		AcademicYearID: q.AcademicYearID,
		ClassID:        q.ClassID,
		SubjectID:      q.SubjectID,
		TeacherID:      q.TeacherID,
		StudentID:      q.StudentID,
	}
	filters.StartDate, _ = parseDate(q.StartDate)
	filters.EndDate, _ = parseDate(q.EndDate)
	if !filters.StartDate.IsZero() && !filters.EndDate.IsZero() && filters.EndDate.Before(filters.StartDate) {
		return filters, appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}
	return filters, nil
}

// ExportQuery extends the report query with the requested file format.
type ExportQuery struct {
	AnalyticsQuery
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// Validate checks the export-specific parameters.
func (q ExportQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid query parameters")
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, raw)
}
