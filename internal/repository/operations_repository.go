package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-insights-api/internal/analytics"
	"github.com/noah-isme/school-insights-api/internal/models"
)

// OperationsRepository fetches raw timetable slots for teacher-load
// rollups.
type OperationsRepository struct {
	db *sqlx.DB
}

// NewOperationsRepository constructs the repository.
func NewOperationsRepository(db *sqlx.DB) *OperationsRepository {
	return &OperationsRepository{db: db}
}

// Slots returns every scheduled teaching period inside the window.
func (r *OperationsRepository) Slots(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.TimetableSlot, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT teacher_id, class_id, subject_id, date, conducted, updated_at
        FROM timetable_slots
        WHERE tenant_id = $1 AND academic_year_id = $2 AND date >= $3 AND date <= $4`)
	args := []interface{}{filters.TenantID, filters.AcademicYearID, period.Start, period.End}

	if filters.TeacherID != "" {
		args = append(args, filters.TeacherID)
		builder.WriteString(fmt.Sprintf(" AND teacher_id = $%d", len(args)))
	}
	if filters.ClassID != "" {
		args = append(args, filters.ClassID)
		builder.WriteString(fmt.Sprintf(" AND class_id = $%d", len(args)))
	}
	if filters.SubjectID != "" {
		args = append(args, filters.SubjectID)
		builder.WriteString(fmt.Sprintf(" AND subject_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY date, teacher_id")

	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query timetable slots: %w", err)
	}
	return slots, nil
}
