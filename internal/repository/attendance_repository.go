package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-insights-api/internal/analytics"
	"github.com/noah-isme/school-insights-api/internal/models"
)

// AttendanceRepository fetches raw attendance marks for rollups.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Marks returns every attendance mark inside the period for the given
// scope. One row per student per school day.
func (r *AttendanceRepository) Marks(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.AttendanceMark, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT class_id, student_id, date, status, updated_at
        FROM attendance_marks
        WHERE tenant_id = $1 AND academic_year_id = $2 AND date >= $3 AND date <= $4`)
	args := []interface{}{filters.TenantID, filters.AcademicYearID, period.Start, period.End}

	if filters.ClassID != "" {
		args = append(args, filters.ClassID)
		builder.WriteString(fmt.Sprintf(" AND class_id = $%d", len(args)))
	}
	if filters.StudentID != "" {
		args = append(args, filters.StudentID)
		builder.WriteString(fmt.Sprintf(" AND student_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY date, class_id, student_id")

	var marks []models.AttendanceMark
	if err := r.db.SelectContext(ctx, &marks, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query attendance marks: %w", err)
	}
	return marks, nil
}
