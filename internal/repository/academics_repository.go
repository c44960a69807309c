package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-insights-api/internal/analytics"
	"github.com/noah-isme/school-insights-api/internal/models"
)

// AcademicsRepository fetches raw test scores for rollups.
type AcademicsRepository struct {
	db *sqlx.DB
}

// NewAcademicsRepository constructs the repository.
func NewAcademicsRepository(db *sqlx.DB) *AcademicsRepository {
	return &AcademicsRepository{db: db}
}

// Scores returns every test score recorded inside the period for the
// given scope.
func (r *AcademicsRepository) Scores(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.TestScore, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT s.student_id, s.subject_id, s.test_id, s.marks, s.taken_at, s.updated_at
        FROM test_scores s
        WHERE s.tenant_id = $1 AND s.academic_year_id = $2 AND s.taken_at >= $3 AND s.taken_at <= $4`)
	args := []interface{}{filters.TenantID, filters.AcademicYearID, period.Start, period.End}

	if filters.StudentID != "" {
		args = append(args, filters.StudentID)
		builder.WriteString(fmt.Sprintf(" AND s.student_id = $%d", len(args)))
	}
	if filters.SubjectID != "" {
		args = append(args, filters.SubjectID)
		builder.WriteString(fmt.Sprintf(" AND s.subject_id = $%d", len(args)))
	}
	if filters.ClassID != "" {
		args = append(args, filters.ClassID)
		builder.WriteString(fmt.Sprintf(` AND s.student_id IN (
            SELECT student_id FROM enrollments
            WHERE tenant_id = $1 AND academic_year_id = $2 AND class_id = $%d AND status = 'active')`, len(args)))
	}
	builder.WriteString(" ORDER BY s.taken_at, s.student_id, s.subject_id")

	var scores []models.TestScore
	if err := r.db.SelectContext(ctx, &scores, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query test scores: %w", err)
	}
	return scores, nil
}

type maxMarksRow struct {
	TestID   string  `db:"test_id"`
	MaxMarks float64 `db:"max_marks"`
}

// MaxMarksByTest resolves the maximum marks for the distinct tests seen in
// a window. Batched by id set; tests missing from the result default to
// zero at the call site, which yields a zero percentage rather than an
// error.
func (r *AcademicsRepository) MaxMarksByTest(ctx context.Context, tenantID string, testIDs []string) (map[string]float64, error) {
	if len(testIDs) == 0 {
		return map[string]float64{}, nil
	}

	query := `SELECT id AS test_id, max_marks FROM tests WHERE tenant_id = $1 AND id = ANY($2)`
	var rows []maxMarksRow
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, pq.Array(testIDs)); err != nil {
		return nil, fmt.Errorf("query test max marks: %w", err)
	}

	maxima := make(map[string]float64, len(rows))
	for _, row := range rows {
		maxima[row.TestID] = row.MaxMarks
	}
	return maxima, nil
}
