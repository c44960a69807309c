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

// SyllabusRepository fetches raw syllabus-progress entries and per-subject
// syllabus totals.
type SyllabusRepository struct {
	db *sqlx.DB
}

// NewSyllabusRepository constructs the repository.
func NewSyllabusRepository(db *sqlx.DB) *SyllabusRepository {
	return &SyllabusRepository{db: db}
}

// Entries returns every progress entry recorded inside the period.
// chapter_id is empty for topic-only entries.
func (r *SyllabusRepository) Entries(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.SyllabusEntry, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT class_id, subject_id, COALESCE(chapter_id, '') AS chapter_id,
        COALESCE(topic_id, '') AS topic_id, covered_at, updated_at
        FROM syllabus_progress
        WHERE tenant_id = $1 AND academic_year_id = $2 AND covered_at >= $3 AND covered_at <= $4`)
	args := []interface{}{filters.TenantID, filters.AcademicYearID, period.Start, period.End}

	if filters.ClassID != "" {
		args = append(args, filters.ClassID)
		builder.WriteString(fmt.Sprintf(" AND class_id = $%d", len(args)))
	}
	if filters.SubjectID != "" {
		args = append(args, filters.SubjectID)
		builder.WriteString(fmt.Sprintf(" AND subject_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY covered_at, class_id, subject_id")

	var entries []models.SyllabusEntry
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query syllabus entries: %w", err)
	}
	return entries, nil
}

// TotalsBySubject resolves the chapter and topic totals the coverage
// denominator requires, batched by the distinct subject ids of a window.
func (r *SyllabusRepository) TotalsBySubject(ctx context.Context, tenantID string, subjectIDs []string) (map[string]models.SyllabusTotals, error) {
	if len(subjectIDs) == 0 {
		return map[string]models.SyllabusTotals{}, nil
	}

	query := `SELECT id AS subject_id, total_chapters, total_topics
        FROM subjects WHERE tenant_id = $1 AND id = ANY($2)`
	var rows []models.SyllabusTotals
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("query syllabus totals: %w", err)
	}

	totals := make(map[string]models.SyllabusTotals, len(rows))
	for _, row := range rows {
		totals[row.SubjectID] = row
	}
	return totals, nil
}
