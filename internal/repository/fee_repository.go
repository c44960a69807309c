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

// FeeRepository fetches raw fee facts for rollups.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// EnrolledStudentIDs resolves the active student ids in scope. Fee facts
// are keyed by student, so class filtering goes through enrollment.
func (r *FeeRepository) EnrolledStudentIDs(ctx context.Context, filters models.QueryFilters) ([]string, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT student_id FROM enrollments
        WHERE tenant_id = $1 AND academic_year_id = $2 AND status = 'active'`)
	args := []interface{}{filters.TenantID, filters.AcademicYearID}
	if filters.ClassID != "" {
		args = append(args, filters.ClassID)
		builder.WriteString(fmt.Sprintf(" AND class_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY student_id")

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query enrolled students: %w", err)
	}
	return ids, nil
}

// Entries returns one row per invoice with the payments recorded inside
// the period already summed. Invoices with no in-window payment still
// appear with paid = 0. The studentIDs set narrows scope and must be
// non-empty when provided; callers early-return on an empty set instead
// of issuing the query.
func (r *FeeRepository) Entries(ctx context.Context, filters models.QueryFilters, period analytics.Period, studentIDs []string) ([]models.FeeEntry, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT i.student_id, i.amount AS billed,
        COALESCE(SUM(p.amount), 0) AS paid,
        i.due_date,
        GREATEST(i.updated_at, COALESCE(MAX(p.updated_at), i.updated_at)) AS updated_at
        FROM fee_invoices i
        LEFT JOIN fee_payments p ON p.invoice_id = i.id AND p.paid_at >= $3 AND p.paid_at <= $4
        WHERE i.tenant_id = $1 AND i.academic_year_id = $2`)
	args := []interface{}{filters.TenantID, filters.AcademicYearID, period.Start, period.End}

	if filters.StudentID != "" {
		args = append(args, filters.StudentID)
		builder.WriteString(fmt.Sprintf(" AND i.student_id = $%d", len(args)))
	}
	if len(studentIDs) > 0 {
		args = append(args, pq.Array(studentIDs))
		builder.WriteString(fmt.Sprintf(" AND i.student_id = ANY($%d)", len(args)))
	}
	builder.WriteString(" GROUP BY i.id, i.student_id, i.amount, i.due_date, i.updated_at ORDER BY i.student_id, i.id")

	var entries []models.FeeEntry
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query fee entries: %w", err)
	}
	return entries, nil
}
