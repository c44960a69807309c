package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ReferenceRepository resolves display names for dimension ids in batched
// lookups. Name resolution is best effort: ids missing from the result map
// fall back to a safe default at the call site.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

type namedRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// ClassNames resolves class display names for the given ids.
func (r *ReferenceRepository) ClassNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error) {
	return r.names(ctx, "classes", "name", tenantID, ids)
}

// StudentNames resolves student display names for the given ids.
func (r *ReferenceRepository) StudentNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error) {
	return r.names(ctx, "students", "full_name", tenantID, ids)
}

// TeacherNames resolves teacher display names for the given ids.
func (r *ReferenceRepository) TeacherNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error) {
	return r.names(ctx, "teachers", "full_name", tenantID, ids)
}

// SubjectNames resolves subject display names for the given ids.
func (r *ReferenceRepository) SubjectNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error) {
	return r.names(ctx, "subjects", "name", tenantID, ids)
}

func (r *ReferenceRepository) names(ctx context.Context, table, column, tenantID string, ids []string) (map[string]string, error) {
	// Never issue a degenerate IN () query.
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	query := fmt.Sprintf("SELECT id, %s AS name FROM %s WHERE tenant_id = $1 AND id = ANY($2)", column, table)
	var rows []namedRow
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("query %s names: %w", table, err)
	}

	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
