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

// TaskRepository fetches raw task submissions and task reference data.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Submissions returns every submission recorded inside the period. The
// on_time flag is resolved against the owning task's due date in the
// query; tasks without a due date count as on time.
func (r *TaskRepository) Submissions(ctx context.Context, filters models.QueryFilters, period analytics.Period) ([]models.TaskSubmission, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT ts.task_id, ts.student_id, ts.submitted_at,
        (t.due_date IS NULL OR ts.submitted_at <= t.due_date) AS on_time,
        ts.updated_at
        FROM task_submissions ts
        JOIN tasks t ON t.id = ts.task_id
        WHERE t.tenant_id = $1 AND t.academic_year_id = $2 AND ts.submitted_at >= $3 AND ts.submitted_at <= $4`)
	args := []interface{}{filters.TenantID, filters.AcademicYearID, period.Start, period.End}

	if filters.ClassID != "" {
		args = append(args, filters.ClassID)
		builder.WriteString(fmt.Sprintf(" AND t.class_id = $%d", len(args)))
	}
	if filters.SubjectID != "" {
		args = append(args, filters.SubjectID)
		builder.WriteString(fmt.Sprintf(" AND t.subject_id = $%d", len(args)))
	}
	if filters.StudentID != "" {
		args = append(args, filters.StudentID)
		builder.WriteString(fmt.Sprintf(" AND ts.student_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY ts.submitted_at, ts.task_id, ts.student_id")

	var submissions []models.TaskSubmission
	if err := r.db.SelectContext(ctx, &submissions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query task submissions: %w", err)
	}
	return submissions, nil
}

// TaskInfoByIDs resolves title, due date and enrolled student count for
// the distinct tasks seen in a window. Batched by id set.
func (r *TaskRepository) TaskInfoByIDs(ctx context.Context, tenantID string, taskIDs []string) (map[string]models.TaskInfo, error) {
	if len(taskIDs) == 0 {
		return map[string]models.TaskInfo{}, nil
	}

	query := `SELECT t.id AS task_id, t.title, t.class_id, t.due_date,
        (SELECT COUNT(*) FROM enrollments e
            WHERE e.tenant_id = t.tenant_id AND e.class_id = t.class_id AND e.status = 'active') AS enrolled_count
        FROM tasks t
        WHERE t.tenant_id = $1 AND t.id = ANY($2)`
	var rows []models.TaskInfo
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, pq.Array(taskIDs)); err != nil {
		return nil, fmt.Errorf("query task info: %w", err)
	}

	infos := make(map[string]models.TaskInfo, len(rows))
	for _, row := range rows {
		infos[row.TaskID] = row
	}
	return infos, nil
}
