package models

import (
	"time"

	"github.com/noah-isme/school-insights-api/internal/analytics"
)

// Task statuses derived from submission counts and due dates.
const (
	TaskStatusCompleted = "completed"
	TaskStatusOverdue   = "overdue"
	TaskStatusPending   = "pending"
)

// TaskSubmission is one raw task fact: a single student's submission for a
// task. OnTime is resolved against the task due date at fetch time.
type TaskSubmission struct {
	TaskID      string    `db:"task_id"`
	StudentID   string    `db:"student_id"`
	SubmittedAt time.Time `db:"submitted_at"`
	OnTime      bool      `db:"on_time"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// TaskInfo is the reference data resolved per task: display title, due
// date and how many students the owning class enrolls.
type TaskInfo struct {
	TaskID        string     `db:"task_id"`
	Title         string     `db:"title"`
	ClassID       string     `db:"class_id"`
	DueDate       *time.Time `db:"due_date"`
	EnrolledCount int        `db:"enrolled_count"`
}

// TaskRow is the per-task rollup for one query window.
type TaskRow struct {
	TaskID            string     `json:"task_id"`
	Title             string     `json:"title"`
	ClassID           string     `json:"class_id"`
	TotalSubmissions  int        `json:"total_submissions"`
	OnTimeSubmissions int        `json:"on_time_submissions"`
	OnTimeRate        float64    `json:"on_time_rate"`
	EnrolledCount     int        `json:"enrolled_count"`
	Status            string     `json:"status"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// TaskRankedRow augments a task row with its rank and trend.
type TaskRankedRow struct {
	TaskRow
	Rank  int             `json:"rank"`
	Trend analytics.Trend `json:"trend"`
}

// TaskAggregation is the tenant-wide task summary with the status
// breakdown used by the workload screens.
type TaskAggregation struct {
	TaskCount         int            `json:"task_count"`
	TotalSubmissions  int            `json:"total_submissions"`
	AverageOnTimeRate float64        `json:"average_on_time_rate"`
	StatusCounts      map[string]int `json:"status_counts"`
}

// TaskReport pairs the summary with the bounded ranked rows.
type TaskReport struct {
	Aggregation TaskAggregation `json:"aggregation"`
	RankedRows  []TaskRankedRow `json:"ranked_rows"`
}
