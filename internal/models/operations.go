package models

import (
	"time"

	"github.com/noah-isme/school-insights-api/internal/analytics"
)

// TimetableSlot is one raw operations fact: a scheduled teaching period
// and whether it was actually conducted.
type TimetableSlot struct {
	TeacherID string    `db:"teacher_id"`
	ClassID   string    `db:"class_id"`
	SubjectID string    `db:"subject_id"`
	Date      time.Time `db:"date"`
	Conducted bool      `db:"conducted"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TeacherLoadRow is the per-teacher operations rollup for one window.
type TeacherLoadRow struct {
	TeacherID        string     `json:"teacher_id"`
	TeacherName      string     `json:"teacher_name"`
	ScheduledPeriods int        `json:"scheduled_periods"`
	ConductedPeriods int        `json:"conducted_periods"`
	ConductedRate    float64    `json:"conducted_rate"`
	ClassCount       int        `json:"class_count"`
	SubjectCount     int        `json:"subject_count"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// TeacherLoadRankedRow augments a teacher row with its rank and trend.
type TeacherLoadRankedRow struct {
	TeacherLoadRow
	Rank  int             `json:"rank"`
	Trend analytics.Trend `json:"trend"`
}

// OperationsAggregation is the tenant-wide teaching operations summary.
type OperationsAggregation struct {
	ScheduledPeriods int     `json:"scheduled_periods"`
	ConductedPeriods int     `json:"conducted_periods"`
	OverallRate      float64 `json:"overall_rate"`
	TeacherCount     int     `json:"teacher_count"`
}

// OperationsReport pairs the summary with the bounded ranked rows.
type OperationsReport struct {
	Aggregation OperationsAggregation  `json:"aggregation"`
	RankedRows  []TeacherLoadRankedRow `json:"ranked_rows"`
}
