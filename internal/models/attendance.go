package models

import (
	"time"

	"github.com/noah-isme/school-insights-api/internal/analytics"
)

// Attendance mark statuses as stored by the mobile clients.
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusLate    = "late"
	AttendanceStatusExcused = "excused"
)

// AttendanceMark is one raw attendance fact: a single student marked on a
// single school day.
type AttendanceMark struct {
	ClassID   string    `db:"class_id"`
	StudentID string    `db:"student_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AttendanceClassRow is the per-class rollup for one query window.
type AttendanceClassRow struct {
	ClassID      string     `json:"class_id"`
	ClassName    string     `json:"class_name"`
	PresentCount int        `json:"present_count"`
	AbsentCount  int        `json:"absent_count"`
	TotalMarks   int        `json:"total_marks"`
	Rate         float64    `json:"rate"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// AttendanceRankedRow augments a class row with its rank and trend.
type AttendanceRankedRow struct {
	AttendanceClassRow
	Rank  int             `json:"rank"`
	Trend analytics.Trend `json:"trend"`
}

// AttendanceAggregation is the tenant-wide attendance summary.
type AttendanceAggregation struct {
	TotalMarks   int     `json:"total_marks"`
	PresentCount int     `json:"present_count"`
	AbsentCount  int     `json:"absent_count"`
	OverallRate  float64 `json:"overall_rate"`
	ClassCount   int     `json:"class_count"`
}

// AttendanceReport pairs the summary with the bounded ranked rows.
type AttendanceReport struct {
	Aggregation AttendanceAggregation `json:"aggregation"`
	RankedRows  []AttendanceRankedRow `json:"ranked_rows"`
}
