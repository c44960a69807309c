package models

import (
	"time"

	"github.com/noah-isme/school-insights-api/internal/analytics"
)

// TestScore is one raw academics fact: a single student's marks on a
// single test. The maximum marks for the test are resolved separately in a
// batched reference lookup.
type TestScore struct {
	StudentID string    `db:"student_id"`
	SubjectID string    `db:"subject_id"`
	TestID    string    `db:"test_id"`
	Marks     float64   `db:"marks"`
	TakenAt   time.Time `db:"taken_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AcademicsRow is the per student+subject rollup for one query window. The
// average is the running mean of per-test percentage scores.
type AcademicsRow struct {
	StudentID    string     `json:"student_id"`
	StudentName  string     `json:"student_name"`
	SubjectID    string     `json:"subject_id"`
	SubjectName  string     `json:"subject_name"`
	AverageScore float64    `json:"average_score"`
	TestCount    int        `json:"test_count"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// AcademicsRankedRow augments a student+subject row with rank and trend.
type AcademicsRankedRow struct {
	AcademicsRow
	Rank  int             `json:"rank"`
	Trend analytics.Trend `json:"trend"`
}

// AcademicsAggregation is the tenant-wide academics summary.
type AcademicsAggregation struct {
	TotalScores    int     `json:"total_scores"`
	DimensionCount int     `json:"dimension_count"`
	OverallAverage float64 `json:"overall_average"`
}

// AcademicsReport pairs the summary with the bounded ranked rows.
type AcademicsReport struct {
	Aggregation AcademicsAggregation `json:"aggregation"`
	RankedRows  []AcademicsRankedRow `json:"ranked_rows"`
}
