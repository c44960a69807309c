package models

import (
	"time"

	"github.com/noah-isme/school-insights-api/internal/analytics"
)

// Fee statuses derived from comparing payments against billed amounts.
const (
	FeeStatusPaid    = "paid"
	FeeStatusOverdue = "overdue"
	FeeStatusCurrent = "current"
)

// Aging buckets keyed by days overdue.
const (
	FeeAgingCurrent = "current"
	FeeAging30to60  = "30-60"
	FeeAging60to90  = "60-90"
	FeeAging90Plus  = "90+"
)

// FeeEntry is one raw fee fact: a student's invoice joined with the
// payments recorded inside the query window. DueDate is nullable, unbilled
// ad-hoc payments carry no due date.
type FeeEntry struct {
	StudentID string     `db:"student_id"`
	Billed    float64    `db:"billed"`
	Paid      float64    `db:"paid"`
	DueDate   *time.Time `db:"due_date"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// FeeStudentRow is the per-student fee rollup for one query window.
type FeeStudentRow struct {
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	TotalBilled float64    `json:"total_billed"`
	TotalPaid   float64    `json:"total_paid"`
	TotalDue    float64    `json:"total_due"`
	Status      string     `json:"status"`
	AgingBucket string     `json:"aging_bucket"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// FeeRankedRow augments a student row with its rank and trend.
type FeeRankedRow struct {
	FeeStudentRow
	Rank  int             `json:"rank"`
	Trend analytics.Trend `json:"trend"`
}

// FeeAggregation is the tenant-wide fee summary, including the aging
// breakdown used by the collections screens.
type FeeAggregation struct {
	TotalBilled    float64        `json:"total_billed"`
	TotalPaid      float64        `json:"total_paid"`
	TotalDue       float64        `json:"total_due"`
	CollectionRate float64        `json:"collection_rate"`
	StudentCount   int            `json:"student_count"`
	StatusCounts   map[string]int `json:"status_counts"`
	AgingBuckets   map[string]int `json:"aging_buckets"`
}

// FeeReport pairs the summary with the bounded ranked rows.
type FeeReport struct {
	Aggregation FeeAggregation `json:"aggregation"`
	RankedRows  []FeeRankedRow `json:"ranked_rows"`
}
