package models

import (
	"time"

	"github.com/noah-isme/school-insights-api/internal/analytics"
)

// SyllabusEntry is one raw syllabus-progress fact: a chapter or topic
// marked covered for a class+subject. ChapterID is empty for topic-only
// progress entries.
type SyllabusEntry struct {
	ClassID   string    `db:"class_id"`
	SubjectID string    `db:"subject_id"`
	ChapterID string    `db:"chapter_id"`
	TopicID   string    `db:"topic_id"`
	CoveredAt time.Time `db:"covered_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SyllabusTotals is the reference data resolved per subject: how many
// chapters and topics its syllabus defines.
type SyllabusTotals struct {
	SubjectID     string `db:"subject_id"`
	TotalChapters int    `db:"total_chapters"`
	TotalTopics   int    `db:"total_topics"`
}

// SyllabusRow is the per class+subject coverage rollup for one window.
// Coverage is chapter based, falling back to topics when the window holds
// no chapter-level entries for the pair.
type SyllabusRow struct {
	ClassID         string     `json:"class_id"`
	SubjectID       string     `json:"subject_id"`
	SubjectName     string     `json:"subject_name"`
	ChaptersCovered int        `json:"chapters_covered"`
	TopicsCovered   int        `json:"topics_covered"`
	Coverage        float64    `json:"coverage"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// SyllabusRankedRow augments a coverage row with its rank and trend.
type SyllabusRankedRow struct {
	SyllabusRow
	Rank  int             `json:"rank"`
	Trend analytics.Trend `json:"trend"`
}

// SyllabusAggregation is the tenant-wide coverage summary.
type SyllabusAggregation struct {
	TrackedPairs    int     `json:"tracked_pairs"`
	AverageCoverage float64 `json:"average_coverage"`
	FullyCovered    int     `json:"fully_covered"`
}

// SyllabusReport pairs the summary with the bounded ranked rows.
type SyllabusReport struct {
	Aggregation SyllabusAggregation `json:"aggregation"`
	RankedRows  []SyllabusRankedRow `json:"ranked_rows"`
}
