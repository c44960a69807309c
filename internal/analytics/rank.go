package analytics

import "sort"

// SortDirection controls ranking order.
type SortDirection string

const (
	SortDesc SortDirection = "desc"
	SortAsc  SortDirection = "asc"
)

// Ranked pairs a dimension row with its 1-based rank and the trend against
// the previous period's value for the same key.
type Ranked[T any] struct {
	Row   T
	Rank  int
	Trend Trend
}

// Rank orders rows by metric in the requested direction, assigns 1-based
// ranks (ties keep distinct ranks in stable input order) and attaches the
// trend computed against previous-period metrics matched by key. Keys
// missing from previous are treated as zero. When limit is positive the
// result is truncated to the first limit rows.
func Rank[T any, K comparable](
	rows []T,
	key func(T) K,
	metric func(T) float64,
	direction SortDirection,
	limit int,
	previous map[K]float64,
) []Ranked[T] {
	ordered := make([]T, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if direction == SortAsc {
			return metric(ordered[i]) < metric(ordered[j])
		}
		return metric(ordered[i]) > metric(ordered[j])
	})

	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}

	ranked := make([]Ranked[T], 0, len(ordered))
	for i, row := range ordered {
		ranked = append(ranked, Ranked[T]{
			Row:   row,
			Rank:  i + 1,
			Trend: CompareTrend(metric(row), previous[key(row)]),
		})
	}
	return ranked
}
