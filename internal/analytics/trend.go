package analytics

// TrendDirection classifies the sign of a period-over-period change.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// Trend is the signed change of a metric between the current period and
// the immediately preceding period of equal length.
type Trend struct {
	Direction TrendDirection `json:"direction"`
	Delta     float64        `json:"delta"`
}

// CompareTrend classifies the change from previous to current. A dimension
// key absent from the previous period is compared against zero, so a newly
// appearing dimension with a positive metric trends up.
func CompareTrend(current, previous float64) Trend {
	delta := current - previous
	direction := TrendFlat
	switch {
	case delta > 0:
		direction = TrendUp
	case delta < 0:
		direction = TrendDown
	}
	return Trend{Direction: direction, Delta: delta}
}
