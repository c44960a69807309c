package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareTrend(t *testing.T) {
	up := CompareTrend(10, 0)
	assert.Equal(t, TrendUp, up.Direction)
	assert.Equal(t, float64(10), up.Delta)

	flat := CompareTrend(5, 5)
	assert.Equal(t, TrendFlat, flat.Direction)
	assert.Equal(t, float64(0), flat.Delta)

	down := CompareTrend(3, 8)
	assert.Equal(t, TrendDown, down.Direction)
	assert.Equal(t, float64(-5), down.Delta)
}

func TestCompareTrendMissingPreviousKey(t *testing.T) {
	previous := map[string]float64{"class-a": 50}

	// class-b has no previous entry; the zero value stands in for it.
	trend := CompareTrend(80, previous["class-b"])
	assert.Equal(t, TrendUp, trend.Direction)
	assert.Equal(t, float64(80), trend.Delta)
}
