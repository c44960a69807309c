package analytics

// Number constrains the numeric types the rollup helpers operate on.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Percentage returns 100*numerator/denominator, or 0 when the denominator
// is zero. It never divides by zero and never returns NaN or Inf. Rounding
// is left to the presentation layer.
func Percentage[T Number](numerator, denominator T) float64 {
	if denominator == 0 {
		return 0
	}
	return 100 * float64(numerator) / float64(denominator)
}

// Average returns the arithmetic mean of values, or 0 for an empty slice.
func Average[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	return float64(Sum(values)) / float64(len(values))
}

// Sum returns the arithmetic sum of values, or 0 for an empty slice.
func Sum[T Number](values []T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}
