// Package stats provides the small statistical helpers shared by the profilers
// and the suggestion engine.
package stats

import (
	"math"

	"github.com/shopspring/decimal"
)

// Average returns the arithmetic mean of xs, or 0 for an empty slice.
func Average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StandardDeviation returns the population standard deviation of xs
// (no Bessel correction), or 0 for an empty slice.
func StandardDeviation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := Average(xs)
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// Clamp limits v to the closed interval [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SumMoney adds currency amounts without accumulating float drift and rounds
// the total to cents.
func SumMoney(xs []float64) float64 {
	total := decimal.Zero
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(x))
	}
	return total.Round(2).InexactFloat64()
}
