package benford

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// chiSquarePValue converts a chi-square statistic over the nine digit bins
// into a right-tail probability using the chi-squared distribution with
// DigitCount-1 degrees of freedom. Small values flag columns unlikely to
// follow Benford's Law by chance.
func chiSquarePValue(chiSquare float64) float64 {
	if chiSquare <= 0 {
		return 1
	}
	dist := distuv.ChiSquared{K: float64(DigitCount - 1)}
	p := 1 - dist.CDF(chiSquare)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// describe computes mean, median, min, and max over the parsed numeric
// values of a column. The caller guarantees a non-empty slice; on the
// library's error path the affected statistic stays zero.
func describe(values []float64) (mean, median, minValue, maxValue float64) {
	if len(values) == 0 {
		return
	}
	if v, err := stats.Mean(values); err == nil {
		mean = v
	}
	if v, err := stats.Median(values); err == nil {
		median = v
	}
	if v, err := stats.Min(values); err == nil {
		minValue = v
	}
	if v, err := stats.Max(values); err == nil {
		maxValue = v
	}
	return
}
