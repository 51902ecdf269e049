// Package stats implements the recency-weighted statistics shared by every
// ratio metric.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"proof-of-portfolio/internal/config"
)

// WeightingDistribution returns n weights decaying exponentially from
// DecayMax toward DecayMin, reversed so that the last (most recent)
// observation carries DecayMax.
func WeightingDistribution(n int, w config.Weighting) []float64 {
	if n < 1 {
		return []float64{}
	}
	out := make([]float64, n)
	span := w.DecayMax - w.DecayMin
	for i := 0; i < n; i++ {
		out[n-1-i] = w.DecayMin + span*math.Exp(-w.DecayRate*float64(i))
	}
	return out
}

// Average returns the mean of x, weighted by the decay distribution when
// weighted is set. A non-empty indices restricts the sample to those
// positions; out-of-range indices are ignored. Empty input yields 0.
func Average(x []float64, weighted bool, indices []int, w config.Weighting) float64 {
	if len(x) == 0 {
		return 0
	}

	weights := WeightingDistribution(len(x), w)
	if len(indices) != 0 {
		x, weights = subset(x, weights, indices)
		if len(x) == 0 {
			return 0
		}
	}

	if !weighted {
		return stat.Mean(x, nil)
	}
	return stat.Mean(x, weights)
}

// Variance returns the (weighted) mean squared deviation from the
// (weighted) mean. ddof only sets the minimum window: a window smaller than
// ddof+1 is Undefined. The window is len(indices) when indices is non-nil,
// otherwise len(x). Empty input yields Value(0).
func Variance(x []float64, ddof int, weighted bool, indices []int, w config.Weighting) Estimate {
	if len(x) == 0 {
		return Value(0)
	}

	window := len(x)
	if indices != nil {
		window = len(indices)
	}
	if window < ddof+1 {
		return Undefined()
	}

	mean := Average(x, weighted, indices, w)
	sq := make([]float64, len(x))
	for i, v := range x {
		d := v - mean
		sq[i] = d * d
	}
	return Value(Average(sq, weighted, indices, w))
}

// AnnVolatility annualises the daily variance: sqrt(daysInYear * variance).
// A nil indices means every observation.
func AnnVolatility(x []float64, ddof int, weighted bool, indices []int, w config.Weighting, daysInYear int) Estimate {
	if indices == nil {
		indices = make([]int, len(x))
		for i := range indices {
			indices[i] = i
		}
	}
	if len(indices) < ddof+1 {
		return Undefined()
	}

	v, ok := Variance(x, ddof, weighted, indices, w).Get()
	if !ok {
		return Undefined()
	}
	return Value(math.Sqrt(v * float64(daysInYear)))
}

// SampleStdDev is the unweighted standard deviation with an n-1 divisor.
// Fewer than two observations yield 0.
func SampleStdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil)
}

// Sum returns the sum of x.
func Sum(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Sum(x)
}

// CumSum returns the running sum of x.
func CumSum(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	return floats.CumSum(out, x)
}

// NegativeIndices returns the positions of strictly negative values.
func NegativeIndices(x []float64) []int {
	var idx []int
	for i, v := range x {
		if v < 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func subset(x, weights []float64, indices []int) ([]float64, []float64) {
	xs := make([]float64, 0, len(indices))
	ws := make([]float64, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(x) {
			continue
		}
		xs = append(xs, x[i])
		ws = append(ws, weights[i])
	}
	return xs, ws
}
