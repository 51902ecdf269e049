package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"proof-of-portfolio/internal/config"
)

func TestMaxDrawdown_Empty(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdownLog(nil))
	assert.Equal(t, 0.0, MaxDrawdownSimple(nil))
}

func TestMaxDrawdown_NonDecreasingIsZero(t *testing.T) {
	inputs := [][]float64{
		{0, 0, 0},
		{0.01, 0.02, 0, 0.005},
		series(100, func(i int) float64 { return 0.001 * float64(i%3) }),
	}
	for _, r := range inputs {
		assert.Equal(t, 0.0, MaxDrawdownLog(r), "log form %v", r)
		assert.Equal(t, 0.0, MaxDrawdownSimple(r), "simple form %v", r)
	}
}

func TestMaxDrawdownLog(t *testing.T) {
	r := []float64{0.05, -0.02, -0.03, 0.04, -0.01}
	// cumsum 0.05, 0.03, 0.00, 0.04, 0.03; worst gap from the 0.05 peak is -0.05
	assert.InDelta(t, 1-math.Exp(-0.05), MaxDrawdownLog(r), 1e-12)

	// the first observation is its own peak
	assert.Equal(t, 0.0, MaxDrawdownLog([]float64{-0.5}))
}

func TestMaxDrawdownSimple(t *testing.T) {
	r := []float64{0.10, -0.50, 0.20}
	// 1.0 -> 1.1 -> 0.55 -> 0.66; worst (1.1-0.55)/1.1
	assert.InDelta(t, 0.5, MaxDrawdownSimple(r), 1e-12)

	// the 1.0 starting value counts as a peak
	assert.InDelta(t, 0.5, MaxDrawdownSimple([]float64{-0.5}), 1e-12)
}

func TestMaxDrawdown_Dispatch(t *testing.T) {
	r := []float64{0.1, -0.2}
	assert.Equal(t, MaxDrawdownLog(r), MaxDrawdown(r, config.DrawdownLog))
	assert.Equal(t, MaxDrawdownSimple(r), MaxDrawdown(r, config.DrawdownSimple))
}
