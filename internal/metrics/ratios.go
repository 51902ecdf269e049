package metrics

import (
	"math"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/stats"
)

// Calmar divides the annualised excess return by the maximum drawdown,
// floored at CalmarDrawdownFloor.
func Calmar(returns []float64, weighted bool, maxDrawdown float64, cfg config.Engine) float64 {
	annualised := AnnExcessReturn(returns, weighted, cfg)
	return annualised / math.Max(maxDrawdown, cfg.Ratios.CalmarDrawdownFloor)
}

// Omega divides the sum of positive returns by the absolute sum of negative
// returns, floored at OmegaLossFloor.
func Omega(returns []float64, cfg config.Engine) float64 {
	var gains, losses float64
	for _, r := range returns {
		if r > 0 {
			gains += r
		} else {
			losses += r
		}
	}
	return gains / math.Max(math.Abs(losses), cfg.Ratios.OmegaLossFloor)
}

// Sortino divides the annualised excess return by the annualised deviation
// of the negative returns, floored at SortinoDownsideFloor. Without a
// defined downside deviation (fewer than two losing days) the floor is used.
func Sortino(returns []float64, weighted bool, cfg config.Engine) float64 {
	annualised := AnnExcessReturn(returns, weighted, cfg)
	floor := cfg.Ratios.SortinoDownsideFloor

	negatives := stats.NegativeIndices(returns)
	if len(negatives) == 0 {
		return annualised / floor
	}

	downside, ok := stats.AnnVolatility(returns, 1, weighted, negatives, cfg.Weighting, cfg.Ratios.DaysInYear).Get()
	if !ok {
		return annualised / floor
	}
	return annualised / math.Max(downside, floor)
}

// StatisticalConfidence maps the t-statistic of the mean daily return to
// [0, 1]: min(1, |t| / TStatisticDivisor). Fewer than two returns or zero
// deviation yield 0.
func StatisticalConfidence(returns []float64, cfg config.Engine) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}

	sd := stats.SampleStdDev(returns)
	if sd == 0 {
		return 0
	}

	t := math.Abs(stats.Average(returns, false, nil, cfg.Weighting) / (sd / math.Sqrt(float64(n))))
	return math.Min(1, t/cfg.Ratios.TStatisticDivisor)
}
