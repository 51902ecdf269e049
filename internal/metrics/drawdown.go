package metrics

import (
	"math"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/stats"
)

// MaxDrawdown dispatches on the configured cumulative-return form.
func MaxDrawdown(returns []float64, form string) float64 {
	if form == config.DrawdownSimple {
		return MaxDrawdownSimple(returns)
	}
	return MaxDrawdownLog(returns)
}

// MaxDrawdownLog treats returns as log-returns: the cumulative sum is
// compared with its running maximum and drawdown_i = 1 - exp(cum_i - max_i).
// Empty input yields 0.
func MaxDrawdownLog(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cum := stats.CumSum(returns)
	peak := cum[0]
	worst := 0.0
	for _, c := range cum {
		if c > peak {
			peak = c
		}
		if dd := 1 - math.Exp(c-peak); dd > worst {
			worst = dd
		}
	}
	return worst
}

// MaxDrawdownSimple treats returns as simple returns compounded from an
// initial value of 1.0: drawdown_i = (max_i - cum_i) / max_i.
// Empty input yields 0.
func MaxDrawdownSimple(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cum := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if dd := (peak - cum) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}
