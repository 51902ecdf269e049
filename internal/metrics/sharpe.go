package metrics

import (
	"math"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/stats"
)

// Sharpe is either a confident ratio or NoConfidence when the sample is
// too small to be meaningful.
type Sharpe struct {
	ratio     float64
	confident bool
}

// Confident wraps a computed Sharpe ratio.
func Confident(ratio float64) Sharpe {
	return Sharpe{ratio: ratio, confident: true}
}

// NoConfidence marks a sample below the minimum size.
func NoConfidence() Sharpe {
	return Sharpe{}
}

// Get returns the ratio and whether it was computed.
func (s Sharpe) Get() (float64, bool) {
	return s.ratio, s.confident
}

// IsConfident reports whether the ratio was computed.
func (s Sharpe) IsConfident() bool {
	return s.confident
}

// Resolve returns the ratio, or noConfidence when none was computed.
func (s Sharpe) Resolve(noConfidence float64) float64 {
	if !s.confident {
		return noConfidence
	}
	return s.ratio
}

// AnnExcessReturn annualises the (weighted) mean daily log-return and
// subtracts the annual risk-free rate. Empty input yields 0.
func AnnExcessReturn(returns []float64, weighted bool, cfg config.Engine) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := stats.Average(returns, weighted, nil, cfg.Weighting)
	return mean*float64(cfg.Ratios.DaysInYear) - cfg.Ratios.AnnualRiskFreeRate
}

// ComputeSharpe returns NoConfidence for samples smaller than
// StatisticalConfidenceMinimumN unless bypass is set. Otherwise the excess
// return is divided by the annualised volatility floored at
// SharpeStddevMinimum; an undefined volatility counts as +Inf.
func ComputeSharpe(returns []float64, bypass, weighted bool, cfg config.Engine) Sharpe {
	if len(returns) < cfg.Ratios.StatisticalConfidenceMinimumN && !bypass {
		return NoConfidence()
	}

	excess := AnnExcessReturn(returns, weighted, cfg)
	vol := stats.AnnVolatility(returns, 1, weighted, nil, cfg.Weighting, cfg.Ratios.DaysInYear).Float64()
	return Confident(excess / math.Max(vol, cfg.Ratios.SharpeStddevMinimum))
}
