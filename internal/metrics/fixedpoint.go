package metrics

import (
	"math"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/stats"
)

// fixedInf stands in for an unbounded denominator in integer arithmetic.
const fixedInf = int64(1) << 53

// Quantities are the raw inputs of the scoring circuit, before ratios.
type Quantities struct {
	AnnualizedReturn     float64
	MaxDrawdown          float64
	AnnualizedVolatility float64 // +Inf when undefined
	PositiveSum          float64
	NegativeSum          float64 // absolute value
	DownsideDeviation    float64 // floor value when undefined
	TStatistic           float64 // absolute value
	RiskProfilePenalty   float64
	SharpeConfident      bool // false below the minimum sample size without bypass
}

// ComputeQuantities derives the circuit inputs from the daily returns and
// positions with the same rules ComputeScores applies.
func ComputeQuantities(returns []float64, positions []domain.Position, opts ScoreOptions, cfg config.Engine) Quantities {
	q := Quantities{
		AnnualizedReturn:     AnnExcessReturn(returns, opts.Weighted, cfg),
		MaxDrawdown:          MaxDrawdown(returns, cfg.Drawdown.Form),
		AnnualizedVolatility: stats.AnnVolatility(returns, 1, opts.Weighted, nil, cfg.Weighting, cfg.Ratios.DaysInYear).Float64(),
		DownsideDeviation:    cfg.Ratios.SortinoDownsideFloor,
		RiskProfilePenalty:   RiskProfilePenalty(positions, cfg.Penalty),
		SharpeConfident:      ComputeSharpe(returns, opts.BypassConfidence, opts.Weighted, cfg).IsConfident(),
	}

	for _, r := range returns {
		if r > 0 {
			q.PositiveSum += r
		} else {
			q.NegativeSum += r
		}
	}
	q.NegativeSum = math.Abs(q.NegativeSum)

	if neg := stats.NegativeIndices(returns); len(neg) > 0 {
		if d, ok := stats.AnnVolatility(returns, 1, opts.Weighted, neg, cfg.Weighting, cfg.Ratios.DaysInYear).Get(); ok {
			q.DownsideDeviation = d
		}
	}

	if n := len(returns); n >= 2 {
		if sd := stats.SampleStdDev(returns); sd != 0 {
			q.TStatistic = math.Abs(stats.Average(returns, false, nil, cfg.Weighting) / (sd / math.Sqrt(float64(n))))
		}
	}
	return q
}

// FixedPoint is the integer rendition of the score used inside the circuit.
// Every value is a fixed-point integer with Scale units per 1.0, and every
// division floors.
type FixedPoint struct {
	Scale              int64
	SharpeNoConfidence int64
	MinDrawdown        int64
	MinVolatility      int64
	MinDownside        int64
	MinLoss            int64
	DrawdownCutoff     int64
	Weight             int64
	TStatCap           int64
}

// FixedScores holds the fixed-point ratios and score.
type FixedScores struct {
	Calmar                int64
	Sharpe                int64
	Omega                 int64
	Sortino               int64
	StatisticalConfidence int64
	MaxDrawdown           int64
	RiskProfilePenalty    int64
	Score                 int64
}

// NewFixedPoint derives the integer constants from the engine config.
func NewFixedPoint(cfg config.Engine) FixedPoint {
	s := cfg.FixedPoint.Scale
	return FixedPoint{
		Scale:              s,
		SharpeNoConfidence: toFixed(cfg.Ratios.SharpeNoConfidenceValue, s),
		MinDrawdown:        toFixed(cfg.Ratios.CalmarDrawdownFloor, s),
		MinVolatility:      toFixed(cfg.Ratios.SharpeStddevMinimum, s),
		MinDownside:        toFixed(cfg.Ratios.SortinoDownsideFloor, s),
		MinLoss:            toFixed(cfg.Ratios.OmegaLossFloor, s),
		DrawdownCutoff:     toFixed(cfg.Scoring.DrawdownCutoff, s),
		Weight:             toFixed(cfg.Scoring.MetricWeight, s),
		TStatCap:           toFixed(cfg.Ratios.TStatisticDivisor, s),
	}
}

// ToFixed truncates v*Scale toward zero. Non-finite values saturate.
func (f FixedPoint) ToFixed(v float64) int64 {
	return toFixed(v, f.Scale)
}

// ToFloat converts a fixed-point value back to float64.
func (f FixedPoint) ToFloat(v int64) float64 {
	return float64(v) / float64(f.Scale)
}

// ratio computes (num*Scale) // max(den, min).
func (f FixedPoint) ratio(num, den, min int64) int64 {
	if den < min {
		den = min
	}
	return floorDiv(num*f.Scale, den)
}

// Confidence maps a fixed-point t-statistic to [0, Scale].
func (f FixedPoint) Confidence(t int64) int64 {
	if t > f.TStatCap {
		return f.Scale
	}
	return floorDiv(t*f.Scale, f.TStatCap)
}

// Score evaluates the fixed-point ratios and composite score.
func (f FixedPoint) Score(q Quantities) FixedScores {
	ret := f.ToFixed(q.AnnualizedReturn)
	out := FixedScores{
		MaxDrawdown:        f.ToFixed(q.MaxDrawdown),
		RiskProfilePenalty: f.ToFixed(q.RiskProfilePenalty),
	}
	out.Calmar = f.ratio(ret, out.MaxDrawdown, f.MinDrawdown)
	out.Sharpe = f.SharpeNoConfidence
	if q.SharpeConfident {
		out.Sharpe = f.ratio(ret, f.ToFixed(q.AnnualizedVolatility), f.MinVolatility)
	}
	out.Omega = f.ratio(f.ToFixed(q.PositiveSum), f.ToFixed(q.NegativeSum), f.MinLoss)
	out.Sortino = f.ratio(ret, f.ToFixed(q.DownsideDeviation), f.MinDownside)
	out.StatisticalConfidence = f.Confidence(f.ToFixed(q.TStatistic))
	out.Score = f.Composite(out)
	return out
}

// Composite weights each ratio, applies the penalty and floors at zero.
// A drawdown above the cutoff yields 0.
func (f FixedPoint) Composite(s FixedScores) int64 {
	if s.MaxDrawdown > f.DrawdownCutoff {
		return 0
	}
	score := floorDiv(f.Weight*s.Calmar, f.Scale) +
		floorDiv(f.Weight*s.Sharpe, f.Scale) +
		floorDiv(f.Weight*s.Omega, f.Scale) +
		floorDiv(f.Weight*s.Sortino, f.Scale) +
		floorDiv(f.Weight*s.StatisticalConfidence, f.Scale)
	score = floorDiv(score*(f.Scale-s.RiskProfilePenalty), f.Scale)
	// same zero floor as the float Composite
	if score < 0 {
		return 0
	}
	return score
}

func toFixed(v float64, scale int64) int64 {
	p := math.Trunc(v * float64(scale))
	switch {
	case math.IsNaN(p):
		return 0
	case p >= float64(fixedInf):
		return fixedInf
	case p <= -float64(fixedInf):
		return -fixedInf
	}
	return int64(p)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
