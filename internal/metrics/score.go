package metrics

import (
	"math"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
)

// ScoreOptions selects how the ratio metrics are computed.
type ScoreOptions struct {
	BypassConfidence bool // compute Sharpe even below the minimum sample size
	Weighted         bool // apply recency-decay weighting
}

// CompositeInputs are the metrics the composite score aggregates.
type CompositeInputs struct {
	Calmar                float64
	Sharpe                float64
	Omega                 float64
	Sortino               float64
	StatisticalConfidence float64
	MaxDrawdown           float64
	RiskProfilePenalty    float64
}

// Composite weights the five metrics equally, applies the risk-profile
// penalty and floors at zero. A drawdown above DrawdownCutoff forces 0.
func Composite(in CompositeInputs, cfg config.Scoring) float64 {
	if in.MaxDrawdown > cfg.DrawdownCutoff {
		return 0
	}

	w := cfg.MetricWeight
	score := w*in.Calmar + w*in.Sharpe + w*in.Omega + w*in.Sortino + w*in.StatisticalConfidence
	score *= 1 - in.RiskProfilePenalty
	return math.Max(0, score)
}

// ComputeScores evaluates every metric for one portfolio.
func ComputeScores(returns []float64, positions []domain.Position, opts ScoreOptions, cfg config.Engine) domain.ScoreBundle {
	drawdown := MaxDrawdown(returns, cfg.Drawdown.Form)
	sharpe := ComputeSharpe(returns, opts.BypassConfidence, opts.Weighted, cfg)

	in := CompositeInputs{
		Calmar:                Calmar(returns, opts.Weighted, drawdown, cfg),
		Sharpe:                sharpe.Resolve(cfg.Ratios.SharpeNoConfidenceValue),
		Omega:                 Omega(returns, cfg),
		Sortino:               Sortino(returns, opts.Weighted, cfg),
		StatisticalConfidence: StatisticalConfidence(returns, cfg),
		MaxDrawdown:           drawdown,
		RiskProfilePenalty:    RiskProfilePenalty(positions, cfg.Penalty),
	}

	return domain.ScoreBundle{
		Calmar:                in.Calmar,
		Sharpe:                in.Sharpe,
		SharpeConfident:       sharpe.IsConfident(),
		Omega:                 in.Omega,
		Sortino:               in.Sortino,
		StatisticalConfidence: in.StatisticalConfidence,
		MaxDrawdown:           in.MaxDrawdown,
		RiskProfilePenalty:    in.RiskProfilePenalty,
		Score:                 Composite(in, cfg.Scoring),
		DrawdownGated:         in.MaxDrawdown > cfg.Scoring.DrawdownCutoff,
		SampleSize:            len(returns),
	}
}

// InputsFromBundle recovers the composite inputs of a bundle.
func InputsFromBundle(b domain.ScoreBundle) CompositeInputs {
	return CompositeInputs{
		Calmar:                b.Calmar,
		Sharpe:                b.Sharpe,
		Omega:                 b.Omega,
		Sortino:               b.Sortino,
		StatisticalConfidence: b.StatisticalConfidence,
		MaxDrawdown:           b.MaxDrawdown,
		RiskProfilePenalty:    b.RiskProfilePenalty,
	}
}
