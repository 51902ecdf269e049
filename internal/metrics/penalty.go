package metrics

import (
	"math"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
)

// Penalty reasons
const (
	ReasonLeverageEscalation = "LEVERAGE_ESCALATION_WHILE_LOSING"
	ReasonOverLeverage       = "OVER_LEVERAGE"
	ReasonLeverageJump       = "LEVERAGE_JUMP"
)

// PositionPenalty is the penalty attributed to one position.
type PositionPenalty struct {
	PositionUUID  string
	TradePair     string
	EntryLeverage float64
	MaxLeverage   float64
	Escalations   int     // leverage increases while losing
	LeverageCap   float64 // 0 when the cap rules were not applied
	Penalty       float64
	Reasons       []string
}

// PenaltyBreakdown is the risk-profile penalty with per-position detail.
type PenaltyBreakdown struct {
	Total     float64 // capped sum
	Uncapped  float64
	Positions []PositionPenalty // only positions that contributed
}

// RiskProfilePenalty returns the capped risk-profile penalty.
func RiskProfilePenalty(positions []domain.Position, cfg config.Penalty) float64 {
	return EvaluatePenalty(positions, cfg).Total
}

// EvaluatePenalty applies the penalty rules to every position with at least
// MinOrders orders, in the order the orders are given:
//   - escalation: leverage reached a new maximum while the position's
//     current return was below 1.0 at least EscalationThreshold times
//   - over-leverage: max leverage above OverLeverageFraction of the pair's cap
//   - jump: max leverage above LeverageJumpFactor times the entry leverage
//
// The cap rules only apply when the trade pair tuple is complete. Forex-like
// pairs (JPY quote or USD base) get ForexLeverageCap, everything else
// CryptoLeverageCap.
func EvaluatePenalty(positions []domain.Position, cfg config.Penalty) PenaltyBreakdown {
	var out PenaltyBreakdown

	for _, p := range positions {
		if len(p.Orders) < cfg.MinOrders {
			continue
		}

		pp := PositionPenalty{
			PositionUUID: p.PositionUUID,
			TradePair:    p.TradePair.Name(),
		}

		for i, o := range p.Orders {
			lev := math.Abs(o.LeverageFloat())
			if i == 0 {
				pp.EntryLeverage = lev
				pp.MaxLeverage = lev
				continue
			}
			if lev > pp.MaxLeverage {
				pp.MaxLeverage = lev
				if p.Return() < 1.0 {
					pp.Escalations++
				}
			}
		}

		if pp.Escalations >= cfg.EscalationThreshold {
			out.add(&pp, cfg.EscalationPenalty, ReasonLeverageEscalation)
		}

		if len(p.TradePair) >= cfg.MinTradePairFields {
			pp.LeverageCap = leverageCap(pp.TradePair, cfg)

			if pp.MaxLeverage > cfg.OverLeverageFraction*pp.LeverageCap {
				out.add(&pp, cfg.OverLeveragePenalty, ReasonOverLeverage)
			}
			if pp.EntryLeverage > 0 && pp.MaxLeverage > cfg.LeverageJumpFactor*pp.EntryLeverage {
				out.add(&pp, cfg.LeverageJumpPenalty, ReasonLeverageJump)
			}
		}

		if len(pp.Reasons) > 0 {
			out.Positions = append(out.Positions, pp)
		}
	}

	out.Total = math.Min(cfg.Cap, out.Uncapped)
	return out
}

// add accumulates into the running total in rule order.
func (b *PenaltyBreakdown) add(pp *PositionPenalty, amount float64, reason string) {
	b.Uncapped += amount
	pp.Penalty += amount
	pp.Reasons = append(pp.Reasons, reason)
}

// leverageCap classifies a pair by its name. Names shorter than three
// characters keep the forex cap.
func leverageCap(name string, cfg config.Penalty) float64 {
	if len(name) >= 3 && name[len(name)-3:] != "JPY" && name[:3] != "USD" {
		return cfg.CryptoLeverageCap
	}
	return cfg.ForexLeverageCap
}
