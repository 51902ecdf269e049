package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Portfolio Evaluation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	}
	if r.ConfigFingerprint != "" {
		sb.WriteString(fmt.Sprintf("Config: %s\n\n", r.ConfigFingerprint))
	}

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Miners | %d |\n", s.TotalMiners))
	sb.WriteString(fmt.Sprintf("| Scored (> 0) | %d |\n", s.ScoredMiners))
	sb.WriteString(fmt.Sprintf("| Drawdown Gated | %d |\n", s.DrawdownGated))
	sb.WriteString(fmt.Sprintf("| Sharpe Unconfident | %d |\n", s.SharpeUnconfident))
	sb.WriteString(fmt.Sprintf("| No Signals | %d |\n", s.NoSignals))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", s.Failed))
	sb.WriteString(fmt.Sprintf("| Mean Score | %.6f |\n", s.MeanScore))
	sb.WriteString(fmt.Sprintf("| Max Score | %.6f |\n", s.MaxScore))
	sb.WriteString("\n")

	// Scores
	sb.WriteString("## Scores\n\n")
	if len(r.Miners) > 0 {
		sb.WriteString("| Miner | Days | Calmar | Sharpe | Omega | Sortino | Confidence | MaxDD | Penalty | Score | Flags |\n")
		sb.WriteString("|-------|------|--------|--------|-------|---------|------------|-------|---------|-------|-------|\n")
		for _, m := range r.Miners {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.6f | %s |\n",
				m.MinerHotkey, m.SampleSize,
				m.Calmar, m.Sharpe, m.Omega, m.Sortino, m.StatisticalConfidence,
				m.MaxDrawdown, m.RiskProfilePenalty, m.Score, flags(m)))
		}
	} else {
		sb.WriteString("No evaluations available.\n")
	}
	sb.WriteString("\n")

	// Penalties
	sb.WriteString("## Risk-Profile Penalties\n\n")
	if len(r.Penalties) > 0 {
		sb.WriteString("| Miner | Position | Pair | Entry Lev | Max Lev | Penalty | Reasons |\n")
		sb.WriteString("|-------|----------|------|-----------|---------|---------|---------|\n")
		for _, p := range r.Penalties {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %.4f | %.4f | %s |\n",
				p.MinerHotkey, p.PositionUUID, p.TradePair,
				p.EntryLeverage, p.MaxLeverage, p.Penalty, strings.Join(p.Reasons, ", ")))
		}
	} else {
		sb.WriteString("No penalised positions.\n")
	}
	sb.WriteString("\n")

	// Commitments
	sb.WriteString("## Signal Commitments\n\n")
	if len(r.Commitments) > 0 {
		sb.WriteString("| Miner | Root | Hash | Signals | Capacity | Truncated Pairs |\n")
		sb.WriteString("|-------|------|------|---------|----------|-----------------|\n")
		for _, c := range r.Commitments {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %d |\n",
				c.MinerHotkey, c.Root, c.HashFunc, c.ActualLen, c.Capacity, c.TruncatedPairs))
		}
	} else {
		sb.WriteString("No signal commitments.\n")
	}
	sb.WriteString("\n")

	// Failures
	if len(r.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.MinerHotkey, f.Error))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func flags(m MinerRow) string {
	var out []string
	if m.DrawdownGated {
		out = append(out, "GATED")
	}
	if !m.SharpeConfident {
		out = append(out, "LOW_SAMPLE")
	}
	if m.TruncatedCheckpoints > 0 {
		out = append(out, "TRUNCATED")
	}
	return strings.Join(out, " ")
}
