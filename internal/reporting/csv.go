package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the score table as CSV string.
func RenderCSV(rows []MinerRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("miner_hotkey,evaluation_id,sample_size,calmar,sharpe,sharpe_confident,")
	sb.WriteString("omega,sortino,statistical_confidence,max_drawdown,risk_profile_penalty,")
	sb.WriteString("score,drawdown_gated,truncated_checkpoints\n")

	// Rows
	for _, m := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.6f,%.6f,%t,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%t,%d\n",
			m.MinerHotkey,
			m.EvaluationID,
			m.SampleSize,
			m.Calmar,
			m.Sharpe,
			m.SharpeConfident,
			m.Omega,
			m.Sortino,
			m.StatisticalConfidence,
			m.MaxDrawdown,
			m.RiskProfilePenalty,
			m.Score,
			m.DrawdownGated,
			m.TruncatedCheckpoints,
		))
	}

	return sb.String()
}
