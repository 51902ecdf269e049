package domain

import "time"

// Checkpoint is one ledger accounting interval produced by the validator's
// performance ledger. Checkpoints are consumed read-only in last_update_ms order.
type Checkpoint struct {
	Gain         float64 `json:"gain"`           // sum of positive P&L (log scale)
	Loss         float64 `json:"loss"`           // sum of negative P&L, non-positive
	LastUpdateMs int64   `json:"last_update_ms"` // interval end (epoch ms)
	AccumMs      int64   `json:"accum_ms"`       // accumulated duration, <= target
}

// StartMs returns the epoch millisecond the interval began.
func (c Checkpoint) StartMs() int64 {
	return c.LastUpdateMs - c.AccumMs
}

// IsFull reports whether the checkpoint covers the whole target duration.
func (c Checkpoint) IsFull(targetDurationMs int64) bool {
	return c.AccumMs == targetDurationMs
}

// PerfLedger is a miner's checkpoint history.
type PerfLedger struct {
	Checkpoints        []Checkpoint `json:"cps"`
	TargetCPDurationMs int64        `json:"target_cp_duration_ms"`
}

// DailyReturn is the summed log-return of one qualifying UTC calendar day.
type DailyReturn struct {
	Date  time.Time // UTC midnight
	Value float64
}

// DailyReturnValues extracts the value column in order.
func DailyReturnValues(returns []DailyReturn) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r.Value
	}
	return out
}
