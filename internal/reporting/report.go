package reporting

import "time"

// Report is the evaluation report of one run or of stored evaluations.
type Report struct {
	// Metadata
	GeneratedAt       time.Time
	RunID             string
	ConfigFingerprint string

	Summary Summary

	// Miner scores, sorted by score desc then hotkey
	Miners []MinerRow

	// Penalised positions, sorted by hotkey then position uuid
	Penalties []PenaltyRow

	// Signal commitments, sorted by hotkey
	Commitments []CommitmentRow

	// Miners that failed evaluation, sorted by hotkey
	Failures []FailureRow
}

// Summary contains run-level counts.
type Summary struct {
	TotalMiners       int
	ScoredMiners      int // score > 0
	DrawdownGated     int
	SharpeUnconfident int
	NoSignals         int
	Failed            int
	MeanScore         float64
	MaxScore          float64
}

// MinerRow represents one row in the score table.
type MinerRow struct {
	MinerHotkey           string
	EvaluationID          string
	SampleSize            int
	Calmar                float64
	Sharpe                float64
	SharpeConfident       bool
	Omega                 float64
	Sortino               float64
	StatisticalConfidence float64
	MaxDrawdown           float64
	RiskProfilePenalty    float64
	Score                 float64
	DrawdownGated         bool
	TruncatedCheckpoints  int
}

// PenaltyRow lists one penalised position.
type PenaltyRow struct {
	MinerHotkey   string
	PositionUUID  string
	TradePair     string
	EntryLeverage float64
	MaxLeverage   float64
	Penalty       float64
	Reasons       []string
}

// CommitmentRow summarises one signal commitment.
type CommitmentRow struct {
	MinerHotkey    string
	CommitmentID   string
	Root           string
	HashFunc       string
	ActualLen      int
	Capacity       int
	TruncatedPairs int
}

// FailureRow lists a miner whose evaluation failed.
type FailureRow struct {
	MinerHotkey string
	Error       string
}
