package domain

import "time"

// ScoreBundle holds the metrics of one portfolio and the composite score.
// It is a pure function of the daily returns, positions and engine config.
type ScoreBundle struct {
	Calmar                float64
	Sharpe                float64 // resolved; the no-confidence value when SharpeConfident is false
	SharpeConfident       bool
	Omega                 float64
	Sortino               float64
	StatisticalConfidence float64
	MaxDrawdown           float64
	RiskProfilePenalty    float64
	Score                 float64
	DrawdownGated         bool // score forced to 0 by the drawdown cutoff
	SampleSize            int  // number of daily returns
}

// EvaluationRecord is a persisted scoring run for one miner.
// Corresponds to evaluations table.
type EvaluationRecord struct {
	EvaluationID         string // PRIMARY KEY, deterministic hash
	RunID                string // ULID of the batch run
	MinerHotkey          string
	ConfigFingerprint    string // SHA256 of the engine config
	BypassConfidence     bool
	Weighted             bool
	TruncatedCheckpoints int    // checkpoints dropped by capacity
	CommitmentID         string // empty when no signals were committed
	Bundle               ScoreBundle
	CreatedAt            int64 // record creation timestamp (ms)
}

// CommitmentRecord is a persisted signal commitment.
// Corresponds to signal_commitments table.
type CommitmentRecord struct {
	CommitmentID   string // PRIMARY KEY, deterministic hash
	MinerHotkey    string
	Root           string // canonical decimal field element
	ActualLen      int
	Capacity       int
	Depth          int
	TruncatedPairs int
	HashFunc       string     // mimc | sha256
	PathElements   [][]string // [leaf][level] sibling hashes, decimal
	PathIndices    [][]int    // [leaf][level] direction bits
	CreatedAt      int64      // record creation timestamp (ms)
}

// DailyReturnRecord is one point of a miner's daily return series.
// Corresponds to daily_returns table in ClickHouse.
type DailyReturnRecord struct {
	MinerHotkey string
	RunID       string
	Date        time.Time // UTC midnight
	Value       float64
}
