// Package storage defines the append-only record stores of the engine.
// Evaluations and commitments are keyed by content-derived ids, so inserting
// the same record twice yields ErrDuplicateKey rather than a second row.
package storage

import (
	"context"
	"errors"

	"proof-of-portfolio/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidInput = errors.New("invalid record")
)

// EvaluationStore provides access to evaluations storage.
type EvaluationStore interface {
	// Insert adds a new evaluation. Returns ErrDuplicateKey if evaluation_id exists.
	Insert(ctx context.Context, r *domain.EvaluationRecord) error

	// GetByID retrieves an evaluation by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, evaluationID string) (*domain.EvaluationRecord, error)

	// GetByMiner retrieves all evaluations of a miner, ordered by created_at ASC.
	GetByMiner(ctx context.Context, minerHotkey string) ([]*domain.EvaluationRecord, error)
}

// CommitmentStore provides access to signal_commitments storage.
type CommitmentStore interface {
	// Insert adds a new commitment. Returns ErrDuplicateKey if commitment_id exists.
	Insert(ctx context.Context, r *domain.CommitmentRecord) error

	// GetByID retrieves a commitment by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, commitmentID string) (*domain.CommitmentRecord, error)

	// GetByRoot retrieves all commitments sharing a Merkle root.
	GetByRoot(ctx context.Context, root string) ([]*domain.CommitmentRecord, error)
}

// DailyReturnStore provides access to the daily_returns time series.
type DailyReturnStore interface {
	// InsertBulk adds multiple points atomically. Fails entire batch on any duplicate
	// (miner_hotkey, run_id, date).
	InsertBulk(ctx context.Context, records []*domain.DailyReturnRecord) error

	// GetByMiner retrieves every point of a miner, ordered by run_id, date ASC.
	GetByMiner(ctx context.Context, minerHotkey string) ([]*domain.DailyReturnRecord, error)

	// GetByRun retrieves the series of one miner in one run, ordered by date ASC.
	GetByRun(ctx context.Context, minerHotkey, runID string) ([]*domain.DailyReturnRecord, error)
}
