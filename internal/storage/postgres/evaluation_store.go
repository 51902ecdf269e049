package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
)

// EvaluationStore implements storage.EvaluationStore using PostgreSQL.
type EvaluationStore struct {
	pool *Pool
}

// NewEvaluationStore creates a new EvaluationStore.
func NewEvaluationStore(pool *Pool) *EvaluationStore {
	return &EvaluationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)

const evaluationColumns = `
	evaluation_id, run_id, miner_hotkey, config_fingerprint,
	bypass_confidence, weighted, truncated_checkpoints, commitment_id,
	calmar, sharpe, sharpe_confident, omega, sortino, statistical_confidence,
	max_drawdown, risk_profile_penalty, score, drawdown_gated, sample_size,
	created_at
`

// Insert adds a new evaluation. Returns ErrDuplicateKey if evaluation_id exists.
func (s *EvaluationStore) Insert(ctx context.Context, r *domain.EvaluationRecord) error {
	if r == nil || r.EvaluationID == "" || r.MinerHotkey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO evaluations (` + evaluationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	b := r.Bundle
	_, err := s.pool.Exec(ctx, query,
		r.EvaluationID,
		r.RunID,
		r.MinerHotkey,
		r.ConfigFingerprint,
		r.BypassConfidence,
		r.Weighted,
		r.TruncatedCheckpoints,
		r.CommitmentID,
		b.Calmar,
		b.Sharpe,
		b.SharpeConfident,
		b.Omega,
		b.Sortino,
		b.StatisticalConfidence,
		b.MaxDrawdown,
		b.RiskProfilePenalty,
		b.Score,
		b.DrawdownGated,
		b.SampleSize,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// GetByID retrieves an evaluation by its ID. Returns ErrNotFound if not exists.
func (s *EvaluationStore) GetByID(ctx context.Context, evaluationID string) (*domain.EvaluationRecord, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE evaluation_id = $1`

	r, err := scanEvaluation(s.pool.QueryRow(ctx, query, evaluationID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get evaluation by id: %w", err)
	}
	return r, nil
}

// GetByMiner retrieves all evaluations of a miner, ordered by created_at ASC.
func (s *EvaluationStore) GetByMiner(ctx context.Context, minerHotkey string) ([]*domain.EvaluationRecord, error) {
	query := `
		SELECT ` + evaluationColumns + `
		FROM evaluations
		WHERE miner_hotkey = $1
		ORDER BY created_at ASC, evaluation_id ASC
	`

	rows, err := s.pool.Query(ctx, query, minerHotkey)
	if err != nil {
		return nil, fmt.Errorf("get evaluations by miner: %w", err)
	}
	defer rows.Close()

	var result []*domain.EvaluationRecord
	for rows.Next() {
		r, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return result, nil
}

// scanEvaluation scans a single row into an EvaluationRecord.
func scanEvaluation(row pgx.Row) (*domain.EvaluationRecord, error) {
	var r domain.EvaluationRecord
	b := &r.Bundle

	err := row.Scan(
		&r.EvaluationID,
		&r.RunID,
		&r.MinerHotkey,
		&r.ConfigFingerprint,
		&r.BypassConfidence,
		&r.Weighted,
		&r.TruncatedCheckpoints,
		&r.CommitmentID,
		&b.Calmar,
		&b.Sharpe,
		&b.SharpeConfident,
		&b.Omega,
		&b.Sortino,
		&b.StatisticalConfidence,
		&b.MaxDrawdown,
		&b.RiskProfilePenalty,
		&b.Score,
		&b.DrawdownGated,
		&b.SampleSize,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
