package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
)

// CommitmentStore implements storage.CommitmentStore using PostgreSQL.
// Authentication paths are stored as JSONB.
type CommitmentStore struct {
	pool *Pool
}

// NewCommitmentStore creates a new CommitmentStore.
func NewCommitmentStore(pool *Pool) *CommitmentStore {
	return &CommitmentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CommitmentStore = (*CommitmentStore)(nil)

const commitmentColumns = `
	commitment_id, miner_hotkey, root, actual_len, capacity, depth,
	truncated_pairs, hash_func, path_elements, path_indices, created_at
`

// Insert adds a new commitment. Returns ErrDuplicateKey if commitment_id exists.
func (s *CommitmentStore) Insert(ctx context.Context, r *domain.CommitmentRecord) error {
	if r == nil || r.CommitmentID == "" || r.Root == "" || len(r.PathElements) != len(r.PathIndices) {
		return storage.ErrInvalidInput
	}

	elements, err := json.Marshal(r.PathElements)
	if err != nil {
		return fmt.Errorf("marshal path elements: %w", err)
	}
	indices, err := json.Marshal(r.PathIndices)
	if err != nil {
		return fmt.Errorf("marshal path indices: %w", err)
	}

	query := `
		INSERT INTO signal_commitments (` + commitmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.pool.Exec(ctx, query,
		r.CommitmentID,
		r.MinerHotkey,
		r.Root,
		r.ActualLen,
		r.Capacity,
		r.Depth,
		r.TruncatedPairs,
		r.HashFunc,
		elements,
		indices,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert commitment: %w", err)
	}
	return nil
}

// GetByID retrieves a commitment by its ID. Returns ErrNotFound if not exists.
func (s *CommitmentStore) GetByID(ctx context.Context, commitmentID string) (*domain.CommitmentRecord, error) {
	query := `SELECT ` + commitmentColumns + ` FROM signal_commitments WHERE commitment_id = $1`

	r, err := scanCommitment(s.pool.QueryRow(ctx, query, commitmentID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get commitment by id: %w", err)
	}
	return r, nil
}

// GetByRoot retrieves all commitments sharing a Merkle root.
func (s *CommitmentStore) GetByRoot(ctx context.Context, root string) ([]*domain.CommitmentRecord, error) {
	query := `
		SELECT ` + commitmentColumns + `
		FROM signal_commitments
		WHERE root = $1
		ORDER BY created_at ASC, commitment_id ASC
	`

	rows, err := s.pool.Query(ctx, query, root)
	if err != nil {
		return nil, fmt.Errorf("get commitments by root: %w", err)
	}
	defer rows.Close()

	var result []*domain.CommitmentRecord
	for rows.Next() {
		r, err := scanCommitment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commitments: %w", err)
	}
	return result, nil
}

// scanCommitment scans a single row into a CommitmentRecord.
func scanCommitment(row pgx.Row) (*domain.CommitmentRecord, error) {
	var r domain.CommitmentRecord
	var elements, indices []byte

	err := row.Scan(
		&r.CommitmentID,
		&r.MinerHotkey,
		&r.Root,
		&r.ActualLen,
		&r.Capacity,
		&r.Depth,
		&r.TruncatedPairs,
		&r.HashFunc,
		&elements,
		&indices,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(elements, &r.PathElements); err != nil {
		return nil, fmt.Errorf("unmarshal path elements: %w", err)
	}
	if err := json.Unmarshal(indices, &r.PathIndices); err != nil {
		return nil, fmt.Errorf("unmarshal path indices: %w", err)
	}
	return &r, nil
}
