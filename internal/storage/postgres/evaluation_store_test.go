package postgres_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
	pgstore "proof-of-portfolio/internal/storage/postgres"
)

func sampleEvaluation(id, miner string, createdAt int64) *domain.EvaluationRecord {
	return &domain.EvaluationRecord{
		EvaluationID:      id,
		RunID:             "01J0000000000000000000RUN1",
		MinerHotkey:       miner,
		ConfigFingerprint: "fingerprint",
		Weighted:          true,
		CommitmentID:      "commitment-1",
		Bundle: domain.ScoreBundle{
			Calmar:                2.5,
			Sharpe:                -100,
			Omega:                 1.8,
			Sortino:               math.Inf(1),
			StatisticalConfidence: 0.7,
			MaxDrawdown:           0.04,
			RiskProfilePenalty:    0.1,
			Score:                 0.31,
			SampleSize:            42,
		},
		CreatedAt: createdAt,
	}
}

func TestEvaluationStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewEvaluationStore(pool)
	ctx := context.Background()

	rec := sampleEvaluation("eval-001", "miner-a", 1700000000000)

	err := store.Insert(ctx, rec)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "eval-001")
	require.NoError(t, err)

	assert.Equal(t, rec, retrieved)
	assert.True(t, math.IsInf(retrieved.Bundle.Sortino, 1))
}

func TestEvaluationStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewEvaluationStore(pool)
	ctx := context.Background()

	rec := sampleEvaluation("eval-dup", "miner-a", 1700000000000)

	// First insert should succeed
	require.NoError(t, store.Insert(ctx, rec))

	// Second insert should return ErrDuplicateKey
	err := store.Insert(ctx, rec)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestEvaluationStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewEvaluationStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEvaluationStore_GetByMiner(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewEvaluationStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleEvaluation("eval-2", "miner-a", 2000)))
	require.NoError(t, store.Insert(ctx, sampleEvaluation("eval-1", "miner-a", 1000)))
	require.NoError(t, store.Insert(ctx, sampleEvaluation("eval-3", "miner-b", 1500)))

	got, err := store.GetByMiner(ctx, "miner-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "eval-1", got[0].EvaluationID)
	assert.Equal(t, "eval-2", got[1].EvaluationID)
}
