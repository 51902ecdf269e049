package clickhouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
	chstore "proof-of-portfolio/internal/storage/clickhouse"
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestDailyReturnStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewDailyReturnStore(conn)
	ctx := context.Background()

	records := []*domain.DailyReturnRecord{
		{MinerHotkey: "miner-a", RunID: "run-1", Date: day(1), Value: -0.004},
		{MinerHotkey: "miner-a", RunID: "run-1", Date: day(0), Value: 0.012},
		{MinerHotkey: "miner-a", RunID: "run-2", Date: day(0), Value: 0.003},
		{MinerHotkey: "miner-b", RunID: "run-1", Date: day(0), Value: 0.02},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	run, err := store.GetByRun(ctx, "miner-a", "run-1")
	require.NoError(t, err)
	require.Len(t, run, 2)
	assert.True(t, run[0].Date.Equal(day(0)))
	assert.InDelta(t, 0.012, run[0].Value, 1e-12)
	assert.InDelta(t, -0.004, run[1].Value, 1e-12)

	all, err := store.GetByMiner(ctx, "miner-a")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-2", all[2].RunID)
}

func TestDailyReturnStore_Duplicates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewDailyReturnStore(conn)
	ctx := context.Background()

	p := &domain.DailyReturnRecord{MinerHotkey: "miner-a", RunID: "run-1", Date: day(0), Value: 0.01}
	require.NoError(t, store.InsertBulk(ctx, []*domain.DailyReturnRecord{p}))

	err := store.InsertBulk(ctx, []*domain.DailyReturnRecord{p})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	q := &domain.DailyReturnRecord{MinerHotkey: "miner-a", RunID: "run-2", Date: day(0)}
	err = store.InsertBulk(ctx, []*domain.DailyReturnRecord{q, q})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = store.InsertBulk(ctx, []*domain.DailyReturnRecord{{RunID: "run-3"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
