package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestDailyReturnStore_InsertBulkAndGet(t *testing.T) {
	store := NewDailyReturnStore()
	ctx := context.Background()

	recs := []*domain.DailyReturnRecord{
		{MinerHotkey: "miner-a", RunID: "run-2", Date: day(0), Value: 0.03},
		{MinerHotkey: "miner-a", RunID: "run-1", Date: day(1), Value: -0.01},
		{MinerHotkey: "miner-a", RunID: "run-1", Date: day(0), Value: 0.02},
		{MinerHotkey: "miner-b", RunID: "run-1", Date: day(0), Value: 0.05},
	}
	if err := store.InsertBulk(ctx, recs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, _ := store.GetByMiner(ctx, "miner-a")
	if len(all) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(all))
	}
	if all[0].RunID != "run-1" || !all[0].Date.Equal(day(0)) || all[2].RunID != "run-2" {
		t.Errorf("unexpected ordering: %+v %+v %+v", all[0], all[1], all[2])
	}

	run, _ := store.GetByRun(ctx, "miner-a", "run-1")
	if len(run) != 2 || run[0].Value != 0.02 || run[1].Value != -0.01 {
		t.Errorf("unexpected run series: %+v", run)
	}
}

func TestDailyReturnStore_DuplicateKey(t *testing.T) {
	store := NewDailyReturnStore()
	ctx := context.Background()

	p := &domain.DailyReturnRecord{MinerHotkey: "miner-a", RunID: "run-1", Date: day(0)}
	if err := store.InsertBulk(ctx, []*domain.DailyReturnRecord{p}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Existing key
	err := store.InsertBulk(ctx, []*domain.DailyReturnRecord{p})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Intra-batch duplicate fails the whole batch
	q := &domain.DailyReturnRecord{MinerHotkey: "miner-a", RunID: "run-2", Date: day(0)}
	err = store.InsertBulk(ctx, []*domain.DailyReturnRecord{q, q})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if got, _ := store.GetByRun(ctx, "miner-a", "run-2"); len(got) != 0 {
		t.Errorf("partial batch was inserted: %d points", len(got))
	}

	err = store.InsertBulk(ctx, []*domain.DailyReturnRecord{{MinerHotkey: "miner-a"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
