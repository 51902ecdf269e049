package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
)

// DailyReturnStore is an in-memory implementation of storage.DailyReturnStore.
type DailyReturnStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailyReturnRecord // keyed by composite key
}

// NewDailyReturnStore creates a new in-memory daily return store.
func NewDailyReturnStore() *DailyReturnStore {
	return &DailyReturnStore{
		data: make(map[string]*domain.DailyReturnRecord),
	}
}

// returnKey generates a unique key for a daily return point.
func returnKey(r *domain.DailyReturnRecord) string {
	return fmt.Sprintf("%s|%s|%s", r.MinerHotkey, r.RunID, r.Date.UTC().Format("2006-01-02"))
}

// InsertBulk adds multiple points atomically. Fails entire batch on any duplicate.
func (s *DailyReturnStore) InsertBulk(_ context.Context, records []*domain.DailyReturnRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(records))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range records {
		if r == nil || r.MinerHotkey == "" || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := returnKey(r)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		recCopy := *r
		s.data[returnKey(r)] = &recCopy
	}

	return nil
}

// GetByMiner retrieves every point of a miner, ordered by run_id, date ASC.
func (s *DailyReturnStore) GetByMiner(_ context.Context, minerHotkey string) ([]*domain.DailyReturnRecord, error) {
	return s.filter(func(r *domain.DailyReturnRecord) bool {
		return r.MinerHotkey == minerHotkey
	}), nil
}

// GetByRun retrieves the series of one miner in one run, ordered by date ASC.
func (s *DailyReturnStore) GetByRun(_ context.Context, minerHotkey, runID string) ([]*domain.DailyReturnRecord, error) {
	return s.filter(func(r *domain.DailyReturnRecord) bool {
		return r.MinerHotkey == minerHotkey && r.RunID == runID
	}), nil
}

func (s *DailyReturnStore) filter(keep func(*domain.DailyReturnRecord) bool) []*domain.DailyReturnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyReturnRecord
	for _, r := range s.data {
		if keep(r) {
			recCopy := *r
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RunID != result[j].RunID {
			return result[i].RunID < result[j].RunID
		}
		return result[i].Date.Before(result[j].Date)
	})

	return result
}

var _ storage.DailyReturnStore = (*DailyReturnStore)(nil)
