package memory

import (
	"context"
	"sort"
	"sync"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
)

// EvaluationStore is an in-memory implementation of storage.EvaluationStore.
type EvaluationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EvaluationRecord // keyed by evaluation_id
}

// NewEvaluationStore creates a new in-memory evaluation store.
func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{
		data: make(map[string]*domain.EvaluationRecord),
	}
}

// Insert adds a new evaluation. Returns ErrDuplicateKey if evaluation_id exists.
func (s *EvaluationStore) Insert(_ context.Context, r *domain.EvaluationRecord) error {
	if r == nil || r.EvaluationID == "" || r.MinerHotkey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.EvaluationID]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *r
	s.data[r.EvaluationID] = &recCopy
	return nil
}

// GetByID retrieves an evaluation by its ID. Returns ErrNotFound if not exists.
func (s *EvaluationStore) GetByID(_ context.Context, evaluationID string) (*domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[evaluationID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *r
	return &recCopy, nil
}

// GetByMiner retrieves all evaluations of a miner, ordered by created_at ASC.
func (s *EvaluationStore) GetByMiner(_ context.Context, minerHotkey string) ([]*domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EvaluationRecord
	for _, r := range s.data {
		if r.MinerHotkey == minerHotkey {
			recCopy := *r
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].EvaluationID < result[j].EvaluationID
	})

	return result, nil
}

var _ storage.EvaluationStore = (*EvaluationStore)(nil)
