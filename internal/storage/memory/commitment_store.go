package memory

import (
	"context"
	"sort"
	"sync"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/storage"
)

// CommitmentStore is an in-memory implementation of storage.CommitmentStore.
type CommitmentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CommitmentRecord // keyed by commitment_id
}

// NewCommitmentStore creates a new in-memory commitment store.
func NewCommitmentStore() *CommitmentStore {
	return &CommitmentStore{
		data: make(map[string]*domain.CommitmentRecord),
	}
}

// Insert adds a new commitment. Returns ErrDuplicateKey if commitment_id exists.
func (s *CommitmentStore) Insert(_ context.Context, r *domain.CommitmentRecord) error {
	if r == nil || r.CommitmentID == "" || r.Root == "" {
		return storage.ErrInvalidInput
	}
	if len(r.PathElements) != len(r.PathIndices) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.CommitmentID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.CommitmentID] = cloneCommitment(r)
	return nil
}

// GetByID retrieves a commitment by its ID. Returns ErrNotFound if not exists.
func (s *CommitmentStore) GetByID(_ context.Context, commitmentID string) (*domain.CommitmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[commitmentID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneCommitment(r), nil
}

// GetByRoot retrieves all commitments sharing a Merkle root.
func (s *CommitmentStore) GetByRoot(_ context.Context, root string) ([]*domain.CommitmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CommitmentRecord
	for _, r := range s.data {
		if r.Root == root {
			result = append(result, cloneCommitment(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].CommitmentID < result[j].CommitmentID
	})

	return result, nil
}

// cloneCommitment deep-copies the path slices.
func cloneCommitment(r *domain.CommitmentRecord) *domain.CommitmentRecord {
	c := *r
	c.PathElements = make([][]string, len(r.PathElements))
	for i, p := range r.PathElements {
		c.PathElements[i] = append([]string(nil), p...)
	}
	c.PathIndices = make([][]int, len(r.PathIndices))
	for i, p := range r.PathIndices {
		c.PathIndices[i] = append([]int(nil), p...)
	}
	return &c
}

var _ storage.CommitmentStore = (*CommitmentStore)(nil)
