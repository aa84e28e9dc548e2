package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/stepflow/pkg/domain"
)

// Store implements ports.ResultStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.ExecutionResult
	mu   sync.RWMutex
}

// NewStore creates a new in-memory result store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.ExecutionResult),
	}
}

// Save persists the result in memory.
func (s *Store) Save(ctx context.Context, result domain.ExecutionResult) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := copyResult(result)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[result.ID] = copied
	return nil
}

// Load retrieves the result from memory.
func (s *Store) Load(ctx context.Context, id string) (domain.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.data[id]
	if !ok {
		return domain.ExecutionResult{}, domain.ErrResultNotFound
	}

	// Copy on read so callers can't mutate stored results.
	return copyResult(result), nil
}

// Delete removes the result.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored execution IDs, oldest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.data[ids[i]], s.data[ids[j]]
		if a.StartedAt.Equal(b.StartedAt) {
			return ids[i] < ids[j]
		}
		return a.StartedAt.Before(b.StartedAt)
	})
	return ids, nil
}

func copyResult(r domain.ExecutionResult) domain.ExecutionResult {
	out := r
	out.Context = r.Context.Clone()
	out.Visited = append([]string(nil), r.Visited...)
	if r.Error != nil {
		e := *r.Error
		out.Error = &e
	}
	if r.Failure != nil {
		f := *r.Failure
		out.Failure = &f
	}
	return out
}
