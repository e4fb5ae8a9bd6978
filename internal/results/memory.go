package results

import (
	"context"
	"sync"

	"spam-trainer/internal/domain"
	"spam-trainer/internal/metrics"
)

// BackendMemory keeps the slot in process memory for the life of the app.
const BackendMemory = "memory"

// MemoryStore is the default in-process slot.
type MemoryStore struct {
	mu     sync.RWMutex
	result domain.JobResult
	has    bool
}

// NewMemoryStore returns an empty slot.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Put replaces the stored result with a private copy.
func (s *MemoryStore) Put(_ context.Context, result domain.JobResult) error {
	s.mu.Lock()
	s.result = domain.JobResult{Raw: append([]byte(nil), result.Raw...)}
	s.has = true
	s.mu.Unlock()

	metrics.IncResultStoreOp("put", BackendMemory, true)
	return nil
}

// Get returns the stored result, if any.
func (s *MemoryStore) Get(_ context.Context) (domain.JobResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics.IncResultStoreOp("get", BackendMemory, true)
	if !s.has {
		return domain.JobResult{}, false, nil
	}
	return domain.JobResult{Raw: append([]byte(nil), s.result.Raw...)}, true, nil
}

// Clear empties the slot.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.result = domain.JobResult{}
	s.has = false
	s.mu.Unlock()

	metrics.IncResultStoreOp("clear", BackendMemory, true)
	return nil
}

// Backend names this implementation.
func (s *MemoryStore) Backend() string { return BackendMemory }
