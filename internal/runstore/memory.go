package runstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store, used by tests and as a fallback when no
// history path is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[uuid.UUID]*Run
	order  []uuid.UUID
	errors map[uuid.UUID][]*RunError
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:   make(map[uuid.UUID]*Run),
		errors: make(map[uuid.UUID][]*RunError),
	}
}

func (s *MemoryStore) SaveRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *run
	s.runs[run.ID] = &copied
	s.order = append(s.order, run.ID)
	return nil
}

func (s *MemoryStore) UpdateRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *run
	s.runs[run.ID] = &copied
	return nil
}

func (s *MemoryStore) GetRun(id uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, exists := s.runs[id]
	if !exists {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns runs most-recent-first.
func (s *MemoryStore) ListRuns() ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]*Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		copied := *s.runs[s.order[i]]
		runs = append(runs, &copied)
	}
	return runs, nil
}

func (s *MemoryStore) AddError(runID uuid.UUID, stage, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[runID] = append(s.errors[runID], &RunError{
		RunID:     runID,
		Stage:     stage,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *MemoryStore) ListErrors(runID uuid.UUID) ([]*RunError, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	errs := make([]*RunError, len(s.errors[runID]))
	copy(errs, s.errors[runID])
	return errs, nil
}
