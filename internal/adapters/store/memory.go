package store

import (
	"context"
	"sync"

	"github.com/pathwise/bandit/internal/domain/model"
)

// InMemoryStore implements Store with process-local maps. It is the default
// when no DSN is configured and the workhorse for tests; WithFailures
// injects transient write failures to exercise the retry path.
type InMemoryStore struct {
	mu       sync.RWMutex
	arms     map[string]model.Arm
	outcomes map[string]model.Outcome
	failures int
}

// MemoryOption applies a configuration option to the InMemoryStore.
type MemoryOption func(*InMemoryStore)

// WithFailures makes the next n writes fail with ErrUnavailable.
func WithFailures(n int) MemoryOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.failures = n
		}
	}
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		arms:     make(map[string]model.Arm),
		outcomes: make(map[string]model.Outcome),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// LoadArms returns a copy of every stored arm.
func (s *InMemoryStore) LoadArms(ctx context.Context) ([]model.Arm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arms := make([]model.Arm, 0, len(s.arms))
	for _, a := range s.arms {
		arms = append(arms, a.Clone())
	}
	return arms, nil
}

// SaveArm upserts one arm snapshot.
func (s *InMemoryStore) SaveArm(ctx context.Context, arm model.Arm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures > 0 {
		s.failures--
		return ErrUnavailable
	}
	s.arms[arm.ID] = arm.Clone()
	return nil
}

// SaveOutcome upserts one outcome record.
func (s *InMemoryStore) SaveOutcome(ctx context.Context, outcome model.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures > 0 {
		s.failures--
		return ErrUnavailable
	}
	s.outcomes[outcome.ID] = outcome.Clone()
	return nil
}

// Outcome returns a stored outcome by id, for test inspection.
func (s *InMemoryStore) Outcome(id string) (model.Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.outcomes[id]
	return o, ok
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
