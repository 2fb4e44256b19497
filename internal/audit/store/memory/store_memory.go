package memory

import (
	"context"
	"slices"
	"sync"

	"empresaflow/internal/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[int64][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[int64][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.EmpKey] = append(s.events[event.EmpKey], event)
	return nil
}

func (s *InMemoryStore) ListByCompany(_ context.Context, empKey int64) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := slices.Clone(s.events[empKey])
	slices.SortStableFunc(events, func(a, b audit.Event) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})
	return events, nil
}

// Clear drops every event. Used between tests.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[int64][]audit.Event)
}
