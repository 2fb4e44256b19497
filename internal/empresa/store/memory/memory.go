// Package memory is an in-process store used by tests and local runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"empresaflow/internal/empresa/models"
	"empresaflow/internal/empresa/store"
	"empresaflow/pkg/platform/sentinel"
)

// Store keeps companies and onboarding records in maps. RunInTx serializes
// transactions and restores a snapshot when fn fails.
type Store struct {
	txMu sync.Mutex

	mu          sync.RWMutex
	companies   map[int64]models.Company
	onboardings map[int64]models.Onboarding
}

func New() *Store {
	return &Store{
		companies:   make(map[int64]models.Company),
		onboardings: make(map[int64]models.Onboarding),
	}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	companies := maps.Clone(s.companies)
	onboardings := maps.Clone(s.onboardings)
	s.mu.RUnlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.companies = companies
		s.onboardings = onboardings
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) InsertCompany(_ context.Context, c models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.EmpKey]; ok {
		return store.Conflict(fmt.Sprintf("duplicate key value violates unique constraint \"empresas_pkey\": empkey=%d", c.EmpKey))
	}
	s.companies[c.EmpKey] = c
	return nil
}

func (s *Store) InsertOnboarding(_ context.Context, o models.Onboarding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[o.EmpKey]; !ok {
		return store.Rejected(fmt.Sprintf("empkey %d is not present in table \"empresas\"", o.EmpKey))
	}
	if _, ok := s.onboardings[o.EmpKey]; ok {
		return store.Conflict(fmt.Sprintf("duplicate key value violates unique constraint \"empresas_onboarding_pkey\": empkey=%d", o.EmpKey))
	}
	s.onboardings[o.EmpKey] = o
	return nil
}

func (s *Store) FindCompany(_ context.Context, empKey int64) (models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[empKey]
	if !ok {
		return models.Company{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *Store) FindOnboarding(_ context.Context, empKey int64) (models.Onboarding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.onboardings[empKey]
	if !ok {
		return models.Onboarding{}, sentinel.ErrNotFound
	}
	return o, nil
}

func (s *Store) UpdateOnboarding(_ context.Context, o models.Onboarding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.onboardings[o.EmpKey]; !ok {
		return sentinel.ErrNotFound
	}
	s.onboardings[o.EmpKey] = o
	return nil
}

// ListOnboarding orders by last update, oldest first, then by empkey.
func (s *Store) ListOnboarding(_ context.Context, filter models.QueueFilter) ([]models.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.QueueEntry, 0, len(s.onboardings))
	for _, o := range s.onboardings {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
			continue
		}
		c := s.companies[o.EmpKey]
		entries = append(entries, models.QueueEntry{
			EmpKey:    o.EmpKey,
			RUT:       c.RUT,
			Nombre:    c.Nombre,
			Status:    o.Status,
			UpdatedAt: o.UpdatedAt,
		})
	}
	slices.SortFunc(entries, func(a, b models.QueueEntry) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return cmpInt64(a.EmpKey, b.EmpKey)
	})
	if limit := store.Limit(filter); len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
