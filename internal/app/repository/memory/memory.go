// Package memory is an in-process entitlement store for tests and
// single-instance deployments that do not need persistence.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/repository"
)

type Store struct {
	mu    sync.Mutex
	items map[string]model.Entitlement
	now   func() time.Time
}

func New(seed ...model.Entitlement) *Store {
	s := &Store{items: make(map[string]model.Entitlement), now: time.Now}
	for _, e := range seed {
		s.items[e.ID] = e
	}
	return s
}

var _ repository.EntitlementDAO = (*Store)(nil)

func (s *Store) Get(_ context.Context, id string) (*model.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &e, nil
}

func (s *Store) Consume(_ context.Context, id string, cost int64) (model.Charge, *model.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return model.ChargeNone, nil, apperrors.ErrUserNotFound
	}
	charge := e.Apply(cost)
	if charge == model.ChargeFreeUse || charge == model.ChargeCredits {
		e.UpdatedAt = s.now()
		s.items[id] = e
	}
	return charge, &e, nil
}

func (s *Store) Upsert(_ context.Context, e model.Entitlement) error {
	if e.FreeUsesRemaining < 0 || e.CreditBalance < 0 {
		return fmt.Errorf("entitlement counters cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.UpdatedAt = s.now()
	s.items[e.ID] = e
	return nil
}

func (s *Store) Grant(_ context.Context, id string, credits int64) (*model.Entitlement, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("credits to grant must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	e.CreditBalance += credits
	e.UpdatedAt = s.now()
	s.items[id] = e
	return &e, nil
}

func (s *Store) SetUnlimited(_ context.Context, id string, unlimited bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	e.Unlimited = unlimited
	e.UpdatedAt = s.now()
	s.items[id] = e
	return nil
}

func (s *Store) List(_ context.Context) ([]model.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Entitlement, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Close() error { return nil }
