// Package memory is the in-process store used by default and by tests.
// It keeps the same transactional contract as the Postgres store: writes
// made through a Tx are invisible until Commit and dropped on Rollback.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
	"github.com/osse101/BrandishProgression_Go/internal/repository"
)

// Store holds every user's progression, badges and consumed keys
type Store struct {
	mu      sync.RWMutex
	users   map[string]*domain.UserProgression
	badges  map[string]map[string]domain.UserBadge
	keys    map[string]map[scopedKey]domain.EventKind
	catalog map[string]domain.Badge
	now     func() time.Time
}

var (
	_ repository.Progression  = (*Store)(nil)
	_ repository.BadgeCatalog = (*Store)(nil)
)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*domain.UserProgression),
		badges:  make(map[string]map[string]domain.UserBadge),
		keys:    make(map[string]map[scopedKey]domain.EventKind),
		catalog: make(map[string]domain.Badge),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) GetProgression(_ context.Context, userID string) (*domain.UserProgression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return p.Clone(), nil
}

func (s *Store) CreateProgression(_ context.Context, p *domain.UserProgression) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[p.UserID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyInitialized, p.UserID)
	}
	c := p.Clone()
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.users[p.UserID] = c
	return nil
}

func (s *Store) GetUserBadges(_ context.Context, userID string) ([]domain.UserBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return sortedBadges(s.badges[userID], func(domain.UserBadge) bool { return true }), nil
}

func (s *Store) AcknowledgeNewBadges(_ context.Context, userID string) ([]domain.UserBadge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	owned := s.badges[userID]
	fresh := sortedBadges(owned, func(ub domain.UserBadge) bool { return ub.IsNew })
	for _, ub := range fresh {
		ub.IsNew = false
		owned[ub.BadgeCode] = ub
	}
	return fresh, nil
}

func (s *Store) SetBadgeDisplayed(_ context.Context, userID, badgeCode string, displayed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	ub, ok := s.badges[userID][badgeCode]
	if !ok {
		return fmt.Errorf("%w: badge %s not earned by %s", domain.ErrInvalidInput, badgeCode, userID)
	}
	ub.IsDisplayed = displayed
	s.badges[userID][badgeCode] = ub
	return nil
}

func (s *Store) CountUsersAbove(_ context.Context, totalXP int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.users {
		if p.TotalXP > totalXP {
			n++
		}
	}
	return n, nil
}

func (s *Store) TopByXP(_ context.Context, limit int) ([]domain.UserProgression, error) {
	s.mu.RLock()
	rows := make([]domain.UserProgression, 0, len(s.users))
	for _, p := range s.users {
		rows = append(rows, *p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalXP != rows[j].TotalXP {
			return rows[i].TotalXP > rows[j].TotalXP
		}
		return rows[i].UserID < rows[j].UserID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) GetBadgeCatalog(_ context.Context) ([]domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Badge, 0, len(s.catalog))
	for _, b := range s.catalog {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) UpsertBadges(_ context.Context, badges []domain.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range badges {
		s.catalog[b.Code] = b
	}
	return nil
}

// BeginTx starts a unit of work. The store does not lock rows; callers
// serialize writers per user with the service's lock manager.
func (s *Store) BeginTx(_ context.Context) (repository.ProgressionTx, error) {
	return &tx{
		s:       s,
		users:   make(map[string]*domain.UserProgression),
		keys:    make(map[string]map[scopedKey]domain.EventKind),
		badges:  make(map[string]map[string]domain.UserBadge),
		created: make(map[string]bool),
	}, nil
}

func sortedBadges(m map[string]domain.UserBadge, keep func(domain.UserBadge) bool) []domain.UserBadge {
	out := make([]domain.UserBadge, 0, len(m))
	for _, ub := range m {
		if keep(ub) {
			out = append(out, ub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].BadgeCode < out[j].BadgeCode
	})
	return out
}
