package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
	"github.com/osse101/BrandishProgression_Go/internal/repository"
)

type scopedKey struct {
	scope domain.KeyScope
	key   string
}

// tx stages writes in overlays that Commit folds into the store
type tx struct {
	s       *Store
	users   map[string]*domain.UserProgression
	keys    map[string]map[scopedKey]domain.EventKind
	badges  map[string]map[string]domain.UserBadge
	created map[string]bool
	done    bool
}

func (t *tx) GetProgressionForUpdate(ctx context.Context, userID string) (*domain.UserProgression, error) {
	if t.done {
		return nil, repository.ErrTxClosed
	}
	if p, ok := t.users[userID]; ok {
		return p.Clone(), nil
	}
	return t.s.GetProgression(ctx, userID)
}

func (t *tx) GetOrCreateProgressionForUpdate(ctx context.Context, userID string) (*domain.UserProgression, bool, error) {
	p, err := t.GetProgressionForUpdate(ctx, userID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	now := t.s.now()
	fresh := &domain.UserProgression{UserID: userID, CreatedAt: now, UpdatedAt: now}
	t.users[userID] = fresh.Clone()
	t.created[userID] = true
	return fresh, true, nil
}

func (t *tx) UpdateProgression(_ context.Context, p *domain.UserProgression) error {
	if t.done {
		return repository.ErrTxClosed
	}
	t.users[p.UserID] = p.Clone()
	return nil
}

func (t *tx) IsKeyConsumed(_ context.Context, userID string, scope domain.KeyScope, key string) (bool, error) {
	if t.done {
		return false, repository.ErrTxClosed
	}
	k := scopedKey{scope: scope, key: key}
	if _, ok := t.keys[userID][k]; ok {
		return true, nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	_, ok := t.s.keys[userID][k]
	return ok, nil
}

func (t *tx) ConsumeKey(_ context.Context, userID string, scope domain.KeyScope, key string, kind domain.EventKind) error {
	if t.done {
		return repository.ErrTxClosed
	}
	if t.keys[userID] == nil {
		t.keys[userID] = make(map[scopedKey]domain.EventKind)
	}
	t.keys[userID][scopedKey{scope: scope, key: key}] = kind
	return nil
}

func (t *tx) GetOwnedBadgeCodes(_ context.Context, userID string) (map[string]bool, error) {
	if t.done {
		return nil, repository.ErrTxClosed
	}

	owned := make(map[string]bool)
	t.s.mu.RLock()
	for code := range t.s.badges[userID] {
		owned[code] = true
	}
	t.s.mu.RUnlock()
	for code := range t.badges[userID] {
		owned[code] = true
	}
	return owned, nil
}

func (t *tx) InsertUserBadge(_ context.Context, ub *domain.UserBadge) (bool, error) {
	if t.done {
		return false, repository.ErrTxClosed
	}
	if _, ok := t.badges[ub.UserID][ub.BadgeCode]; ok {
		return false, nil
	}

	t.s.mu.RLock()
	_, exists := t.s.badges[ub.UserID][ub.BadgeCode]
	t.s.mu.RUnlock()
	if exists {
		return false, nil
	}

	if t.badges[ub.UserID] == nil {
		t.badges[ub.UserID] = make(map[string]domain.UserBadge)
	}
	t.badges[ub.UserID][ub.BadgeCode] = *ub
	return true, nil
}

// Commit applies all staged writes at once. A badge or key another
// transaction committed first is kept as is.
func (t *tx) Commit(_ context.Context) error {
	if t.done {
		return repository.ErrTxClosed
	}
	t.done = true

	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.users {
		_, exists := s.users[id]
		switch {
		case t.created[id] && exists:
			return fmt.Errorf("%w: %s", domain.ErrAlreadyInitialized, id)
		case !t.created[id] && !exists:
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
		}
	}

	now := s.now()
	for id, p := range t.users {
		p.UpdatedAt = now
		s.users[id] = p
	}
	for userID, keys := range t.keys {
		if s.keys[userID] == nil {
			s.keys[userID] = make(map[scopedKey]domain.EventKind)
		}
		for k, kind := range keys {
			if _, ok := s.keys[userID][k]; !ok {
				s.keys[userID][k] = kind
			}
		}
	}
	for userID, owned := range t.badges {
		if s.badges[userID] == nil {
			s.badges[userID] = make(map[string]domain.UserBadge)
		}
		for code, ub := range owned {
			if _, ok := s.badges[userID][code]; !ok {
				s.badges[userID][code] = ub
			}
		}
	}
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.done {
		return repository.ErrTxClosed
	}
	t.done = true
	return nil
}
