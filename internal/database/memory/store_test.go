package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
	"github.com/osse101/BrandishProgression_Go/internal/repository"
)

func seeded(t *testing.T, ids ...string) *Store {
	t.Helper()
	s := NewStore()
	for _, id := range ids {
		require.NoError(t, s.CreateProgression(context.Background(), &domain.UserProgression{UserID: id}))
	}
	return s
}

func TestCreateProgression(t *testing.T) {
	s := seeded(t, "u1")
	ctx := context.Background()

	err := s.CreateProgression(ctx, &domain.UserProgression{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)

	p, err := s.GetProgression(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, p.CreatedAt.IsZero())

	_, err = s.GetProgression(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestTx_CommitAppliesStagedWrites(t *testing.T) {
	s := seeded(t, "u1")
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)

	p, err := tx.GetProgressionForUpdate(ctx, "u1")
	require.NoError(t, err)
	p.TotalXP = 120
	require.NoError(t, tx.UpdateProgression(ctx, p))
	require.NoError(t, tx.ConsumeKey(ctx, "u1", domain.KeyScopeEvent, "evt-1", domain.EventXPGrant))
	inserted, err := tx.InsertUserBadge(ctx, &domain.UserBadge{UserID: "u1", BadgeCode: "XP_100", IsNew: true})
	require.NoError(t, err)
	assert.True(t, inserted)

	// nothing visible before commit
	before, err := s.GetProgression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), before.TotalXP)

	consumed, err := tx.IsKeyConsumed(ctx, "u1", domain.KeyScopeEvent, "evt-1")
	require.NoError(t, err)
	assert.True(t, consumed)

	require.NoError(t, tx.Commit(ctx))

	after, err := s.GetProgression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(120), after.TotalXP)

	badges, err := s.GetUserBadges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "XP_100", badges[0].BadgeCode)

	tx2, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer repository.SafeRollback(ctx, tx2)
	consumed, err = tx2.IsKeyConsumed(ctx, "u1", domain.KeyScopeEvent, "evt-1")
	require.NoError(t, err)
	assert.True(t, consumed)
}

func TestTx_RollbackDiscards(t *testing.T) {
	s := seeded(t, "u1")
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	p, err := tx.GetProgressionForUpdate(ctx, "u1")
	require.NoError(t, err)
	p.Coins = 999
	require.NoError(t, tx.UpdateProgression(ctx, p))
	require.NoError(t, tx.ConsumeKey(ctx, "u1", domain.KeyScopeEvent, "evt-1", domain.EventCoinGrant))
	require.NoError(t, tx.Rollback(ctx))

	assert.ErrorIs(t, tx.Commit(ctx), repository.ErrTxClosed)
	assert.ErrorIs(t, tx.Rollback(ctx), repository.ErrTxClosed)

	got, err := s.GetProgression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Coins)

	tx2, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer repository.SafeRollback(ctx, tx2)
	consumed, err := tx2.IsKeyConsumed(ctx, "u1", domain.KeyScopeEvent, "evt-1")
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestTx_GetOrCreateProgression(t *testing.T) {
	s := seeded(t, "u1")
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	p, created, err := tx.GetOrCreateProgressionForUpdate(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "u1", p.UserID)

	p, created, err = tx.GetOrCreateProgressionForUpdate(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(0), p.TotalXP)

	// the staged row is visible inside the tx only
	_, created, err = tx.GetOrCreateProgressionForUpdate(ctx, "fresh")
	require.NoError(t, err)
	assert.False(t, created)
	_, err = s.GetProgression(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, tx.Commit(ctx))
	got, err := s.GetProgression(ctx, "fresh")
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestTx_GetOrCreateProgression_RollbackLeavesUserAbsent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, created, err := tx.GetOrCreateProgressionForUpdate(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, tx.Rollback(ctx))

	_, err = s.GetProgression(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestTx_GetOrCreateProgression_ConcurrentInitializeWins(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer repository.SafeRollback(ctx, tx)
	_, _, err = tx.GetOrCreateProgressionForUpdate(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, s.CreateProgression(ctx, &domain.UserProgression{UserID: "u1", TotalXP: 50}))
	assert.ErrorIs(t, tx.Commit(ctx), domain.ErrAlreadyInitialized)

	got, err := s.GetProgression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.TotalXP)
}

func TestTx_KeyScopesAreIsolated(t *testing.T) {
	s := seeded(t, "u1")
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ConsumeKey(ctx, "u1", domain.KeyScopeEvent, "FIRST_CLUB", domain.EventXPGrant))
	require.NoError(t, tx.Commit(ctx))

	tx2, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer repository.SafeRollback(ctx, tx2)
	consumed, err := tx2.IsKeyConsumed(ctx, "u1", domain.KeyScopeBadgeReward, "FIRST_CLUB")
	require.NoError(t, err)
	assert.False(t, consumed)
	consumed, err = tx2.IsKeyConsumed(ctx, "u1", domain.KeyScopeEvent, "FIRST_CLUB")
	require.NoError(t, err)
	assert.True(t, consumed)
}

func TestInsertUserBadge_IfAbsent(t *testing.T) {
	s := seeded(t, "u1")
	ctx := context.Background()

	tx1, _ := s.BeginTx(ctx)
	ok, err := tx1.InsertUserBadge(ctx, &domain.UserBadge{UserID: "u1", BadgeCode: "B"})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = tx1.InsertUserBadge(ctx, &domain.UserBadge{UserID: "u1", BadgeCode: "B"})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, tx1.Commit(ctx))

	tx2, _ := s.BeginTx(ctx)
	defer repository.SafeRollback(ctx, tx2)
	ok, err = tx2.InsertUserBadge(ctx, &domain.UserBadge{UserID: "u1", BadgeCode: "B"})
	require.NoError(t, err)
	assert.False(t, ok)

	owned, err := tx2.GetOwnedBadgeCodes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"B": true}, owned)
}

func TestAcknowledgeNewBadges_AtMostOnce(t *testing.T) {
	s := seeded(t, "u1")
	ctx := context.Background()

	tx, _ := s.BeginTx(ctx)
	earned := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _ = tx.InsertUserBadge(ctx, &domain.UserBadge{UserID: "u1", BadgeCode: "B", IsNew: true, EarnedAt: earned.Add(time.Minute)})
	_, _ = tx.InsertUserBadge(ctx, &domain.UserBadge{UserID: "u1", BadgeCode: "A", IsNew: true, EarnedAt: earned})
	require.NoError(t, tx.Commit(ctx))

	fresh, err := s.AcknowledgeNewBadges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "A", fresh[0].BadgeCode)

	fresh, err = s.AcknowledgeNewBadges(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, fresh)

	all, err := s.GetUserBadges(ctx, "u1")
	require.NoError(t, err)
	for _, ub := range all {
		assert.False(t, ub.IsNew)
	}
}

func TestSetBadgeDisplayed(t *testing.T) {
	s := seeded(t, "u1")
	ctx := context.Background()

	tx, _ := s.BeginTx(ctx)
	_, _ = tx.InsertUserBadge(ctx, &domain.UserBadge{UserID: "u1", BadgeCode: "B"})
	require.NoError(t, tx.Commit(ctx))

	require.NoError(t, s.SetBadgeDisplayed(ctx, "u1", "B", true))
	all, _ := s.GetUserBadges(ctx, "u1")
	assert.True(t, all[0].IsDisplayed)

	assert.ErrorIs(t, s.SetBadgeDisplayed(ctx, "u1", "NOPE", true), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SetBadgeDisplayed(ctx, "ghost", "B", true), domain.ErrUserNotFound)
}

func TestRankQueries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for id, xp := range map[string]int64{"a": 10, "b": 30, "c": 30, "d": 5} {
		require.NoError(t, s.CreateProgression(ctx, &domain.UserProgression{UserID: id, TotalXP: xp}))
	}

	n, err := s.CountUsersAbove(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	top, err := s.TopByXP(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{top[0].UserID, top[1].UserID, top[2].UserID})
}

func TestBadgeCatalog(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertBadges(ctx, []domain.Badge{{Code: "Z"}, {Code: "A", Name: "old"}}))
	require.NoError(t, s.UpsertBadges(ctx, []domain.Badge{{Code: "A", Name: "new"}}))

	cat, err := s.GetBadgeCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, cat, 2)
	assert.Equal(t, "A", cat[0].Code)
	assert.Equal(t, "new", cat[0].Name)
}
