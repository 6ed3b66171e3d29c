package badge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishProgression_Go/internal/curve"
	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	owned  map[string]bool
	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{owned: make(map[string]bool)}
}

func (f *fakeStore) GetOwnedBadgeCodes(_ context.Context, _ string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool, len(f.owned))
	for k, v := range f.owned {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) InsertUserBadge(_ context.Context, ub *domain.UserBadge) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ub.BadgeCode == f.failOn {
		return false, errors.New("insert failed")
	}
	if f.owned[ub.BadgeCode] {
		return false, nil
	}
	f.owned[ub.BadgeCode] = true
	return true, nil
}

type fakeGranter struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (g *fakeGranter) GrantBadgeReward(_ context.Context, p *domain.UserProgression, key string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = make(map[string]bool)
	}
	if g.keys[key] {
		return domain.ErrDuplicateIgnored
	}
	g.keys[key] = true
	p.Coins += amount
	return nil
}

func testCurve(t *testing.T) *curve.LevelCurve {
	t.Helper()
	c, err := curve.NewLevelCurve([]int64{0, 100, 300, 600})
	require.NoError(t, err)
	return c
}

func testCatalog() []domain.Badge {
	return []domain.Badge{
		{Code: "FIRST_CLUB", Name: "First Club", Rarity: domain.RarityCommon, CoinsReward: 10, IsActive: true,
			Criteria: domain.Criteria{Kind: domain.CriterionCounterAtLeast, Threshold: 1, Counter: "clubsJoined"}},
		{Code: "LEVEL_3", Name: "Level 3", Rarity: domain.RarityRare, CoinsReward: 50, IsActive: true,
			Criteria: domain.Criteria{Kind: domain.CriterionLevelAtLeast, Threshold: 3}},
		{Code: "XP_100", Name: "Centurion", Rarity: domain.RarityCommon, IsActive: true,
			Criteria: domain.Criteria{Kind: domain.CriterionXPAtLeast, Threshold: 100}},
		{Code: "STREAK_7", Name: "Week Warrior", Rarity: domain.RarityUncommon, IsActive: true,
			Criteria: domain.Criteria{Kind: domain.CriterionStreakAtLeast, Threshold: 7}},
		{Code: "SHOPPER", Name: "Shopper", Rarity: domain.RarityEpic, IsActive: false,
			Criteria: domain.Criteria{Kind: domain.CriterionPurchasesAtLeast, Threshold: 1}},
	}
}

func TestNewEngine_RejectsInconsistentCatalog(t *testing.T) {
	tests := []struct {
		name  string
		badge domain.Badge
	}{
		{"missing code", domain.Badge{Rarity: domain.RarityCommon, Criteria: domain.Criteria{Kind: domain.CriterionXPAtLeast}}},
		{"unknown rarity", domain.Badge{Code: "X", Rarity: "MYTHIC", Criteria: domain.Criteria{Kind: domain.CriterionXPAtLeast}}},
		{"unknown criterion", domain.Badge{Code: "X", Rarity: domain.RarityCommon, Criteria: domain.Criteria{Kind: "FRIENDS"}}},
		{"counter without name", domain.Badge{Code: "X", Rarity: domain.RarityCommon, Criteria: domain.Criteria{Kind: domain.CriterionCounterAtLeast, Threshold: 1}}},
		{"negative reward", domain.Badge{Code: "X", Rarity: domain.RarityCommon, CoinsReward: -1, Criteria: domain.Criteria{Kind: domain.CriterionXPAtLeast}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine([]domain.Badge{tt.badge}, testCurve(t))
			assert.ErrorIs(t, err, domain.ErrBadgeCatalogInconsistent)
		})
	}

	t.Run("duplicate code", func(t *testing.T) {
		b := testCatalog()[0]
		_, err := NewEngine([]domain.Badge{b, b}, testCurve(t))
		assert.ErrorIs(t, err, domain.ErrBadgeCatalogInconsistent)
	})
}

func TestCatalog_OrderedByRarityThenCode(t *testing.T) {
	e, err := NewEngine(testCatalog(), testCurve(t))
	require.NoError(t, err)

	var codes []string
	for _, b := range e.Catalog() {
		codes = append(codes, b.Code)
	}
	assert.Equal(t, []string{"FIRST_CLUB", "XP_100", "STREAK_7", "LEVEL_3", "SHOPPER"}, codes)
}

func TestEvaluate_CounterBadge(t *testing.T) {
	e, err := NewEngine(testCatalog(), testCurve(t))
	require.NoError(t, err)

	store := newFakeStore()
	coins := &fakeGranter{}
	p := &domain.UserProgression{UserID: "u1"}

	awarded, err := e.Evaluate(context.Background(), store, coins, p, map[string]int64{"clubsJoined": 1})
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, "FIRST_CLUB", awarded[0].BadgeCode)
	assert.True(t, awarded[0].IsNew)
	assert.Equal(t, int64(10), p.Coins)
	assert.True(t, coins.keys["FIRST_CLUB"])

	// second pass with the same state awards nothing
	awarded, err = e.Evaluate(context.Background(), store, coins, p, map[string]int64{"clubsJoined": 1})
	require.NoError(t, err)
	assert.Empty(t, awarded)
	assert.Equal(t, int64(10), p.Coins)
}

func TestEvaluate_SkipsInactiveAndUnmet(t *testing.T) {
	e, err := NewEngine(testCatalog(), testCurve(t))
	require.NoError(t, err)

	p := &domain.UserProgression{UserID: "u1", TotalXP: 320, PurchaseCount: 4, ConsecutiveDays: 2}
	awarded, err := e.Evaluate(context.Background(), newFakeStore(), &fakeGranter{}, p, nil)
	require.NoError(t, err)

	var codes []string
	for _, ub := range awarded {
		codes = append(codes, ub.BadgeCode)
	}
	assert.Equal(t, []string{"XP_100", "LEVEL_3"}, codes)
	assert.Equal(t, int64(50), p.Coins)
}

func TestEvaluate_InsertFailureAborts(t *testing.T) {
	e, err := NewEngine(testCatalog(), testCurve(t))
	require.NoError(t, err)

	store := newFakeStore()
	store.failOn = "XP_100"
	_, err = e.Evaluate(context.Background(), store, &fakeGranter{}, &domain.UserProgression{UserID: "u1", TotalXP: 150}, nil)
	assert.Error(t, err)
}

func TestEvaluate_ConcurrentNoDuplicates(t *testing.T) {
	e, err := NewEngine(testCatalog(), testCurve(t))
	require.NoError(t, err)

	store := newFakeStore()
	coins := &fakeGranter{}
	base := &domain.UserProgression{UserID: "u1", TotalXP: 150}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			awarded, err := e.Evaluate(context.Background(), store, coins, base.Clone(), nil)
			assert.NoError(t, err)
			mu.Lock()
			total += len(awarded)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, total)
}

func TestViews(t *testing.T) {
	e, err := NewEngine(testCatalog(), testCurve(t))
	require.NoError(t, err)

	views, err := e.Views([]domain.UserBadge{{UserID: "u1", BadgeCode: "LEVEL_3", IsNew: true}})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Level 3", views[0].Name)
	assert.Equal(t, domain.RarityRare, views[0].Rarity)
	assert.True(t, views[0].IsNew)

	_, err = e.Views([]domain.UserBadge{{UserID: "u1", BadgeCode: "GONE"}})
	assert.ErrorIs(t, err, domain.ErrBadgeCatalogInconsistent)
}
