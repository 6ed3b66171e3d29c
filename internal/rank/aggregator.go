package rank

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/BrandishProgression_Go/internal/curve"
	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

const (
	// DefaultCacheSize bounds how many distinct XP totals keep a cached rank
	DefaultCacheSize = 1024
	// DefaultLeaderboardLimit is used when the caller asks for zero rows
	DefaultLeaderboardLimit = 10
	// MaxLeaderboardLimit caps a single leaderboard read
	MaxLeaderboardLimit = 100
)

// Source is the read side the aggregator ranks over
type Source interface {
	CountUsersAbove(ctx context.Context, totalXP int64) (int64, error)
	TopByXP(ctx context.Context, limit int) ([]domain.UserProgression, error)
}

// Aggregator computes competition ranks by XP: a user's rank is one more
// than the number of users with strictly greater XP, so ties share a rank.
type Aggregator struct {
	src    Source
	levels *curve.LevelCurve
	cache  *expirable.LRU[int64, int64]
}

// NewAggregator creates an aggregator. A ttl of 0 disables caching.
func NewAggregator(src Source, levels *curve.LevelCurve, ttl time.Duration) *Aggregator {
	a := &Aggregator{src: src, levels: levels}
	if ttl > 0 {
		a.cache = expirable.NewLRU[int64, int64](DefaultCacheSize, nil, ttl)
	}
	return a
}

// RankOf returns the rank of a user holding totalXP
func (a *Aggregator) RankOf(ctx context.Context, totalXP int64) (int64, error) {
	if a.cache != nil {
		if r, ok := a.cache.Get(totalXP); ok {
			return r, nil
		}
	}

	above, err := a.src.CountUsersAbove(ctx, totalXP)
	if err != nil {
		return 0, fmt.Errorf("failed to count users above %d xp: %w", totalXP, err)
	}
	r := above + 1
	if a.cache != nil {
		a.cache.Add(totalXP, r)
	}
	return r, nil
}

// Invalidate drops every cached rank. Any XP change can move other users.
func (a *Aggregator) Invalidate() {
	if a.cache != nil {
		a.cache.Purge()
	}
}

// Leaderboard returns the top users by XP. The source must order by XP
// descending then user ID ascending so equal-XP rows come back stable.
func (a *Aggregator) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	rows, err := a.src.TopByXP(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for i, p := range rows {
		r := int64(i + 1)
		if i > 0 && p.TotalXP == rows[i-1].TotalXP {
			r = entries[i-1].Rank
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:  p.UserID,
			TotalXP: p.TotalXP,
			Level:   a.levels.LevelOf(p.TotalXP).Level,
			Rank:    r,
		})
	}
	return entries, nil
}
