package badge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/osse101/BrandishProgression_Go/internal/curve"
	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// Store is the part of a progression transaction the engine needs
type Store interface {
	GetOwnedBadgeCodes(ctx context.Context, userID string) (map[string]bool, error)
	InsertUserBadge(ctx context.Context, ub *domain.UserBadge) (bool, error)
}

// CoinGranter pays out badge rewards inside the same unit of work. A reward
// is deduplicated per user and badge code.
type CoinGranter interface {
	GrantBadgeReward(ctx context.Context, p *domain.UserProgression, badgeCode string, amount int64) error
}

// Engine evaluates the badge catalog against a progression snapshot
type Engine struct {
	catalog []domain.Badge
	byCode  map[string]domain.Badge
	levels  *curve.LevelCurve
	now     func() time.Time
}

// NewEngine validates the catalog and returns an engine. Duplicate codes,
// unknown predicate kinds or rarities are configuration errors.
func NewEngine(catalog []domain.Badge, levels *curve.LevelCurve) (*Engine, error) {
	if levels == nil {
		return nil, fmt.Errorf("%w: level curve is required", domain.ErrInvalidCurve)
	}

	byCode := make(map[string]domain.Badge, len(catalog))
	for _, b := range catalog {
		if err := validateBadge(b); err != nil {
			return nil, err
		}
		if _, dup := byCode[b.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate badge code %s", domain.ErrBadgeCatalogInconsistent, b.Code)
		}
		byCode[b.Code] = b
	}

	sorted := make([]domain.Badge, len(catalog))
	copy(sorted, catalog)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Rarity.Rank() != sorted[j].Rarity.Rank() {
			return sorted[i].Rarity.Rank() < sorted[j].Rarity.Rank()
		}
		return sorted[i].Code < sorted[j].Code
	})

	return &Engine{
		catalog: sorted,
		byCode:  byCode,
		levels:  levels,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func validateBadge(b domain.Badge) error {
	if b.Code == "" {
		return fmt.Errorf("%w: badge without code", domain.ErrBadgeCatalogInconsistent)
	}
	if !b.Rarity.Valid() {
		return fmt.Errorf("%w: badge %s has unknown rarity %q", domain.ErrBadgeCatalogInconsistent, b.Code, b.Rarity)
	}
	if b.CoinsReward < 0 {
		return fmt.Errorf("%w: badge %s has negative reward", domain.ErrBadgeCatalogInconsistent, b.Code)
	}
	if b.Criteria.Threshold < 0 {
		return fmt.Errorf("%w: badge %s has negative threshold", domain.ErrBadgeCatalogInconsistent, b.Code)
	}

	switch b.Criteria.Kind {
	case domain.CriterionXPAtLeast, domain.CriterionLevelAtLeast,
		domain.CriterionStreakAtLeast, domain.CriterionPurchasesAtLeast:
		return nil
	case domain.CriterionCounterAtLeast:
		if b.Criteria.Counter == "" {
			return fmt.Errorf("%w: badge %s counter criterion names no counter", domain.ErrBadgeCatalogInconsistent, b.Code)
		}
		return nil
	default:
		return fmt.Errorf("%w: badge %s has unknown criterion %q", domain.ErrBadgeCatalogInconsistent, b.Code, b.Criteria.Kind)
	}
}

// Catalog returns the catalog in evaluation order
func (e *Engine) Catalog() []domain.Badge {
	out := make([]domain.Badge, len(e.catalog))
	copy(out, e.catalog)
	return out
}

// Lookup returns the catalog entry for code
func (e *Engine) Lookup(code string) (domain.Badge, bool) {
	b, ok := e.byCode[code]
	return b, ok
}

// Satisfied reports whether p and counters meet b's criteria
func (e *Engine) Satisfied(b domain.Badge, p *domain.UserProgression, counters map[string]int64) bool {
	n := b.Criteria.Threshold
	switch b.Criteria.Kind {
	case domain.CriterionXPAtLeast:
		return p.TotalXP >= n
	case domain.CriterionLevelAtLeast:
		return int64(e.levels.LevelOf(p.TotalXP).Level) >= n
	case domain.CriterionStreakAtLeast:
		return int64(p.ConsecutiveDays) >= n
	case domain.CriterionPurchasesAtLeast:
		return p.PurchaseCount >= n
	case domain.CriterionCounterAtLeast:
		return counters[b.Criteria.Counter] >= n
	}
	return false
}

// Evaluate awards every active, unowned badge whose criteria p now meets.
// The caller must hold the user's lock and pass the open transaction as
// store; the owned check, the insert and the coin reward all go through it.
// A badge the store reports as already present is skipped, so running
// Evaluate twice for the same state never awards twice.
func (e *Engine) Evaluate(ctx context.Context, store Store, coins CoinGranter, p *domain.UserProgression, counters map[string]int64) ([]domain.UserBadge, error) {
	owned, err := store.GetOwnedBadgeCodes(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owned badges: %w", err)
	}

	var awarded []domain.UserBadge
	for _, b := range e.catalog {
		if !b.IsActive || owned[b.Code] {
			continue
		}
		if !e.Satisfied(b, p, counters) {
			continue
		}

		ub := domain.UserBadge{
			UserID:    p.UserID,
			BadgeCode: b.Code,
			EarnedAt:  e.now(),
			IsNew:     true,
		}
		inserted, err := store.InsertUserBadge(ctx, &ub)
		if err != nil {
			return nil, fmt.Errorf("failed to award badge %s: %w", b.Code, err)
		}
		if !inserted {
			continue
		}
		owned[b.Code] = true

		if b.CoinsReward > 0 {
			err := coins.GrantBadgeReward(ctx, p, b.Code, b.CoinsReward)
			if err != nil && !errors.Is(err, domain.ErrDuplicateIgnored) {
				return nil, fmt.Errorf("failed to grant reward for badge %s: %w", b.Code, err)
			}
		}
		awarded = append(awarded, ub)
	}

	return awarded, nil
}

// Views joins earned badges with the catalog. An earned code missing from
// the catalog aborts with ErrBadgeCatalogInconsistent.
func (e *Engine) Views(earned []domain.UserBadge) ([]domain.BadgeView, error) {
	views := make([]domain.BadgeView, 0, len(earned))
	for _, ub := range earned {
		b, ok := e.byCode[ub.BadgeCode]
		if !ok {
			return nil, fmt.Errorf("%w: user %s owns unknown badge %s",
				domain.ErrBadgeCatalogInconsistent, ub.UserID, ub.BadgeCode)
		}
		views = append(views, domain.BadgeView{
			Code:        b.Code,
			Name:        b.Name,
			Description: b.Description,
			Type:        b.Type,
			Rarity:      b.Rarity,
			CoinsReward: b.CoinsReward,
			EarnedAt:    ub.EarnedAt,
			IsNew:       ub.IsNew,
			IsDisplayed: ub.IsDisplayed,
		})
	}
	return views, nil
}
