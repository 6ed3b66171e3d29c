package curve

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// Tier is one row of the loyalty table
type Tier struct {
	Name            string
	Threshold       decimal.Decimal // lifetime spend at which the tier starts (inclusive)
	DiscountPercent int
}

// TierInfo is the derived loyalty state for a spend total
type TierInfo struct {
	Tier            string
	DiscountPercent int
	NextTier        string
	NextTierAt      *decimal.Decimal // nil at the top tier
}

// LoyaltyCurve maps lifetime spend to a tier
type LoyaltyCurve struct {
	tiers []Tier
}

// NewLoyaltyCurve validates the table: the first tier starts at 0, thresholds
// strictly increase, discounts stay within [0,100] and never decrease.
func NewLoyaltyCurve(tiers []Tier) (*LoyaltyCurve, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: loyalty table is empty", domain.ErrInvalidCurve)
	}
	if !tiers[0].Threshold.IsZero() {
		return nil, fmt.Errorf("%w: lowest tier %s must start at 0, got %s",
			domain.ErrInvalidCurve, tiers[0].Name, tiers[0].Threshold)
	}

	seen := make(map[string]bool, len(tiers))
	for i, t := range tiers {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: tier %d has no name", domain.ErrInvalidCurve, i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: duplicate tier %s", domain.ErrInvalidCurve, t.Name)
		}
		seen[t.Name] = true

		if t.DiscountPercent < 0 || t.DiscountPercent > PercentScale {
			return nil, fmt.Errorf("%w: tier %s discount %d out of range", domain.ErrInvalidCurve, t.Name, t.DiscountPercent)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if !t.Threshold.GreaterThan(prev.Threshold) {
			return nil, fmt.Errorf("%w: tier %s threshold %s is not above %s threshold %s",
				domain.ErrInvalidCurve, t.Name, t.Threshold, prev.Name, prev.Threshold)
		}
		if t.DiscountPercent < prev.DiscountPercent {
			return nil, fmt.Errorf("%w: tier %s discount %d is below %s discount %d",
				domain.ErrInvalidCurve, t.Name, t.DiscountPercent, prev.Name, prev.DiscountPercent)
		}
	}

	table := make([]Tier, len(tiers))
	copy(table, tiers)
	return &LoyaltyCurve{tiers: table}, nil
}

// DefaultLoyaltyTiers returns the built-in table used when no config file is present
func DefaultLoyaltyTiers() []Tier {
	return []Tier{
		{Name: TierBronze, Threshold: decimal.Zero, DiscountPercent: 0},
		{Name: TierSilver, Threshold: decimal.NewFromInt(100), DiscountPercent: 5},
		{Name: TierGold, Threshold: decimal.NewFromInt(500), DiscountPercent: 10},
		{Name: TierPlatinum, Threshold: decimal.NewFromInt(2000), DiscountPercent: 15},
	}
}

// TierOf returns the highest tier whose threshold is <= totalSpent.
// A spend exactly on a boundary belongs to the higher tier.
func (c *LoyaltyCurve) TierOf(totalSpent decimal.Decimal) TierInfo {
	idx := 0
	for i := 1; i < len(c.tiers); i++ {
		if totalSpent.LessThan(c.tiers[i].Threshold) {
			break
		}
		idx = i
	}

	current := c.tiers[idx]
	info := TierInfo{
		Tier:            current.Name,
		DiscountPercent: current.DiscountPercent,
	}
	if idx+1 < len(c.tiers) {
		next := c.tiers[idx+1]
		at := next.Threshold
		info.NextTier = next.Name
		info.NextTierAt = &at
	}
	return info
}

// Tiers returns a copy of the table
func (c *LoyaltyCurve) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}
