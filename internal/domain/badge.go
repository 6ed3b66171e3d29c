package domain

import "time"

// Rarity is the ordered tier of a badge
type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

var rarityOrder = map[Rarity]int{
	RarityCommon:    1,
	RarityUncommon:  2,
	RarityRare:      3,
	RarityEpic:      4,
	RarityLegendary: 5,
}

// Valid reports whether r is a known rarity
func (r Rarity) Valid() bool {
	_, ok := rarityOrder[r]
	return ok
}

// Rank returns the ordinal of the rarity (0 for unknown)
func (r Rarity) Rank() int {
	return rarityOrder[r]
}

// CriterionKind is the closed set of badge predicates
type CriterionKind string

const (
	CriterionXPAtLeast        CriterionKind = "XP_AT_LEAST"
	CriterionLevelAtLeast     CriterionKind = "LEVEL_AT_LEAST"
	CriterionStreakAtLeast    CriterionKind = "STREAK_AT_LEAST"
	CriterionPurchasesAtLeast CriterionKind = "PURCHASES_AT_LEAST"
	CriterionCounterAtLeast   CriterionKind = "COUNTER_AT_LEAST"
)

// Criteria describes when a badge is earned. Counter is only used by
// COUNTER_AT_LEAST.
type Criteria struct {
	Kind      CriterionKind `json:"kind" yaml:"kind"`
	Threshold int64         `json:"threshold" yaml:"threshold"`
	Counter   string        `json:"counter,omitempty" yaml:"counter,omitempty"`
}

// Badge is an immutable catalog entry
type Badge struct {
	Code        string   `json:"code" yaml:"code"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Type        string   `json:"type" yaml:"type"`
	Rarity      Rarity   `json:"rarity" yaml:"rarity"`
	CoinsReward int64    `json:"coins_reward" yaml:"coins_reward"`
	IsActive    bool     `json:"is_active" yaml:"is_active"`
	Criteria    Criteria `json:"criteria" yaml:"criteria"`
}

// UserBadge links a user to an earned badge. Unique per (UserID, BadgeCode).
type UserBadge struct {
	UserID      string    `json:"user_id"`
	BadgeCode   string    `json:"badge_code"`
	EarnedAt    time.Time `json:"earned_at"`
	IsNew       bool      `json:"is_new"`
	IsDisplayed bool      `json:"is_displayed"`
}

// BadgeView joins an earned badge with its catalog entry for API responses
type BadgeView struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Rarity      Rarity    `json:"rarity"`
	CoinsReward int64     `json:"coins_reward"`
	EarnedAt    time.Time `json:"earned_at"`
	IsNew       bool      `json:"is_new"`
	IsDisplayed bool      `json:"is_displayed"`
}
