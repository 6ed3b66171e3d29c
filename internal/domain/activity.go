package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind identifies what an incoming activity event does to a user
type EventKind string

const (
	EventXPGrant    EventKind = "XP_GRANT"
	EventCoinGrant  EventKind = "COIN_GRANT"
	EventCoinSpend  EventKind = "COIN_SPEND"
	EventPurchase   EventKind = "PURCHASE"
	EventAssessment EventKind = "ASSESSMENT"
	EventStreakTick EventKind = "STREAK_TICK"
)

// Valid reports whether k is a known event kind
func (k EventKind) Valid() bool {
	switch k {
	case EventXPGrant, EventCoinGrant, EventCoinSpend, EventPurchase, EventAssessment, EventStreakTick:
		return true
	}
	return false
}

// AssessmentResult is the payload of an ASSESSMENT event
type AssessmentResult struct {
	Level    ProficiencyBand `json:"level"`
	Passed   bool            `json:"passed"`
	XPReward int64           `json:"xp_reward"`
}

// Event is a transient activity input. It is never persisted as such;
// only its IdempotencyKey is recorded once applied.
type Event struct {
	UserID         string            `json:"user_id"`
	Kind           EventKind         `json:"kind"`
	Amount         int64             `json:"amount,omitempty"`
	Spend          decimal.Decimal   `json:"spend,omitempty"`
	Assessment     *AssessmentResult `json:"assessment,omitempty"`
	Date           time.Time         `json:"date,omitempty"`
	Counters       map[string]int64  `json:"counters,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// Outcome reports how an event was handled
type Outcome string

const (
	OutcomeApplied          Outcome = "APPLIED"
	OutcomeDuplicateIgnored Outcome = "DUPLICATE_IGNORED"
)

// ApplyResult is returned by the progression service for every event
type ApplyResult struct {
	Outcome     Outcome       `json:"outcome"`
	View        UserLevelView `json:"progression"`
	NewBadges   []BadgeView   `json:"new_badges"`
	LeveledUp   bool          `json:"leveled_up"`
	TierChanged bool          `json:"tier_changed"`
}

// KeyScope namespaces consumed idempotency keys. Caller-supplied keys live
// in KeyScopeEvent; keys the engine derives for its own follow-up writes
// live in their own scopes and can never collide with a caller key.
type KeyScope string

const (
	KeyScopeEvent          KeyScope = "EVENT"
	KeyScopeBadgeReward    KeyScope = "BADGE_REWARD"
	KeyScopeCoinRedemption KeyScope = "COIN_REDEMPTION"
)
