package handler

import (
	"github.com/shopspring/decimal"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// InitRequest creates a user's progression record
type InitRequest struct {
	UserID        string `json:"user_id" validate:"required,max=128"`
	AssessedLevel string `json:"assessed_level,omitempty" validate:"omitempty,band"`
}

// GrantRequest carries one XP or coin delta. Counters are optional
// collaborator-reported values evaluated by counter badges.
type GrantRequest struct {
	UserID         string           `json:"user_id" validate:"required,max=128"`
	Amount         int64            `json:"amount"`
	IdempotencyKey string           `json:"idempotency_key" validate:"required,max=256"`
	Counters       map[string]int64 `json:"counters,omitempty"`
}

// PurchaseRequest records a real-money purchase, optionally paid partly in coins
type PurchaseRequest struct {
	UserID         string           `json:"user_id" validate:"required,max=128"`
	Spend          decimal.Decimal  `json:"spend"`
	CoinsRedeemed  int64            `json:"coins_redeemed,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty" validate:"max=256"`
	Counters       map[string]int64 `json:"counters,omitempty"`
}

// AssessmentRequest reports a proficiency assessment result
type AssessmentRequest struct {
	UserID         string `json:"user_id" validate:"required,max=128"`
	Level          string `json:"level" validate:"required,band"`
	Passed         bool   `json:"passed"`
	XPReward       int64  `json:"xp_reward"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"max=256"`
}

// StreakRequest reports activity on a calendar day. Date defaults to today (UTC).
type StreakRequest struct {
	UserID         string `json:"user_id" validate:"required,max=128"`
	Date           string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"max=256"`
}

// EvaluateBadgesRequest submits collaborator counters for badge evaluation
type EvaluateBadgesRequest struct {
	UserID   string           `json:"user_id" validate:"required,max=128"`
	Counters map[string]int64 `json:"counters" validate:"required"`
}

// BadgeDisplayRequest toggles whether an earned badge is shown
type BadgeDisplayRequest struct {
	UserID    string `json:"user_id" validate:"required,max=128"`
	BadgeCode string `json:"badge_code" validate:"required,max=64"`
	Displayed bool   `json:"displayed"`
}

// BadgesResponse lists badge views
type BadgesResponse struct {
	Badges []domain.BadgeView `json:"badges"`
}

// LeaderboardResponse lists the top users by XP
type LeaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}
