package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProficiencyBand is an ordered proficiency level reported by assessments
type ProficiencyBand string

const (
	BandA1 ProficiencyBand = "A1"
	BandA2 ProficiencyBand = "A2"
	BandB1 ProficiencyBand = "B1"
	BandB2 ProficiencyBand = "B2"
	BandC1 ProficiencyBand = "C1"
	BandC2 ProficiencyBand = "C2"
)

var bandOrder = map[ProficiencyBand]int{
	BandA1: 1,
	BandA2: 2,
	BandB1: 3,
	BandB2: 4,
	BandC1: 5,
	BandC2: 6,
}

// Valid reports whether b is one of the known bands
func (b ProficiencyBand) Valid() bool {
	_, ok := bandOrder[b]
	return ok
}

// Rank returns the ordinal of the band (0 for unknown)
func (b ProficiencyBand) Rank() int {
	return bandOrder[b]
}

// UserProgression is the per-user aggregate. Level, loyalty tier and
// progress are derived from TotalXP and TotalSpent on every read and are
// deliberately absent here.
type UserProgression struct {
	UserID          string           `json:"user_id"`
	TotalXP         int64            `json:"total_xp"`
	Coins           int64            `json:"coins"`
	TotalSpent      decimal.Decimal  `json:"total_spent"`
	PurchaseCount   int64            `json:"purchase_count"`
	ConsecutiveDays int              `json:"consecutive_days"`
	LastActiveDate  *time.Time       `json:"last_active_date,omitempty"`
	AssessedLevel   *ProficiencyBand `json:"assessed_level,omitempty"`
	CertifiedLevel  *ProficiencyBand `json:"certified_level,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Clone returns a deep copy so a unit of work can mutate freely and be
// discarded on failure.
func (p *UserProgression) Clone() *UserProgression {
	c := *p
	if p.LastActiveDate != nil {
		d := *p.LastActiveDate
		c.LastActiveDate = &d
	}
	if p.AssessedLevel != nil {
		b := *p.AssessedLevel
		c.AssessedLevel = &b
	}
	if p.CertifiedLevel != nil {
		b := *p.CertifiedLevel
		c.CertifiedLevel = &b
	}
	return &c
}

// UserLevelView is the public projection returned to callers
type UserLevelView struct {
	UserID             string           `json:"user_id"`
	AssessedLevel      *ProficiencyBand `json:"assessed_level"`
	CertifiedLevel     *ProficiencyBand `json:"certified_level"`
	CurrentXP          int64            `json:"current_xp"` // XP earned inside the current level
	TotalXP            int64            `json:"total_xp"`
	XPForNextLevel     *int64           `json:"xp_for_next_level"`
	ProgressPercentage int              `json:"progress_percentage"`
	Level              int              `json:"level"`
	Coins              int64            `json:"coins"`
	LoyaltyTier        string           `json:"loyalty_tier"`
	Discount           int              `json:"discount"`
	TotalSpent         decimal.Decimal  `json:"total_spent"`
	ConsecutiveDays    int              `json:"consecutive_days"`
	Rank               int64            `json:"rank,omitempty"`
}

// LeaderboardEntry is one row of the XP leaderboard
type LeaderboardEntry struct {
	UserID  string `json:"user_id"`
	TotalXP int64  `json:"total_xp"`
	Level   int    `json:"level"`
	Rank    int64  `json:"rank"`
}
