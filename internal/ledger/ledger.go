package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// KeyStore records consumed idempotency keys per scope. Implementations must
// scope writes to the caller's transaction so a rolled back event frees its key.
type KeyStore interface {
	IsKeyConsumed(ctx context.Context, userID string, scope domain.KeyScope, key string) (bool, error)
	ConsumeKey(ctx context.Context, userID string, scope domain.KeyScope, key string, kind domain.EventKind) error
}

// Ledger applies XP, coin and spend deltas to a working copy of a user's
// progression. The caller owns the per-user lock and the transaction; the
// ledger never persists the progression itself.
type Ledger struct {
	keys KeyStore
}

// New creates a ledger bound to the key store of the current transaction
func New(keys KeyStore) *Ledger {
	return &Ledger{keys: keys}
}

// GrantXP adds amount to TotalXP. Grants must carry an idempotency key.
func (l *Ledger) GrantXP(ctx context.Context, p *domain.UserProgression, key string, amount int64) error {
	if key == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgKeyRequired)
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount > math.MaxInt64-p.TotalXP {
		return fmt.Errorf("%w: xp total would overflow", domain.ErrInvalidAmount)
	}
	if err := l.checkKey(ctx, p.UserID, domain.KeyScopeEvent, key); err != nil {
		return err
	}

	p.TotalXP += amount
	return l.consume(ctx, p.UserID, domain.KeyScopeEvent, key, domain.EventXPGrant)
}

// GrantCoins adds amount to the coin balance. Grants must carry an idempotency key.
func (l *Ledger) GrantCoins(ctx context.Context, p *domain.UserProgression, key string, amount int64) error {
	if key == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgKeyRequired)
	}
	return l.addCoins(ctx, p, domain.KeyScopeEvent, key, amount, domain.EventCoinGrant)
}

// GrantBadgeReward credits the coin reward of a badge at most once per
// user and badge code. Reward keys never collide with caller event keys.
func (l *Ledger) GrantBadgeReward(ctx context.Context, p *domain.UserProgression, badgeCode string, amount int64) error {
	if badgeCode == "" {
		return fmt.Errorf("%w: badge code is required", domain.ErrInvalidInput)
	}
	return l.addCoins(ctx, p, domain.KeyScopeBadgeReward, badgeCode, amount, domain.EventCoinGrant)
}

func (l *Ledger) addCoins(ctx context.Context, p *domain.UserProgression, scope domain.KeyScope, key string, amount int64, kind domain.EventKind) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount > math.MaxInt64-p.Coins {
		return fmt.Errorf("%w: coin balance would overflow", domain.ErrInvalidAmount)
	}
	if err := l.checkKey(ctx, p.UserID, scope, key); err != nil {
		return err
	}

	p.Coins += amount
	return l.consume(ctx, p.UserID, scope, key, kind)
}

// SpendCoins removes amount from the balance. The balance never goes negative;
// an overdraft leaves p untouched.
func (l *Ledger) SpendCoins(ctx context.Context, p *domain.UserProgression, key string, amount int64) error {
	return l.removeCoins(ctx, p, domain.KeyScopeEvent, key, amount)
}

// RedeemCoins spends coins against the purchase identified by purchaseKey.
// The redemption is deduplicated apart from caller event keys.
func (l *Ledger) RedeemCoins(ctx context.Context, p *domain.UserProgression, purchaseKey string, amount int64) error {
	return l.removeCoins(ctx, p, domain.KeyScopeCoinRedemption, purchaseKey, amount)
}

func (l *Ledger) removeCoins(ctx context.Context, p *domain.UserProgression, scope domain.KeyScope, key string, amount int64) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := l.checkKey(ctx, p.UserID, scope, key); err != nil {
		return err
	}
	if amount > p.Coins {
		return fmt.Errorf("%w: need %d, have %d", domain.ErrInsufficientBalance, amount, p.Coins)
	}

	p.Coins -= amount
	return l.consume(ctx, p.UserID, scope, key, domain.EventCoinSpend)
}

// RecordPurchase adds spend to the lifetime total and counts the purchase.
// The loyalty tier is derived from TotalSpent by the caller.
func (l *Ledger) RecordPurchase(ctx context.Context, p *domain.UserProgression, key string, spend decimal.Decimal) error {
	if spend.IsNegative() {
		return fmt.Errorf("%w: spend %s", domain.ErrInvalidAmount, spend)
	}
	if err := l.checkKey(ctx, p.UserID, domain.KeyScopeEvent, key); err != nil {
		return err
	}

	p.TotalSpent = p.TotalSpent.Add(spend)
	p.PurchaseCount++
	return l.consume(ctx, p.UserID, domain.KeyScopeEvent, key, domain.EventPurchase)
}

// RecordAssessment stores the assessed band, raises the certified band on
// a pass, and grants the attached XP reward.
func (l *Ledger) RecordAssessment(ctx context.Context, p *domain.UserProgression, key string, result domain.AssessmentResult) error {
	if !result.Level.Valid() {
		return fmt.Errorf("%w: unknown proficiency band %q", domain.ErrInvalidInput, result.Level)
	}
	if err := validateAmount(result.XPReward); err != nil {
		return err
	}
	if result.XPReward > math.MaxInt64-p.TotalXP {
		return fmt.Errorf("%w: xp total would overflow", domain.ErrInvalidAmount)
	}
	if err := l.checkKey(ctx, p.UserID, domain.KeyScopeEvent, key); err != nil {
		return err
	}

	band := result.Level
	p.AssessedLevel = &band
	if result.Passed && (p.CertifiedLevel == nil || band.Rank() > p.CertifiedLevel.Rank()) {
		certified := band
		p.CertifiedLevel = &certified
	}
	p.TotalXP += result.XPReward
	return l.consume(ctx, p.UserID, domain.KeyScopeEvent, key, domain.EventAssessment)
}

// ApplyStreakTick updates ConsecutiveDays for activity on date (UTC calendar day).
// Same day or an earlier day: unchanged. The day after the last active day: +1.
// Any longer gap restarts the streak at 1.
func (l *Ledger) ApplyStreakTick(ctx context.Context, p *domain.UserProgression, key string, date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: streak date is required", domain.ErrInvalidInput)
	}
	if err := l.checkKey(ctx, p.UserID, domain.KeyScopeEvent, key); err != nil {
		return err
	}

	day := truncateDay(date)
	switch {
	case p.LastActiveDate == nil:
		p.ConsecutiveDays = 1
		p.LastActiveDate = &day
	case day.Equal(*p.LastActiveDate), day.Before(*p.LastActiveDate):
		// already counted
	case day.Equal(p.LastActiveDate.AddDate(0, 0, 1)):
		p.ConsecutiveDays++
		p.LastActiveDate = &day
	default:
		p.ConsecutiveDays = 1
		p.LastActiveDate = &day
	}
	return l.consume(ctx, p.UserID, domain.KeyScopeEvent, key, domain.EventStreakTick)
}

func (l *Ledger) checkKey(ctx context.Context, userID string, scope domain.KeyScope, key string) error {
	if key == "" {
		return nil
	}
	consumed, err := l.keys.IsKeyConsumed(ctx, userID, scope, key)
	if err != nil {
		return fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if consumed {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateIgnored, key)
	}
	return nil
}

func (l *Ledger) consume(ctx context.Context, userID string, scope domain.KeyScope, key string, kind domain.EventKind) error {
	if key == "" {
		return nil
	}
	if err := l.keys.ConsumeKey(ctx, userID, scope, key, kind); err != nil {
		return fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return nil
}

// ErrMsgKeyRequired is returned for grants without an idempotency key
const ErrMsgKeyRequired = "idempotency key is required for grants"

func validateAmount(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidAmount, amount)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
