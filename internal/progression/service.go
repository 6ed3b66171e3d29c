package progression

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/BrandishProgression_Go/internal/badge"
	"github.com/osse101/BrandishProgression_Go/internal/concurrency"
	"github.com/osse101/BrandishProgression_Go/internal/curve"
	"github.com/osse101/BrandishProgression_Go/internal/domain"
	"github.com/osse101/BrandishProgression_Go/internal/event"
	"github.com/osse101/BrandishProgression_Go/internal/ledger"
	"github.com/osse101/BrandishProgression_Go/internal/logger"
	"github.com/osse101/BrandishProgression_Go/internal/metrics"
	"github.com/osse101/BrandishProgression_Go/internal/rank"
	"github.com/osse101/BrandishProgression_Go/internal/repository"
)

// Service defines the progression engine operations
type Service interface {
	// Initialize creates a user's progression record
	Initialize(ctx context.Context, userID string, assessed *domain.ProficiencyBand) (*domain.UserLevelView, error)

	// ApplyEvent applies one activity event exactly once per idempotency key
	ApplyEvent(ctx context.Context, evt domain.Event) (*domain.ApplyResult, error)

	// EvaluateBadges checks the catalog against collaborator-reported counters
	EvaluateBadges(ctx context.Context, userID string, counters map[string]int64) (*domain.ApplyResult, error)

	// Reads
	GetLevel(ctx context.Context, userID string) (*domain.UserLevelView, error)
	GetBadges(ctx context.Context, userID string) ([]domain.BadgeView, error)
	GetNewBadges(ctx context.Context, userID string) ([]domain.BadgeView, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)

	// SetBadgeDisplayed toggles whether an earned badge shows on the profile
	SetBadgeDisplayed(ctx context.Context, userID, badgeCode string, displayed bool) error

	// Shutdown waits for in-flight notifications
	Shutdown(ctx context.Context) error
}

type service struct {
	repo    repository.Progression
	levels  *curve.LevelCurve
	loyalty *curve.LoyaltyCurve
	badges  *badge.Engine
	ranks   *rank.Aggregator
	locks   *concurrency.LockManager
	bus     event.Bus

	// Graceful shutdown support
	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService creates a new progression service. bus may be nil, in which
// case nothing is published.
func NewService(repo repository.Progression, levels *curve.LevelCurve, loyalty *curve.LoyaltyCurve,
	badges *badge.Engine, ranks *rank.Aggregator, bus event.Bus) Service {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	return &service{
		repo:           repo,
		levels:         levels,
		loyalty:        loyalty,
		badges:         badges,
		ranks:          ranks,
		locks:          concurrency.NewLockManager(),
		bus:            bus,
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
}

func (s *service) Initialize(ctx context.Context, userID string, assessed *domain.ProficiencyBand) (*domain.UserLevelView, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	if assessed != nil && !assessed.Valid() {
		return nil, fmt.Errorf("%w: unknown proficiency band %q", domain.ErrInvalidInput, *assessed)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	p := &domain.UserProgression{UserID: userID}
	if assessed != nil {
		b := *assessed
		p.AssessedLevel = &b
	}
	if err := s.repo.CreateProgression(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to initialize progression: %w", err)
	}
	s.ranks.Invalidate()

	logger.FromContext(ctx).Info(LogMsgUserInitialized, "user_id", userID)
	return s.GetLevel(ctx, userID)
}

func (s *service) ApplyEvent(ctx context.Context, evt domain.Event) (*domain.ApplyResult, error) {
	log := logger.FromContext(ctx)

	if err := validateEvent(evt); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(evt.UserID)
	res, notes, err := s.applyLocked(ctx, evt)
	unlock()

	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIgnored) {
			metrics.RecordEventApplied(string(evt.Kind), string(domain.OutcomeDuplicateIgnored))
			log.Debug(LogMsgDuplicateIgnored, "user_id", evt.UserID, "key", evt.IdempotencyKey)
			view, verr := s.GetLevel(ctx, evt.UserID)
			if verr != nil {
				return nil, verr
			}
			return &domain.ApplyResult{Outcome: domain.OutcomeDuplicateIgnored, View: *view, NewBadges: []domain.BadgeView{}}, nil
		}
		return nil, err
	}

	metrics.RecordEventApplied(string(evt.Kind), string(domain.OutcomeApplied))
	s.publish(ctx, notes)
	s.attachRank(ctx, &res.View)
	return res, nil
}

// applyLocked runs the whole unit of work while the caller holds the user lock
func (s *service) applyLocked(ctx context.Context, evt domain.Event) (*domain.ApplyResult, []event.Event, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	// first contact creates the row at zero
	p, _, err := tx.GetOrCreateProgressionForUpdate(ctx, evt.UserID)
	if err != nil {
		return nil, nil, err
	}
	before := p.Clone()
	led := ledger.New(tx)

	var spent int64
	switch evt.Kind {
	case domain.EventXPGrant:
		err = led.GrantXP(ctx, p, evt.IdempotencyKey, evt.Amount)
	case domain.EventCoinGrant:
		err = led.GrantCoins(ctx, p, evt.IdempotencyKey, evt.Amount)
	case domain.EventCoinSpend:
		err = led.SpendCoins(ctx, p, evt.IdempotencyKey, evt.Amount)
		spent = evt.Amount
	case domain.EventPurchase:
		err = led.RecordPurchase(ctx, p, evt.IdempotencyKey, evt.Spend)
		if err == nil && evt.Amount > 0 {
			// coins redeemed against the purchase
			err = led.RedeemCoins(ctx, p, evt.IdempotencyKey, evt.Amount)
			spent = evt.Amount
		}
	case domain.EventAssessment:
		err = led.RecordAssessment(ctx, p, evt.IdempotencyKey, *evt.Assessment)
	case domain.EventStreakTick:
		err = led.ApplyStreakTick(ctx, p, evt.IdempotencyKey, evt.Date)
	}
	if err != nil {
		return nil, nil, err
	}

	awarded, err := s.badges.Evaluate(ctx, tx, led, p, evt.Counters)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.UpdateProgression(ctx, p); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit progression: %w", err)
	}
	s.ranks.Invalidate()

	metrics.RecordDeltas(p.TotalXP-before.TotalXP, p.Coins-before.Coins+spent, spent)
	return s.buildResult(before, p, awarded)
}

func (s *service) EvaluateBadges(ctx context.Context, userID string, counters map[string]int64) (*domain.ApplyResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}

	unlock := s.locks.Lock(userID)
	res, notes, err := s.evaluateLocked(ctx, userID, counters)
	unlock()
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notes)
	s.attachRank(ctx, &res.View)
	return res, nil
}

func (s *service) evaluateLocked(ctx context.Context, userID string, counters map[string]int64) (*domain.ApplyResult, []event.Event, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	p, created, err := tx.GetOrCreateProgressionForUpdate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	before := p.Clone()

	awarded, err := s.badges.Evaluate(ctx, tx, ledger.New(tx), p, counters)
	if err != nil {
		return nil, nil, err
	}
	if created || len(awarded) > 0 {
		if err := tx.UpdateProgression(ctx, p); err != nil {
			return nil, nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to commit badges: %w", err)
		}
		if created {
			s.ranks.Invalidate()
		}
		metrics.RecordDeltas(0, p.Coins-before.Coins, 0)
	}
	return s.buildResult(before, p, awarded)
}

func (s *service) GetLevel(ctx context.Context, userID string) (*domain.UserLevelView, error) {
	p, err := s.repo.GetProgression(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.view(p)
	s.attachRank(ctx, &view)
	return &view, nil
}

func (s *service) GetBadges(ctx context.Context, userID string) ([]domain.BadgeView, error) {
	earned, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.badges.Views(earned)
}

// GetNewBadges returns and acknowledges unseen badges. Badges stay unseen
// when any of them is missing from the catalog.
func (s *service) GetNewBadges(ctx context.Context, userID string) ([]domain.BadgeView, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	earned, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending := make([]domain.UserBadge, 0, len(earned))
	for _, ub := range earned {
		if ub.IsNew {
			pending = append(pending, ub)
		}
	}
	if _, err := s.badges.Views(pending); err != nil {
		return nil, err
	}

	fresh, err := s.repo.AcknowledgeNewBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.badges.Views(fresh)
}

func (s *service) SetBadgeDisplayed(ctx context.Context, userID, badgeCode string, displayed bool) error {
	if userID == "" || badgeCode == "" {
		return fmt.Errorf("%w: user id and badge code are required", domain.ErrInvalidInput)
	}
	return s.repo.SetBadgeDisplayed(ctx, userID, badgeCode, displayed)
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return s.ranks.Leaderboard(ctx, limit)
}

// Shutdown gracefully shuts down the progression service
func (s *service) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down progression service")

	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Progression service shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn("Progression service shutdown timed out")
		return ctx.Err()
	}
}

func (s *service) view(p *domain.UserProgression) domain.UserLevelView {
	lvl := s.levels.LevelOf(p.TotalXP)
	tier := s.loyalty.TierOf(p.TotalSpent)
	return domain.UserLevelView{
		UserID:             p.UserID,
		AssessedLevel:      p.AssessedLevel,
		CertifiedLevel:     p.CertifiedLevel,
		CurrentXP:          p.TotalXP - lvl.CurrentLevelFloor,
		TotalXP:            p.TotalXP,
		XPForNextLevel:     lvl.XPForNextLevel,
		ProgressPercentage: lvl.ProgressPercentage,
		Level:              lvl.Level,
		Coins:              p.Coins,
		LoyaltyTier:        tier.Tier,
		Discount:           tier.DiscountPercent,
		TotalSpent:         p.TotalSpent,
		ConsecutiveDays:    p.ConsecutiveDays,
	}
}

// attachRank fills in the rank. A rank failure is logged, never fatal:
// the write it follows has already committed.
func (s *service) attachRank(ctx context.Context, view *domain.UserLevelView) {
	r, err := s.ranks.RankOf(ctx, view.TotalXP)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgRankFailed, "user_id", view.UserID, "error", err)
		return
	}
	view.Rank = r
}

func (s *service) buildResult(before, after *domain.UserProgression, awarded []domain.UserBadge) (*domain.ApplyResult, []event.Event, error) {
	views, err := s.badges.Views(awarded)
	if err != nil {
		return nil, nil, err
	}

	oldLevel := s.levels.LevelOf(before.TotalXP).Level
	oldTier := s.loyalty.TierOf(before.TotalSpent).Tier
	view := s.view(after)

	res := &domain.ApplyResult{
		Outcome:     domain.OutcomeApplied,
		View:        view,
		NewBadges:   views,
		LeveledUp:   view.Level > oldLevel,
		TierChanged: view.LoyaltyTier != oldTier,
	}

	var notes []event.Event
	if res.LeveledUp {
		notes = append(notes, event.NewLevelUpEvent(after.UserID, oldLevel, view.Level, after.TotalXP))
	}
	for _, b := range views {
		notes = append(notes, event.NewBadgeEarnedEvent(after.UserID, b))
	}
	if res.TierChanged {
		notes = append(notes, event.NewTierChangedEvent(after.UserID, oldTier, view.LoyaltyTier,
			view.Discount, after.TotalSpent.String()))
	}
	return res, notes, nil
}

// publish hands notifications to the bus in the background. Delivery is
// best effort and never changes the outcome of the event.
func (s *service) publish(ctx context.Context, notes []event.Event) {
	if s.bus == nil || len(notes) == 0 {
		return
	}

	reqID := logger.GetRequestID(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.shutdownCtx, publishTimeout)
		defer cancel()
		if reqID != "" {
			ctx = logger.WithRequestID(ctx, reqID)
		}

		for _, n := range notes {
			if err := s.bus.Publish(ctx, n); err != nil {
				logger.FromContext(ctx).Warn(LogMsgPublishFailed, "event_type", n.Type, "error", err)
			}
		}
	}()
}

func validateEvent(evt domain.Event) error {
	if evt.UserID == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgUserIDRequired)
	}
	if !evt.Kind.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", domain.ErrInvalidInput, evt.Kind)
	}
	if (evt.Kind == domain.EventXPGrant || evt.Kind == domain.EventCoinGrant) && evt.IdempotencyKey == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, ledger.ErrMsgKeyRequired)
	}
	if evt.Kind == domain.EventAssessment && evt.Assessment == nil {
		return fmt.Errorf("%w: assessment result is required", domain.ErrInvalidInput)
	}
	return nil
}

const publishTimeout = 30 * time.Second
