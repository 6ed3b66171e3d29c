package repository

import (
	"context"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// Progression defines the data access interface for user progression
type Progression interface {
	GetProgression(ctx context.Context, userID string) (*domain.UserProgression, error)
	CreateProgression(ctx context.Context, p *domain.UserProgression) error
	GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error)
	// AcknowledgeNewBadges returns the badges still flagged new and clears the
	// flag in the same statement, so each badge is reported at most once.
	AcknowledgeNewBadges(ctx context.Context, userID string) ([]domain.UserBadge, error)
	SetBadgeDisplayed(ctx context.Context, userID, badgeCode string, displayed bool) error
	CountUsersAbove(ctx context.Context, totalXP int64) (int64, error)
	TopByXP(ctx context.Context, limit int) ([]domain.UserProgression, error)
	BeginTx(ctx context.Context) (ProgressionTx, error)
}

// ProgressionTx is one unit of work against a single user's aggregate.
// Everything written through it commits together or not at all.
type ProgressionTx interface {
	GetProgressionForUpdate(ctx context.Context, userID string) (*domain.UserProgression, error)
	// GetOrCreateProgressionForUpdate locks the user's row, creating it at
	// zero first when the user has never been seen. created reports whether
	// this transaction inserted the row.
	GetOrCreateProgressionForUpdate(ctx context.Context, userID string) (p *domain.UserProgression, created bool, err error)
	UpdateProgression(ctx context.Context, p *domain.UserProgression) error
	IsKeyConsumed(ctx context.Context, userID string, scope domain.KeyScope, key string) (bool, error)
	ConsumeKey(ctx context.Context, userID string, scope domain.KeyScope, key string, kind domain.EventKind) error
	GetOwnedBadgeCodes(ctx context.Context, userID string) (map[string]bool, error)
	// InsertUserBadge inserts the row if absent and reports whether it did
	InsertUserBadge(ctx context.Context, ub *domain.UserBadge) (bool, error)
	Tx
}

// BadgeCatalog defines read access to the badge catalog plus seeding
type BadgeCatalog interface {
	GetBadgeCatalog(ctx context.Context) ([]domain.Badge, error)
	UpsertBadges(ctx context.Context, badges []domain.Badge) error
}
