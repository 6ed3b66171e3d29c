package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/BrandishProgression_Go/internal/badge"
	"github.com/osse101/BrandishProgression_Go/internal/curve"
	"github.com/osse101/BrandishProgression_Go/internal/domain"
	"github.com/osse101/BrandishProgression_Go/internal/repository"
)

// SyncBadgeCatalog seeds the store with the configured badges, reads the
// catalog back and builds the rule engine from what the store holds. Rows
// that exist only in the store (added by other deployments) are kept.
func SyncBadgeCatalog(ctx context.Context, catalog repository.BadgeCatalog, seed []domain.Badge, levels *curve.LevelCurve) (*badge.Engine, error) {
	if len(seed) > 0 {
		if err := catalog.UpsertBadges(ctx, seed); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedSeedCatalog, err)
		}
	}

	badges, err := catalog.GetBadgeCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedLoadCatalog, err)
	}

	engine, err := badge.NewEngine(badges, levels)
	if err != nil {
		return nil, err
	}

	slog.Info(LogMsgCatalogSynced, "seeded", len(seed), "total", len(badges))
	return engine, nil
}
