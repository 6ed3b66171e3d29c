package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrandishProgression_Go/internal/config"
	"github.com/osse101/BrandishProgression_Go/internal/database"
	"github.com/osse101/BrandishProgression_Go/internal/database/memory"
	"github.com/osse101/BrandishProgression_Go/internal/database/migrations"
	"github.com/osse101/BrandishProgression_Go/internal/database/postgres"
	"github.com/osse101/BrandishProgression_Go/internal/repository"
)

// Storage holds the repositories for the selected store driver. Pool is
// nil for the in-memory driver.
type Storage struct {
	Progression repository.Progression
	Catalog     repository.BadgeCatalog
	Pool        *pgxpool.Pool
}

// OpenStorage connects the store named by cfg.StoreDriver. For postgres it
// opens the pool and applies the embedded migrations before returning.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		store := memory.NewStore()
		slog.Info(LogMsgStorageReady, "driver", config.StoreDriverMemory)
		return &Storage{Progression: store, Catalog: store}, nil
	}

	pool, err := database.NewPool(ctx, cfg.GetDBConnString(), database.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedOpenDatabase, err)
	}

	if err := migrations.Up(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrate, err)
	}
	slog.Info(LogMsgMigrationsApplied)

	repo := postgres.NewProgressionRepository(pool)
	slog.Info(LogMsgStorageReady, "driver", config.StoreDriverPostgres)
	return &Storage{Progression: repo, Catalog: repo, Pool: pool}, nil
}

// Close releases the database pool, if any
func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}
