package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/osse101/BrandishProgression_Go/internal/bootstrap"
	"github.com/osse101/BrandishProgression_Go/internal/config"
	"github.com/osse101/BrandishProgression_Go/internal/handler"
	"github.com/osse101/BrandishProgression_Go/internal/progression"
	"github.com/osse101/BrandishProgression_Go/internal/rank"
	"github.com/osse101/BrandishProgression_Go/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	bootstrap.SetupLogger(cfg)

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prog, err := config.LoadProgression(cfg.ProgressionConfigPath)
	if err != nil {
		return err
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}

	engine, err := bootstrap.SyncBadgeCatalog(ctx, storage.Catalog, prog.Badges, prog.Levels)
	if err != nil {
		storage.Close()
		return err
	}

	events, err := bootstrap.InitializeEventSystem(ctx, cfg)
	if err != nil {
		storage.Close()
		return err
	}

	ranks := rank.NewAggregator(storage.Progression, prog.Levels, cfg.RankCacheTTL)
	svc := progression.NewService(storage.Progression, prog.Levels, prog.Loyalty, engine, ranks, events.Publisher)

	readiness := events.Readiness()
	if storage.Pool != nil {
		readiness["database"] = storage.Pool
	}
	handler.Version = cfg.Version
	srv := server.NewServer(server.Options{
		Port:           cfg.Port,
		TrustedProxies: cfg.TrustedProxies,
		Readiness:      readiness,
	}, svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
			Server:             srv,
			ProgressionService: svc,
			Events:             events,
			Storage:            storage,
		})
		return nil
	})

	return g.Wait()
}
