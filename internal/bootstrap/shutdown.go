package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/BrandishProgression_Go/internal/progression"
	"github.com/osse101/BrandishProgression_Go/internal/server"
)

// ShutdownComponents holds all components that need graceful shutdown.
// Nil fields are skipped.
type ShutdownComponents struct {
	Server             *server.Server
	ProgressionService progression.Service
	Events             *EventSystem
	Storage            *Storage
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (stop accepting new requests)
// 2. Progression service (wait for in-flight notifications)
// 3. Event publisher (flush the retry queue to the dead letter file)
// 4. Redis and the database pool
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if components.ProgressionService != nil {
		shutdownService(ctx, ServiceNameProgression, components.ProgressionService)
	}

	if components.Events != nil {
		if components.Events.Publisher != nil {
			slog.Info(LogMsgShuttingDownEventPublisher)
			if err := components.Events.Publisher.Shutdown(ctx); err != nil {
				slog.Error(LogMsgResilientPublisherFailed, "error", err)
			}
		}
		components.Events.closeRedis()
	}

	if components.Storage != nil {
		components.Storage.Close()
	}

	slog.Info(LogMsgServerStopped)
}

type shutdownableService interface {
	Shutdown(context.Context) error
}

func shutdownService(ctx context.Context, name string, service shutdownableService) {
	if err := service.Shutdown(ctx); err != nil {
		slog.Error(name+LogMsgServiceShutdownFailed, "error", err)
	}
}
