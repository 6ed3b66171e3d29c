package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/osse101/BrandishProgression_Go/internal/config"
	"github.com/osse101/BrandishProgression_Go/internal/event"
	"github.com/osse101/BrandishProgression_Go/internal/handler"
	"github.com/osse101/BrandishProgression_Go/internal/metrics"
)

// EventSystem bundles the notification bus and the publisher wrapped around it
type EventSystem struct {
	// Bus delivers to local subscribers (metrics, notification log)
	Bus event.Bus
	// Publisher is what the progression service publishes through
	Publisher *event.ResilientPublisher
	// Redis is set when notifications go over Redis pub/sub
	Redis *event.RedisBus
}

// InitializeEventSystem creates the bus selected by cfg, wraps it in a
// resilient publisher and registers the local subscribers. With REDIS_ADDR
// set, events travel over the Redis channel and come back to the local
// subscribers through Forward, so every replica's metrics see them.
func InitializeEventSystem(ctx context.Context, cfg *config.Config) (*EventSystem, error) {
	sys := &EventSystem{}

	if cfg.RedisAddr != "" {
		rb, err := event.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectRedis, err)
		}
		sys.Redis = rb
		sys.Bus = rb
	} else {
		sys.Bus = event.NewMemoryBus()
	}

	RegisterEventHandlers(sys.Bus)

	if sys.Redis != nil {
		if err := sys.Redis.Forward(ctx); err != nil {
			_ = sys.Redis.Close()
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectRedis, err)
		}
		slog.Info(LogMsgRedisForwarding, "channel", cfg.RedisChannel)
	}

	deadLetterPath := cfg.EventDeadLetterPath
	if deadLetterPath == "" {
		deadLetterPath = config.DefaultEventDeadLetterPath
	}
	if err := os.MkdirAll(filepath.Dir(deadLetterPath), DirPermission); err != nil {
		sys.closeRedis()
		return nil, fmt.Errorf("%s: %w", LogMsgFailedCreateDeadLetterDir, err)
	}

	publisher, err := event.NewResilientPublisher(sys.Bus, cfg.EventMaxRetries, cfg.EventRetryDelay, deadLetterPath)
	if err != nil {
		sys.closeRedis()
		return nil, fmt.Errorf("%s: %w", LogMsgFailedCreateResilientPublisher, err)
	}
	sys.Publisher = publisher

	slog.Info(LogMsgEventSystemInitialized,
		"redis", sys.Redis != nil,
		"max_retries", cfg.EventMaxRetries,
		"retry_delay", cfg.EventRetryDelay,
		"deadletter_path", deadLetterPath)

	return sys, nil
}

// Readiness returns the dependencies /readyz should ping
func (s *EventSystem) Readiness() map[string]handler.Pinger {
	if s.Redis == nil {
		return map[string]handler.Pinger{}
	}
	return map[string]handler.Pinger{"redis": s.Redis}
}

func (s *EventSystem) closeRedis() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
}

// RegisterEventHandlers attaches the metrics collector and the notification log
func RegisterEventHandlers(bus event.Bus) {
	metrics.NewEventMetricsCollector().Register(bus)
	slog.Info(LogMsgMetricsCollectorRegistered)

	logNotification := func(_ context.Context, evt event.Event) error {
		slog.Info(LogMsgNotification, "event_id", evt.ID, "event_type", evt.Type)
		return nil
	}
	for _, t := range []event.Type{event.LevelUp, event.BadgeEarned, event.TierChanged} {
		bus.Subscribe(t, logNotification)
	}
}
