package metrics

import (
	"context"

	"github.com/osse101/BrandishProgression_Go/internal/event"
	"github.com/osse101/BrandishProgression_Go/internal/logger"
)

// EventMetricsCollector subscribes to progression notifications and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all progression notification types
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, t := range []event.Type{event.LevelUp, event.BadgeEarned, event.TierChanged} {
		bus.Subscribe(t, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.LevelUp:
		LevelUps.Inc()

	case event.BadgeEarned:
		p, err := event.DecodePayload[event.BadgeEarnedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgUnexpectedPayload, "type", evt.Type, "error", err)
			EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
			return nil
		}
		BadgesAwarded.WithLabelValues(p.BadgeCode).Inc()

	case event.TierChanged:
		p, err := event.DecodePayload[event.TierChangedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgUnexpectedPayload, "type", evt.Type, "error", err)
			EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
			return nil
		}
		TierChanges.WithLabelValues(p.NewTier).Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
