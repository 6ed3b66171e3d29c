package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Progression notification types
const (
	LevelUp     Type = Type(domain.EventTypeLevelUp)
	BadgeEarned Type = Type(domain.EventTypeBadgeEarned)
	TierChanged Type = Type(domain.EventTypeTierChanged)
)

// Event is the envelope carried by every bus
type Event struct {
	ID         string                 `json:"id"`
	Version    string                 `json:"version"` // Event schema version (e.g., "1.0")
	Type       Type                   `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    interface{}            `json:"payload"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// LevelUpPayloadV1 is the typed payload for level up notifications
type LevelUpPayloadV1 struct {
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	TotalXP  int64  `json:"total_xp"`
}

// BadgeEarnedPayloadV1 is the typed payload for badge notifications
type BadgeEarnedPayloadV1 struct {
	UserID      string        `json:"user_id"`
	BadgeCode   string        `json:"badge_code"`
	BadgeName   string        `json:"badge_name"`
	Rarity      domain.Rarity `json:"rarity"`
	CoinsReward int64         `json:"coins_reward"`
}

// TierChangedPayloadV1 is the typed payload for loyalty tier notifications
type TierChangedPayloadV1 struct {
	UserID     string `json:"user_id"`
	OldTier    string `json:"old_tier"`
	NewTier    string `json:"new_tier"`
	Discount   int    `json:"discount"`
	TotalSpent string `json:"total_spent"`
}

func newEvent(t Type, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Version:    EventSchemaVersion,
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// NewLevelUpEvent creates a level up notification
func NewLevelUpEvent(userID string, oldLevel, newLevel int, totalXP int64) Event {
	return newEvent(LevelUp, LevelUpPayloadV1{
		UserID:   userID,
		OldLevel: oldLevel,
		NewLevel: newLevel,
		TotalXP:  totalXP,
	})
}

// NewBadgeEarnedEvent creates a badge notification
func NewBadgeEarnedEvent(userID string, b domain.BadgeView) Event {
	return newEvent(BadgeEarned, BadgeEarnedPayloadV1{
		UserID:      userID,
		BadgeCode:   b.Code,
		BadgeName:   b.Name,
		Rarity:      b.Rarity,
		CoinsReward: b.CoinsReward,
	})
}

// NewTierChangedEvent creates a loyalty tier notification
func NewTierChangedEvent(userID, oldTier, newTier string, discount int, totalSpent string) Event {
	return newEvent(TierChanged, TierChangedPayloadV1{
		UserID:     userID,
		OldTier:    oldTier,
		NewTier:    newTier,
		Discount:   discount,
		TotalSpent: totalSpent,
	})
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish runs every subscriber of event.Type synchronously
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}
	return nil
}

// Subscribe registers a handler for an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
