package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/osse101/BrandishProgression_Go/internal/logger"
)

// RedisBus publishes events as JSON on one Redis pub/sub channel. Local
// subscribers are fed by Forward, which decodes messages from the channel;
// payloads arrive as generic JSON and should be read with DecodePayload.
type RedisBus struct {
	rdb     *goredis.Client
	channel string

	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewRedisBus connects to addr and verifies the connection with a ping
func NewRedisBus(ctx context.Context, addr, channel string) (*RedisBus, error) {
	if addr == "" {
		return nil, errors.New("missing redis address")
	}
	if channel == "" {
		channel = DefaultRedisChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{
		rdb:      rdb,
		channel:  channel,
		handlers: make(map[Type][]Handler),
	}, nil
}

// Publish sends the event to the channel
func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe registers a handler invoked by Forward
func (b *RedisBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Forward subscribes to the channel and dispatches messages to local
// handlers until ctx is cancelled. It returns once the subscription is live.
func (b *RedisBus) Forward(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				b.dispatch(ctx, m.Payload)
			}
		}
	}()
	return nil
}

func (b *RedisBus) dispatch(ctx context.Context, payload string) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		logger.Warn(LogMsgBadRedisPayload, "error", err)
		return
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[evt.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			logger.FromContext(ctx).Warn("redis event handler failed", "event_type", evt.Type, "error", err)
		}
	}
}

// Ping checks the Redis connection
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Close releases the Redis client
func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
