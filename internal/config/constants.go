package config

import "time"

// Configuration file paths
const (
	ConfigPathProgression = "configs/progression.yaml"
)

// Store drivers
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// Defaults
const (
	DefaultPort                = 8080
	DefaultDBMaxConns          = 20
	DefaultDBMaxConnIdleTime   = 5 * time.Minute
	DefaultDBMaxConnLifetime   = 30 * time.Minute
	DefaultRankCacheTTL        = 5 * time.Second
	DefaultEventMaxRetries     = 5
	DefaultEventRetryDelay     = 2 * time.Second
	DefaultEventDeadLetterPath = "logs/event_deadletter.jsonl"
	DefaultShutdownTimeout     = 15 * time.Second
)
