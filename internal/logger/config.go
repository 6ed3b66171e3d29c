package logger

import (
	"log/slog"
	"strings"
)

// Config represents logger configuration
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Format      string // "json", "text"
	ServiceName string
	Version     string
	Environment string
	AddSource   bool
}

// ForEnvironment returns the preset for env: JSON at info level in
// production, text at debug level with source locations everywhere else.
// Empty level or format keep the preset's value.
func ForEnvironment(env, version, level, format string) Config {
	cfg := Config{
		Level:       LogLevelDebug,
		Format:      LogFormatText,
		ServiceName: DefaultServiceName,
		Version:     version,
		Environment: env,
		AddSource:   true,
	}
	if isProduction(env) {
		cfg.Level = LogLevelInfo
		cfg.Format = LogFormatJSON
		cfg.AddSource = false
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if level != "" {
		cfg.Level = level
	}
	if format != "" {
		cfg.Format = format
	}
	return cfg
}

func isProduction(env string) bool {
	switch strings.ToLower(env) {
	case EnvironmentProduction, "production":
		return true
	}
	return false
}

// LogLevel converts string level to slog.Level; unknown values map to info
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn, LogLevelWarning:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsJSON returns true if format is JSON
func (c Config) IsJSON() bool {
	return strings.EqualFold(c.Format, LogFormatJSON)
}

// BaseAttributes are attached to every record
func (c Config) BaseAttributes() []slog.Attr {
	return []slog.Attr{
		slog.String(AttrKeyService, c.ServiceName),
		slog.String(AttrKeyVersion, c.Version),
		slog.String(AttrKeyEnvironment, c.Environment),
	}
}
