package bootstrap

import (
	"log/slog"

	"github.com/osse101/BrandishProgression_Go/internal/config"
	"github.com/osse101/BrandishProgression_Go/internal/logger"
)

// SetupLogger installs the process logger. LOG_LEVEL and LOG_FORMAT override
// the environment preset.
func SetupLogger(cfg *config.Config) *slog.Logger {
	l := logger.InitLogger(logger.ForEnvironment(cfg.Environment, cfg.Version, cfg.LogLevel, cfg.LogFormat))

	l.Info(LogMsgLoggingInitialized, "level", cfg.LogLevel, "format", cfg.LogFormat)
	l.Info(LogMsgStartingService, "environment", cfg.Environment, "version", cfg.Version)
	l.Debug(LogMsgConfigurationLoaded,
		"store_driver", cfg.StoreDriver,
		"db_host", cfg.DBHost,
		"db_name", cfg.DBName,
		"redis_addr", cfg.RedisAddr,
		"port", cfg.Port)

	return l
}
