package bootstrap

const (
	// DirPermission is the standard permission for creating directories
	DirPermission = 0755
)

// Log messages for startup
const (
	LogMsgLoggingInitialized  = "Logging initialized"
	LogMsgStartingService     = "Starting progression service"
	LogMsgConfigurationLoaded = "Configuration loaded"
	LogMsgStorageReady        = "Storage ready"
	LogMsgMigrationsApplied   = "Database migrations applied"
	LogMsgCatalogSynced       = "Badge catalog synced"
)

// Log messages for event system initialization
const (
	LogMsgEventSystemInitialized         = "Event system initialized"
	LogMsgRedisForwarding                = "Forwarding progression events from Redis"
	LogMsgFailedCreateDeadLetterDir      = "failed to create dead-letter directory"
	LogMsgFailedCreateResilientPublisher = "failed to create resilient publisher"
	LogMsgMetricsCollectorRegistered     = "Metrics collector registered"
	LogMsgNotification                   = "Progression notification"
)

// Error messages
const (
	ErrMsgFailedOpenDatabase = "failed to open database"
	ErrMsgFailedMigrate      = "failed to apply migrations"
	ErrMsgFailedSeedCatalog  = "failed to seed badge catalog"
	ErrMsgFailedLoadCatalog  = "failed to load badge catalog"
	ErrMsgFailedConnectRedis = "failed to connect to redis"
)

// Shutdown messages
const (
	LogMsgShuttingDownServer         = "Shutting down server..."
	LogMsgShuttingDownEventPublisher = "Shutting down event publisher..."
	LogMsgServerStopped              = "Server stopped"
	LogMsgServerForcedShutdown       = "Server forced to shutdown"
	LogMsgResilientPublisherFailed   = "Resilient publisher shutdown failed"
	LogMsgServiceShutdownFailed      = " service shutdown failed"

	ServiceNameProgression = "progression"
)
