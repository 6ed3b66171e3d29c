package database

import "time"

const (
	// DefaultMinConnections is kept warm unless MaxConns is smaller
	DefaultMinConnections int32 = 2

	PingTimeout = 5 * time.Second
)

const (
	ErrMsgFailedToParseConnString = "failed to parse connection string"
	ErrMsgFailedToCreatePool      = "failed to create connection pool"
	ErrMsgFailedToPingDatabase    = "failed to ping database"
)

const (
	LogMsgSuccessfullyConnectedToDatabase = "Connected to database"
)
