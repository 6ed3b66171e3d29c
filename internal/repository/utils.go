package repository

import (
	"context"
	"errors"

	"github.com/osse101/BrandishProgression_Go/internal/logger"
)

// ErrTxClosed is returned by Commit or Rollback on a finished transaction
var ErrTxClosed = errors.New("tx is closed")

// SafeRollback rolls back a transaction and logs any error that isn't ErrTxClosed.
// Safe to defer right after BeginTx.
func SafeRollback(ctx context.Context, tx Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, ErrTxClosed) {
		logger.FromContext(ctx).Error("Failed to rollback transaction", "error", err)
	}
}
