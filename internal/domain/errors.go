package domain

import "errors"

// ErrorKind tags every failure the progression engine can report.
// Callers switch on the kind instead of matching concrete error types.
type ErrorKind string

const (
	KindUserNotFound             ErrorKind = "USER_NOT_FOUND"
	KindAlreadyInitialized       ErrorKind = "ALREADY_INITIALIZED"
	KindInvalidAmount            ErrorKind = "INVALID_AMOUNT"
	KindInsufficientBalance      ErrorKind = "INSUFFICIENT_BALANCE"
	KindDuplicateIgnored         ErrorKind = "DUPLICATE_IGNORED"
	KindBadgeCatalogInconsistent ErrorKind = "BADGE_CATALOG_INCONSISTENT"
	KindInvalidCurve             ErrorKind = "INVALID_CURVE"
	KindInvalidInput             ErrorKind = "INVALID_INPUT"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	ErrMsgUserNotFound             = "user not found"
	ErrMsgAlreadyInitialized       = "user progression already initialized"
	ErrMsgInvalidAmount            = "amount must not be negative"
	ErrMsgInsufficientBalance      = "insufficient coin balance"
	ErrMsgDuplicateIgnored         = "idempotency key already applied"
	ErrMsgBadgeCatalogInconsistent = "badge catalog inconsistent"
	ErrMsgInvalidCurve             = "invalid threshold table"
	ErrMsgInvalidInput             = "invalid input"
)

// Error is the single tagged error type of the engine.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind so that wrapped sentinels
// compare equal through errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Common domain errors
// Wrap these with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrUserNotFound             = &Error{Kind: KindUserNotFound, Message: ErrMsgUserNotFound}
	ErrAlreadyInitialized       = &Error{Kind: KindAlreadyInitialized, Message: ErrMsgAlreadyInitialized}
	ErrInvalidAmount            = &Error{Kind: KindInvalidAmount, Message: ErrMsgInvalidAmount}
	ErrInsufficientBalance      = &Error{Kind: KindInsufficientBalance, Message: ErrMsgInsufficientBalance}
	ErrBadgeCatalogInconsistent = &Error{Kind: KindBadgeCatalogInconsistent, Message: ErrMsgBadgeCatalogInconsistent}
	ErrInvalidCurve             = &Error{Kind: KindInvalidCurve, Message: ErrMsgInvalidCurve}
	ErrInvalidInput             = &Error{Kind: KindInvalidInput, Message: ErrMsgInvalidInput}

	// ErrDuplicateIgnored is not a failure. The ledger returns it when an
	// idempotency key was already consumed; the service reports it as a
	// successful no-op.
	ErrDuplicateIgnored = &Error{Kind: KindDuplicateIgnored, Message: ErrMsgDuplicateIgnored}
)

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err carries none (store failures, context errors).
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
