package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"
	ErrMsgInvalidLimit      = "Invalid limit parameter"
	ErrMsgInvalidDate       = "Invalid date, expected YYYY-MM-DD"
)

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError     = "Something went wrong"
	ErrMsgUserNotFoundError      = "User not found"
	ErrMsgAlreadyInitializedErr  = "User progression already initialized"
	ErrMsgInvalidAmountError     = "Amount must not be negative"
	ErrMsgInsufficientBalanceErr = "Not enough coins"
	ErrMsgInvalidInputError      = "Invalid request. Please check your inputs."
)

// Success messages for API responses
const (
	MsgBadgeDisplayUpdated = "Badge display updated"
)
