package progression

const (
	ErrMsgUserIDRequired = "user id is required"
)

// Log messages
const (
	LogMsgUserInitialized  = "User progression initialized"
	LogMsgDuplicateIgnored = "Duplicate event ignored"
	LogMsgRankFailed       = "Failed to compute rank"
	LogMsgPublishFailed    = "Failed to publish progression event"
)
