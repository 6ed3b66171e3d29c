package domain

// Event type constants used for notification publishing and metrics.
// Event types follow the pattern: <entity>.<action>
const (
	// EventTypeLevelUp is published when an event moves a user to a higher level
	EventTypeLevelUp = "progression.level_up"

	// EventTypeBadgeEarned is published once per newly awarded badge
	EventTypeBadgeEarned = "progression.badge_earned"

	// EventTypeTierChanged is published when lifetime spend crosses a loyalty threshold
	EventTypeTierChanged = "progression.tier_changed"
)
