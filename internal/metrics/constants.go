package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Progression metric names
const (
	MetricNameEventsApplied = "progression_events_applied_total"
	MetricNameXPGranted     = "progression_xp_granted_total"
	MetricNameCoinsGranted  = "progression_coins_granted_total"
	MetricNameCoinsSpent    = "progression_coins_spent_total"
	MetricNameLevelUps      = "progression_level_ups_total"
	MetricNameBadgesAwarded = "progression_badges_awarded_total"
	MetricNameTierChanges   = "progression_tier_changes_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"

	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"

	HelpTextEventsApplied = "Activity events processed, by kind and outcome"
	HelpTextXPGranted     = "Total XP granted"
	HelpTextCoinsGranted  = "Total coins granted, badge rewards included"
	HelpTextCoinsSpent    = "Total coins spent"
	HelpTextLevelUps      = "Total number of level ups"
	HelpTextBadgesAwarded = "Badges awarded, by badge code"
	HelpTextTierChanges   = "Loyalty tier promotions, by new tier"
)

// ============================================================================
// Metric Label Names
// ============================================================================

const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelType    = "type"
	LabelKind    = "kind"
	LabelOutcome = "outcome"
	LabelBadge   = "badge"
	LabelTier    = "tier"
)

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Debug log messages
const (
	LogMsgUnexpectedPayload = "Event payload has unexpected shape"
	LogMsgMetricsRecorded   = "Metrics recorded for event"
)
