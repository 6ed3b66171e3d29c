package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Progression Metrics
var (
	EventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsApplied,
			Help: HelpTextEventsApplied,
		},
		[]string{LabelKind, LabelOutcome},
	)

	XPGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameXPGranted,
			Help: HelpTextXPGranted,
		},
	)

	CoinsGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCoinsGranted,
			Help: HelpTextCoinsGranted,
		},
	)

	CoinsSpent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCoinsSpent,
			Help: HelpTextCoinsSpent,
		},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameLevelUps,
			Help: HelpTextLevelUps,
		},
	)

	BadgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameBadgesAwarded,
			Help: HelpTextBadgesAwarded,
		},
		[]string{LabelBadge},
	)

	TierChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTierChanges,
			Help: HelpTextTierChanges,
		},
		[]string{LabelTier},
	)
)

// RecordEventApplied counts one processed activity event
func RecordEventApplied(kind, outcome string) {
	EventsApplied.WithLabelValues(kind, outcome).Inc()
}

// RecordDeltas adds the net XP and coin movement of one committed event
func RecordDeltas(xp, coinsIn, coinsOut int64) {
	if xp > 0 {
		XPGranted.Add(float64(xp))
	}
	if coinsIn > 0 {
		CoinsGranted.Add(float64(coinsIn))
	}
	if coinsOut > 0 {
		CoinsSpent.Add(float64(coinsOut))
	}
}
