package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		attemptsTotal,
		sessionsCreatedTotal,
		revenueTotal,
		confirmDuration,
	)
}

var (
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Checkout attempts by final outcome (success/failed/timeout/abandoned).",
		},
		[]string{"outcome"},
	)

	sessionsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "Provider checkout sessions created, labeled by mode.",
		},
		[]string{"mode"},
	)

	revenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_revenue_total",
			Help: "The total monetary value (cents) of successful checkouts, labeled by currency.",
		},
		[]string{"currency"},
	)

	confirmDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkout_confirm_duration_seconds",
			Help:    "Time spent in PROCESSING until a definitive status.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)
)

func IncAttempt(outcome string) {
	attemptsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncSessionCreated(mode string) {
	sessionsCreatedTotal.WithLabelValues(norm(mode)).Inc()
}

func AddRevenue(currency string, amountCents int64) {
	revenueTotal.WithLabelValues(norm(currency)).Add(float64(amountCents))
}

func ObserveConfirmDuration(seconds float64) {
	confirmDuration.Observe(seconds)
}
