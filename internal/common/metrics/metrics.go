package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "teams_automation"

	MeetingSubsystem  = "meetings"
	ReminderSubsystem = "reminders"
)

// Общие метрики для всех компонентов.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)
)

// Метрики переговоров о времени встречи.
var (
	MeetingResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: MeetingSubsystem,
			Name:      "responses_total",
			Help:      "Total number of attendee responses recorded",
		},
		[]string{"status"},
	)

	MeetingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: MeetingSubsystem,
			Name:      "transitions_total",
			Help:      "Meeting state machine transitions",
		},
		[]string{"transition"},
	)

	WaitingMeetings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: MeetingSubsystem,
			Name:      "waiting_count",
			Help:      "Number of meetings currently waiting for responses",
		},
	)
)

// Метрики напоминаний.
var (
	NotificationsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ReminderSubsystem,
			Name:      "notifications_upserted_total",
			Help:      "Notifications created or refreshed by the scanner",
		},
		[]string{"reason"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ReminderSubsystem,
			Name:      "notifications_dispatched_total",
			Help:      "Dispatch outcomes by status",
		},
		[]string{"status"},
	)

	DispatchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ReminderSubsystem,
			Name:      "dispatch_retries_total",
			Help:      "Total number of dispatch retries after rate limiting",
		},
	)

	RepliesReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ReminderSubsystem,
			Name:      "replies_reconciled_total",
			Help:      "Replies written back to the source sheet",
		},
	)
)

func RecordHTTPRequest(service, method, endpoint string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(service, method, endpoint, statusLabel(status)).Inc()
	HTTPRequestDuration.WithLabelValues(service, method, endpoint).Observe(duration.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
