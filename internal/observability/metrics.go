package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsl_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsl_bookings_total",
			Help: "Seat booking attempts by flight and result",
		},
		[]string{"flight", "result"},
	)

	CancellationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsl_cancellations_total",
			Help: "Ticket cancellations by flight and result",
		},
		[]string{"flight", "result"},
	)

	SeatsAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fsl_seats_available",
			Help: "Free seats per flight",
		},
		[]string{"flight", "date"},
	)

	OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fsl_outbox_pending",
			Help: "Ticket events waiting to be published",
		},
	)

	OutboxDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fsl_outbox_dropped_total",
			Help: "Ticket events dropped because the outbox was full",
		},
	)

	RabbitPublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fsl_rabbit_publish_failures_total",
			Help: "Total failed event publishes",
		},
	)

	RateLimitExceeded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fsl_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)

var registerOnce sync.Once

func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, BookingsTotal, CancellationsTotal, SeatsAvailable,
			OutboxPending, OutboxDropped, RabbitPublishFailures, RateLimitExceeded)
	})
}
