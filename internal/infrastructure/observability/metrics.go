package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Transaction metrics
	TransactionsTotal    *prometheus.CounterVec
	UssdRoundTrip        *prometheus.HistogramVec
	TransactionsInFlight prometheus.Gauge
	BeginRejections      *prometheus.CounterVec

	// SMS metrics
	SmsDispatchTotal *prometheus.CounterVec

	// Mailbox metrics
	MailboxCaptured *prometheus.CounterVec
	MailboxPending  prometheus.Gauge

	// Scheduler metrics
	SchedulerTicks     *prometheus.CounterVec
	SchedulerForwarded prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerRequests *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		TransactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Total number of finished USSD round-trips by outcome",
			},
			[]string{"outcome"},
		),
		UssdRoundTrip: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ussd_round_trip_seconds",
				Help:      "Time from USSD dial to response in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		TransactionsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "transactions_in_flight",
				Help:      "Number of transactions awaiting a USSD response",
			},
		),
		BeginRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "begin_rejections_total",
				Help:      "Total number of rejected transaction starts",
			},
			[]string{"reason"},
		),
		SmsDispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sms_dispatch_total",
				Help:      "Total number of confirmation SMS dispatch attempts",
			},
			[]string{"kind", "status"},
		),
		MailboxCaptured: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mailbox_captured_total",
				Help:      "Total number of inbound SMS captured by handling mode",
			},
			[]string{"mode"},
		),
		MailboxPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mailbox_pending",
				Help:      "Number of inbound SMS waiting in the mailbox",
			},
		),
		SchedulerTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_ticks_total",
				Help:      "Total number of background scheduler ticks",
			},
			[]string{"status"},
		),
		SchedulerForwarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_forwarded_total",
				Help:      "Total number of mailbox entries forwarded by the scheduler",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		CircuitBreakerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_requests_total",
				Help:      "Total number of circuit breaker requests",
			},
			[]string{"name", "result"},
		),
	}

	// Register all collectors
	factory.MustRegister(
		m.TransactionsTotal,
		m.UssdRoundTrip,
		m.TransactionsInFlight,
		m.BeginRejections,
		m.SmsDispatchTotal,
		m.MailboxCaptured,
		m.MailboxPending,
		m.SchedulerTicks,
		m.SchedulerForwarded,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CircuitBreakerState,
		m.CircuitBreakerRequests,
	)

	return m
}
