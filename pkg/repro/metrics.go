package repro

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess  = "success"
	statusError    = "error"
	statusMismatch = "mismatch"
)

// Metrics holds the Prometheus collectors for a runner. Collectors are
// registered on the supplied registry, never on the global default.
type Metrics struct {
	attemptsTotal   *prometheus.CounterVec
	attemptDuration prometheus.Histogram
	rowsTotal       *prometheus.CounterVec
	encodedBytes    prometheus.Histogram
	workersActive   prometheus.Gauge
}

// NewMetrics creates and registers the harness metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rowcheck_attempts_total",
				Help: "Total number of harness attempts",
			},
			[]string{"status"},
		),

		attemptDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rowcheck_attempt_duration_seconds",
				Help:    "Attempt duration in seconds, including store initialization",
				Buckets: prometheus.DefBuckets,
			},
		),

		rowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rowcheck_rows_total",
				Help: "Total number of rows round-tripped",
			},
			[]string{"status"},
		),

		encodedBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rowcheck_encoded_row_bytes",
				Help:    "Size of encoded rows in bytes",
				Buckets: prometheus.ExponentialBuckets(16, 2, 8),
			},
		),

		workersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rowcheck_workers_active",
				Help: "Number of workers currently running attempts",
			},
		),
	}
}

// RecordAttempt records a finished attempt
func (m *Metrics) RecordAttempt(err error, duration time.Duration) {
	m.attemptsTotal.WithLabelValues(status(err)).Inc()
	m.attemptDuration.Observe(duration.Seconds())
}

// RecordRow records a single round trip
func (m *Metrics) RecordRow(err error, size int) {
	m.rowsTotal.WithLabelValues(status(err)).Inc()
	if size > 0 {
		m.encodedBytes.Observe(float64(size))
	}
}

func (m *Metrics) workerStarted() { m.workersActive.Inc() }
func (m *Metrics) workerStopped() { m.workersActive.Dec() }

func status(err error) string {
	switch {
	case err == nil:
		return statusSuccess
	case IsMismatch(err):
		return statusMismatch
	default:
		return statusError
	}
}
