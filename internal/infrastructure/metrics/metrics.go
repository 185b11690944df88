package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/historycollector/internal/domain"
)

const namespace = "historycollector"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Archive metrics
	Fetches        *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	FilesProcessed prometheus.Counter
	Checkpoint     prometheus.Gauge
	CycleDuration  prometheus.Histogram

	// Row metrics
	RowsProjected *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "archive_fetches_total",
				Help:      "Total archive object fetches by outcome",
			},
			[]string{"outcome"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "archive_fetch_duration_seconds",
				Help:      "Duration of archive object fetches",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		FilesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Total number of archive file pairs committed",
		}),
		Checkpoint: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkpoint",
			Help:      "Numeric value of the next file to process",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one retrieve, decode, project and persist cycle",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 180, 600},
		}),

		RowsProjected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_projected_total",
				Help:      "Total rows projected for the target asset by table",
			},
			[]string{"table"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		}),
	}
}

// ObserveFetch records one archive fetch attempt.
func (m *Metrics) ObserveFetch(outcome string, seconds float64) {
	m.Fetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.WithLabelValues(outcome).Observe(seconds)
}

// ObserveCycle records the duration of one committed file.
func (m *Metrics) ObserveCycle(seconds float64) {
	m.CycleDuration.Observe(seconds)
}

// FileProcessed records a committed file and the new checkpoint.
func (m *Metrics) FileProcessed(checkpoint domain.FileID, payments, trustlines int) {
	m.FilesProcessed.Inc()
	m.RowsProjected.WithLabelValues("payments").Add(float64(payments))
	m.RowsProjected.WithLabelValues("trustlines").Add(float64(trustlines))

	if v, err := checkpoint.Uint(); err == nil {
		m.Checkpoint.Set(float64(v))
	}
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(seconds)
}

// InFlight adjusts the in-flight HTTP request gauge.
func (m *Metrics) InFlight(delta float64) {
	m.HTTPInFlight.Add(delta)
}
