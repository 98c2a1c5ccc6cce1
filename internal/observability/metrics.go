package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder records the outcome and latency of a named operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// RowsRecorder is implemented by recorders that also track collection sizes.
type RowsRecorder interface {
	SetRows(collection string, n int)
}

type noopRecorder struct{}

func (noopRecorder) Observe(context.Context, string, bool, time.Duration) {}

// NoopRecorder returns a MetricsRecorder that records nothing.
func NoopRecorder() MetricsRecorder { return noopRecorder{} }

// Track runs fn and reports its outcome to rec under operation.
func Track(ctx context.Context, rec MetricsRecorder, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if rec != nil {
		rec.Observe(ctx, operation, err == nil, time.Since(start))
	}
	return err
}

// PrometheusRecorder keeps per-operation latency and result counters on a
// private registry so that several recorders can coexist in one process.
type PrometheusRecorder struct {
	registry  *prometheus.Registry
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
	rows      *prometheus.GaugeVec
}

// NewPrometheusRecorder constructs a recorder whose metric names are
// prefixed with namespace (default "countryview").
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	if namespace == "" {
		namespace = "countryview"
	}
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of ingestion, load and view operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operation outcomes by status.",
		}, []string{"operation", "status"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_rows",
			Help:      "Number of records held by the master collection and the current view.",
		}, []string{"collection"}),
	}
	r.registry.MustRegister(r.durations, r.results, r.rows)
	return r
}

// Observe implements MetricsRecorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// SetRows records the current size of a named collection.
func (r *PrometheusRecorder) SetRows(collection string, n int) {
	r.rows.WithLabelValues(collection).Set(float64(n))
}

// Gatherer exposes the private registry.
func (r *PrometheusRecorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
