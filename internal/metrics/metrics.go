// Package metrics exposes Prometheus instrumentation for audits. All
// methods are safe on a nil *Metrics so components can run uninstrumented.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contentaudit"

// Metrics holds the audit counters and histograms.
type Metrics struct {
	registry *prometheus.Registry

	AuditsTotal      *prometheus.CounterVec
	AuditDuration    *prometheus.HistogramVec
	ExtractionErrors *prometheus.CounterVec
	YouTubePath      *prometheus.CounterVec
	RecordsSaved     prometheus.Counter
	SaveFailures     prometheus.Counter
	QueueDepth       prometheus.Gauge
}

// New registers every metric on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AuditsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_total",
			Help:      "Audits completed, by content type and outcome (audited or needs_review)",
		}, []string{"content_type", "outcome"}),
		AuditDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "End-to-end time of one ProcessContent call",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"content_type"}),
		ExtractionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Pipeline failures by error kind",
		}, []string{"kind"}),
		YouTubePath: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "youtube_transcripts_total",
			Help:      "YouTube transcripts obtained, by path (captions or audio)",
		}, []string{"path"}),
		RecordsSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_saved_total",
			Help:      "Audit records persisted",
		}),
		SaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_save_failures_total",
			Help:      "Audit records that could not be persisted",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Pending audit jobs",
		}),
	}
}

// Handler serves the registry for /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAudit(contentType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AuditsTotal.WithLabelValues(contentType, outcome).Inc()
	m.AuditDuration.WithLabelValues(contentType).Observe(d.Seconds())
}

func (m *Metrics) Failure(kind string) {
	if m == nil {
		return
	}
	m.ExtractionErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) TranscriptPath(path string) {
	if m == nil {
		return
	}
	m.YouTubePath.WithLabelValues(path).Inc()
}

func (m *Metrics) Saved(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SaveFailures.Inc()
		return
	}
	m.RecordsSaved.Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
