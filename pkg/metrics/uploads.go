package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics records photo upload pipeline outcomes.
type UploadMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	bytes    *prometheus.HistogramVec
}

// NewUploadMetrics registers the upload metrics on the provided registerer.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		return &UploadMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photo_upload_duration_seconds",
		Help:    "Duration of the validate-compress-store-record pipeline.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_upload_outcomes_total",
		Help: "Upload pipeline outcomes by terminal state.",
	}, []string{"kind", "outcome"})
	bytes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photo_upload_stored_bytes",
		Help:    "Compressed payload sizes written to object storage.",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	}, []string{"kind"})
	reg.MustRegister(duration, outcomes, bytes)
	return &UploadMetrics{
		duration: duration,
		outcomes: outcomes,
		bytes:    bytes,
	}
}

// ObserveDuration records how long one upload took end to end.
func (u *UploadMetrics) ObserveDuration(kind string, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	u.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncOutcome counts a terminal pipeline state (succeeded/rejected/failed).
func (u *UploadMetrics) IncOutcome(kind, outcome string) {
	if u == nil || u.outcomes == nil {
		return
	}
	u.outcomes.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveStoredBytes records the compressed size written to storage.
func (u *UploadMetrics) ObserveStoredBytes(kind string, size int64) {
	if u == nil || u.bytes == nil {
		return
	}
	u.bytes.WithLabelValues(normalizeLabel(kind)).Observe(float64(size))
}
