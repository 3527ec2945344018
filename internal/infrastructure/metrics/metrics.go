package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Quadchart-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "quadchart_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "quadchart_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Subprocess runs (render, analyze)
	SubprocessRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "quadchart_api",
			Name:      "subprocess_runs_total",
			Help:      "Total renderer and analyzer process runs",
		},
		[]string{"operation", "status"},
	)

	SubprocessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "quadchart_api",
			Name:      "subprocess_duration_seconds",
			Help:      "Renderer and analyzer process duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// Template uploads
	TemplateUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "quadchart_api",
			Name:      "template_uploads_total",
			Help:      "Total template uploads",
		},
		[]string{"status"},
	)

	// Artifact lifecycle
	ArtifactDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "quadchart_api",
			Name:      "artifact_downloads_total",
			Help:      "Total generated document downloads",
		},
		[]string{"status"},
	)

	ArtifactsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "quadchart_api",
			Name:      "artifacts_swept_total",
			Help:      "Total generated documents removed by the retention sweep",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordSubprocess records one renderer or analyzer run
func RecordSubprocess(operation, status string, durationSec float64) {
	SubprocessRunsTotal.WithLabelValues(operation, status).Inc()
	SubprocessDuration.WithLabelValues(operation).Observe(durationSec)
}

func RecordTemplateUpload(status string) {
	TemplateUploadsTotal.WithLabelValues(status).Inc()
}

func RecordArtifactDownload(status string) {
	ArtifactDownloadsTotal.WithLabelValues(status).Inc()
}

func RecordSweep(removed int) {
	ArtifactsSweptTotal.Add(float64(removed))
}
