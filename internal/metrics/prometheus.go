// Package metrics defines Prometheus instrumentation for the speech
// assembly pipeline and the dependency installer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the service. Metrics are
// registered against an injected registerer so tests can use isolated
// registries.
type Metrics struct {
	// Stream assembly metrics
	SegmentsPersisted prometheus.Counter
	SegmentBytes      prometheus.Counter
	ChunksSkipped     prometheus.Counter
	MergesAttempted   prometheus.Counter
	MergesFailed      prometheus.Counter
	StreamsCompleted  prometheus.Counter
	StreamsEmpty      prometheus.Counter
	StreamsCancelled  prometheus.Counter

	// Installer metrics
	DownloadsStarted  prometheus.Counter
	DownloadsFailed   prometheus.Counter
	DownloadBytes     prometheus.Counter
	ExtractionsFailed prometheus.Counter
	InstallsCompleted prometheus.Counter
	InstallDuration   prometheus.Histogram
	TrashSwept        prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Stream assembly metrics
		SegmentsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_segments_persisted_total",
			Help: "Total number of audio segments written to disk",
		}),
		SegmentBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_segment_bytes_total",
			Help: "Total bytes of audio segment data written to disk",
		}),
		ChunksSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_chunks_skipped_total",
			Help: "Total number of stream chunks without an audio payload",
		}),
		MergesAttempted: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_merges_attempted_total",
			Help: "Total number of segment merge attempts",
		}),
		MergesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_merges_failed_total",
			Help: "Total number of segment merges that fell back to the first segment",
		}),
		StreamsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_streams_completed_total",
			Help: "Total number of chunk streams assembled into an artifact",
		}),
		StreamsEmpty: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_streams_empty_total",
			Help: "Total number of chunk streams that produced no audio",
		}),
		StreamsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_streams_cancelled_total",
			Help: "Total number of chunk streams stopped by cancellation",
		}),

		// Installer metrics
		DownloadsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_downloads_started_total",
			Help: "Total number of dependency bundle downloads started",
		}),
		DownloadsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_downloads_failed_total",
			Help: "Total number of dependency bundle downloads that failed",
		}),
		DownloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_download_bytes_total",
			Help: "Total bytes downloaded for dependency bundles",
		}),
		ExtractionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_extractions_failed_total",
			Help: "Total number of archive extractions that failed",
		}),
		InstallsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_installs_completed_total",
			Help: "Total number of dependency installs completed successfully",
		}),
		InstallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "speechgen_install_duration_seconds",
			Help:    "Duration of dependency install operations",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~8.5 minutes
		}),
		TrashSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "speechgen_trash_swept_total",
			Help: "Total number of trash directories removed at startup",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speechgen_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "speechgen_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordSegmentPersisted records one persisted audio segment.
func (m *Metrics) RecordSegmentPersisted(sizeBytes int) {
	m.SegmentsPersisted.Inc()
	m.SegmentBytes.Add(float64(sizeBytes))
}

// RecordChunkSkipped increments the payload-less chunk counter.
func (m *Metrics) RecordChunkSkipped() {
	m.ChunksSkipped.Inc()
}

// RecordMergeAttempt increments the merge attempts counter.
func (m *Metrics) RecordMergeAttempt() {
	m.MergesAttempted.Inc()
}

// RecordMergeFailure increments the merge failures counter.
func (m *Metrics) RecordMergeFailure() {
	m.MergesFailed.Inc()
}

// RecordStreamCompleted increments the completed streams counter.
func (m *Metrics) RecordStreamCompleted() {
	m.StreamsCompleted.Inc()
}

// RecordStreamEmpty increments the empty streams counter.
func (m *Metrics) RecordStreamEmpty() {
	m.StreamsEmpty.Inc()
}

// RecordStreamCancelled increments the cancelled streams counter.
func (m *Metrics) RecordStreamCancelled() {
	m.StreamsCancelled.Inc()
}

// RecordDownloadStarted increments the downloads started counter.
func (m *Metrics) RecordDownloadStarted() {
	m.DownloadsStarted.Inc()
}

// RecordDownloadFailed increments the downloads failed counter.
func (m *Metrics) RecordDownloadFailed() {
	m.DownloadsFailed.Inc()
}

// AddDownloadBytes records bytes transferred during a bundle download.
func (m *Metrics) AddDownloadBytes(n int64) {
	m.DownloadBytes.Add(float64(n))
}

// RecordExtractionFailed increments the extraction failures counter.
func (m *Metrics) RecordExtractionFailed() {
	m.ExtractionsFailed.Inc()
}

// RecordInstallCompleted records a successful install and its duration.
func (m *Metrics) RecordInstallCompleted(durationSeconds float64) {
	m.InstallsCompleted.Inc()
	m.InstallDuration.Observe(durationSeconds)
}

// RecordTrashSwept increments the trash sweep counter.
func (m *Metrics) RecordTrashSwept() {
	m.TrashSwept.Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
