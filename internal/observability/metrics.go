// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingest metrics
	PayloadsReceived  *prometheus.CounterVec
	PayloadsRejected  *prometheus.CounterVec
	RecordsNormalized prometheus.Counter
	WalletsStored     prometheus.Counter
	WalletsDeduped    prometheus.Counter

	// Buffer metrics
	BufferSize *prometheus.GaugeVec

	// Pipeline metrics
	ExportFilesWritten  *prometheus.CounterVec
	CompactionMerges    *prometheus.CounterVec
	ArchiveMerges       *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	CycleRunsTotal      *prometheus.CounterVec
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swap_telemetry"
	}

	return &Metrics{
		PayloadsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "payloads_received_total",
			Help:      "Total number of telemetry payloads received",
		}, []string{"transport"}),
		PayloadsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "payloads_rejected_total",
			Help:      "Total number of payloads rejected before normalization",
		}, []string{"reason"}),
		RecordsNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_normalized_total",
			Help:      "Total number of trade records normalized and buffered",
		}),
		WalletsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "wallets_stored_total",
			Help:      "Total number of wallet snapshots buffered",
		}),
		WalletsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "wallets_deduped_total",
			Help:      "Total number of wallet snapshots skipped as duplicates",
		}),

		BufferSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "buffer",
			Name:      "records",
			Help:      "Current number of buffered documents per stream",
		}, []string{"stream"}),

		ExportFilesWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "export_files_written_total",
			Help:      "Total number of export files written per stream",
		}, []string{"stream"}),
		CompactionMerges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "compaction_merges_total",
			Help:      "Total number of export file merges per stream",
		}, []string{"stream"}),
		ArchiveMerges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "archive_merges_total",
			Help:      "Total number of merges folded into zip archives per stream",
		}, []string{"stream"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of full compaction cycles",
			Buckets:   prometheus.DefBuckets,
		}),
		CycleRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cycle_runs_total",
			Help:      "Total number of compaction cycles by status",
		}, []string{"status"}),
		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_successful_cycle_timestamp_seconds",
			Help:      "Unix timestamp of the last successful compaction cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPayloadReceived increments the received counter for a transport
// ("http" or "ws").
func RecordPayloadReceived(transport string) {
	DefaultMetrics.PayloadsReceived.WithLabelValues(transport).Inc()
}

// RecordPayloadRejected increments the rejected counter for a reason label.
func RecordPayloadRejected(reason string) {
	DefaultMetrics.PayloadsRejected.WithLabelValues(reason).Inc()
}

// RecordNormalized counts one normalized trade record.
func RecordNormalized() {
	DefaultMetrics.RecordsNormalized.Inc()
}

// RecordWalletStored counts one buffered wallet snapshot.
func RecordWalletStored() {
	DefaultMetrics.WalletsStored.Inc()
}

// RecordWalletDeduped counts one wallet snapshot skipped as a duplicate.
func RecordWalletDeduped() {
	DefaultMetrics.WalletsDeduped.Inc()
}

// UpdateBufferSize sets the buffered document gauge for a stream.
func UpdateBufferSize(stream string, size int) {
	DefaultMetrics.BufferSize.WithLabelValues(stream).Set(float64(size))
}

// RecordCycle records one compaction cycle outcome with its duration.
func RecordCycle(status string, seconds float64) {
	DefaultMetrics.CycleRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(seconds)
}

// RecordStreamCycle records per-stream counts from one cycle.
func RecordStreamCycle(stream string, exports, merges, archives int) {
	DefaultMetrics.ExportFilesWritten.WithLabelValues(stream).Add(float64(exports))
	DefaultMetrics.CompactionMerges.WithLabelValues(stream).Add(float64(merges))
	DefaultMetrics.ArchiveMerges.WithLabelValues(stream).Add(float64(archives))
}
