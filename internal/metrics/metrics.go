// Package metrics exposes Prometheus collectors for the harvester service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	harvestRunsTotal         *prometheus.CounterVec
	harvestBatchesTotal      *prometheus.CounterVec
	harvestEntriesScanned    *prometheus.CounterVec
	harvestRecordsCollected  *prometheus.CounterVec
	harvestTransportErrors   *prometheus.CounterVec
	harvestReconnectsTotal   *prometheus.CounterVec
	harvestDedupSkippedTotal *prometheus.CounterVec
	harvestRunSeconds        *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		harvestRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_runs_total",
				Help: "Total harvest runs, labeled by channel and resume strategy.",
			},
			[]string{"channel", "reason"},
		)

		harvestBatchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_batches_total",
				Help: "Total archive batches fetched, labeled by channel.",
			},
			[]string{"channel"},
		)

		harvestEntriesScanned = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_entries_scanned_total",
				Help: "Total archive entries scanned, labeled by channel.",
			},
			[]string{"channel"},
		)

		harvestRecordsCollected = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_records_collected_total",
				Help: "Total records collected, labeled by channel.",
			},
			[]string{"channel"},
		)

		harvestTransportErrors = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_transport_errors_total",
				Help: "Total transport failures during batch fetches.",
			},
			[]string{"channel"},
		)

		harvestReconnectsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_reconnects_total",
				Help: "Total proactive transport reconnects between full batches.",
			},
			[]string{"channel"},
		)

		harvestDedupSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_dedup_skipped_total",
				Help: "Qualifying entries skipped because their URL was already collected.",
			},
			[]string{"channel"},
		)

		harvestRunSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_run_duration_seconds",
				Help:    "Histogram of complete harvest run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"channel"},
		)
	})
}

// RecordRunStart counts a run start with its resume strategy.
func RecordRunStart(channel, reason string) {
	if harvestRunsTotal != nil {
		harvestRunsTotal.WithLabelValues(channel, reason).Inc()
	}
}

// RecordBatch counts one fetched batch and the entries it contained.
func RecordBatch(channel string, entries int) {
	if harvestBatchesTotal != nil {
		harvestBatchesTotal.WithLabelValues(channel).Inc()
	}
	if harvestEntriesScanned != nil {
		harvestEntriesScanned.WithLabelValues(channel).Add(float64(entries))
	}
}

// RecordCollected counts one collected record.
func RecordCollected(channel string) {
	if harvestRecordsCollected != nil {
		harvestRecordsCollected.WithLabelValues(channel).Inc()
	}
}

// RecordTransportError counts one failed batch fetch.
func RecordTransportError(channel string) {
	if harvestTransportErrors != nil {
		harvestTransportErrors.WithLabelValues(channel).Inc()
	}
}

// RecordReconnect counts one proactive reconnect.
func RecordReconnect(channel string) {
	if harvestReconnectsTotal != nil {
		harvestReconnectsTotal.WithLabelValues(channel).Inc()
	}
}

// RecordDedupSkip counts one dedup-suppressed entry.
func RecordDedupSkip(channel string) {
	if harvestDedupSkippedTotal != nil {
		harvestDedupSkippedTotal.WithLabelValues(channel).Inc()
	}
}

// ObserveRunDuration records the wall time of a finished run.
func ObserveRunDuration(channel string, d time.Duration) {
	if harvestRunSeconds != nil {
		harvestRunSeconds.WithLabelValues(channel).Observe(d.Seconds())
	}
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
