package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the player sync

var (
	// API Call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_api_calls_total",
			Help: "Total number of NBA stats API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nba_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nba_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nba_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// Upsert metrics
	UpsertBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_upsert_batches_total",
			Help: "Total number of upsert batches sent to storage",
		},
		[]string{"status"},
	)

	RecordsUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nba_records_upserted_total",
			Help: "Total number of player records upserted",
		},
	)

	// Sync metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_sync_operations_total",
			Help: "Total number of sync operations",
		},
		[]string{"status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nba_sync_duration_seconds",
			Help:    "Duration of sync operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120},
		},
	)

	PlayersFetched = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nba_players_fetched",
			Help: "Number of players returned by the last fetch",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nba_last_successful_sync_timestamp",
			Help: "Timestamp of last successful sync operation",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// SystemUptime tracks how long a schedule-mode process has been running
var SystemUptime = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "nba_system_uptime_seconds",
		Help: "System uptime in seconds",
	},
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordUpsertBatch records one batch write and, on success, its record count
func RecordUpsertBatch(status string, records int) {
	UpsertBatchesTotal.WithLabelValues(status).Inc()
	if status == "success" {
		RecordsUpserted.Add(float64(records))
	}
}

// RecordSync records a sync operation
func RecordSync(status string, fetched int, duration float64) {
	SyncOperationsTotal.WithLabelValues(status).Inc()
	SyncDuration.Observe(duration)
	PlayersFetched.Set(float64(fetched))

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
