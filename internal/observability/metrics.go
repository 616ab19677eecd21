package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driveline_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ListingOperations counts listing lifecycle operations by kind and outcome.
	ListingOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driveline_listing_operations_total",
		Help: "Total listing lifecycle operations by operation and result",
	}, []string{"operation", "result"})

	// SaleConflicts counts sale completions rejected because the listing was already sold.
	SaleConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driveline_sale_conflicts_total",
		Help: "Total sale completions rejected by the one-sale-per-listing constraint",
	})

	// AssetCleanupFailures counts compensating image deletions that themselves failed.
	AssetCleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driveline_asset_cleanup_failures_total",
		Help: "Total asset store cleanup operations that failed and were only logged",
	})

	// AssetStoreLatency records asset store operation latency.
	AssetStoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "driveline_asset_store_latency_seconds",
		Help:    "Asset store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "backend"})

	// ActivityEvents counts marketplace activity events published to the feed.
	ActivityEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driveline_activity_events_total",
		Help: "Total marketplace activity events by type",
	}, []string{"event_type"})

	// WebSocketConnections is the gauge of active activity feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "driveline_websocket_connections",
		Help: "Number of active activity feed WebSocket connections",
	})

	// WebSocketBackpressureDrops counts feed messages dropped because a client
	// could not keep up.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driveline_websocket_backpressure_drops_total",
		Help: "Total WebSocket messages dropped due to client backpressure",
	}, []string{"hub", "reason"})
)

// ObserveAssetStore records the latency of a single asset store call.
func ObserveAssetStore(operation, backend string, start time.Time) {
	AssetStoreLatency.WithLabelValues(operation, backend).Observe(time.Since(start).Seconds())
}

// RecordListingOperation increments the listing operation counter.
func RecordListingOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ListingOperations.WithLabelValues(operation, result).Inc()
}
