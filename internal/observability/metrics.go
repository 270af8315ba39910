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
	// RPC metrics
	RPCCallLatency    *prometheus.HistogramVec
	FailoverAttempts  *prometheus.CounterVec
	UpstreamExhausted *prometheus.CounterVec
	EndpointHealthy   *prometheus.GaugeVec

	// Activity provider metrics
	ActivityRequestLatency *prometheus.HistogramVec
	ActivityRequestErrors  *prometheus.CounterVec

	// Metadata metrics
	MetadataResolutions *prometheus.CounterVec
	MetadataCacheSize   prometheus.Gauge
	DirectorySize       prometheus.Gauge

	// History metrics
	HistoryRequests        *prometheus.CounterVec
	HistoryDuration        *prometheus.HistogramVec
	TransactionsNormalized *prometheus.CounterVec
	RecordsDropped         *prometheus.CounterVec
	PrewarmedTransactions  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "activity_gateway"
	}

	return &Metrics{
		// RPC metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		FailoverAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "failover_attempts_total",
			Help:      "Total number of RPC attempts by endpoint",
		}, []string{"endpoint"}),
		UpstreamExhausted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "upstream_exhausted_total",
			Help:      "Total number of RPC calls that exhausted all retry attempts",
		}, []string{"method"}),
		EndpointHealthy: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "endpoint_healthy",
			Help:      "Endpoint health probe result (1 healthy, 0 unhealthy)",
		}, []string{"endpoint"}),

		// Activity provider metrics
		ActivityRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "request_latency_seconds",
			Help:      "Activity provider request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		ActivityRequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "request_errors_total",
			Help:      "Total number of activity provider request errors",
		}, []string{"operation"}),

		// Metadata metrics
		MetadataResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "resolutions_total",
			Help:      "Total number of token metadata resolutions by tier",
		}, []string{"tier"}),
		MetadataCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "cache_size",
			Help:      "Current number of entries in the metadata LRU cache",
		}),
		DirectorySize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "directory_size",
			Help:      "Current number of entries in the token directory index",
		}),

		// History metrics
		HistoryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "requests_total",
			Help:      "Total number of history API requests by operation and status",
		}, []string{"operation", "status"}),
		HistoryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "request_duration_seconds",
			Help:      "History request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		TransactionsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "transactions_total",
			Help:      "Total number of transactions normalized by source schema",
		}, []string{"schema"}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "records_dropped_total",
			Help:      "Total number of raw records dropped by reason",
		}, []string{"reason"}),
		PrewarmedTransactions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "prewarmed_transactions_total",
			Help:      "Total number of live transactions processed by the watcher",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordFailoverAttempt increments the attempt counter for an endpoint.
func RecordFailoverAttempt(endpoint string) {
	DefaultMetrics.FailoverAttempts.WithLabelValues(endpoint).Inc()
}

// RecordUpstreamExhausted records an RPC call that ran out of attempts.
func RecordUpstreamExhausted(method string) {
	DefaultMetrics.UpstreamExhausted.WithLabelValues(method).Inc()
}

// SetEndpointHealthy updates the health gauge for an endpoint.
func SetEndpointHealthy(endpoint string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	DefaultMetrics.EndpointHealthy.WithLabelValues(endpoint).Set(v)
}

// RecordActivityRequest records an activity provider request.
func RecordActivityRequest(operation string, seconds float64, err error) {
	DefaultMetrics.ActivityRequestLatency.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.ActivityRequestErrors.WithLabelValues(operation).Inc()
	}
}

// RecordMetadataResolution increments the resolution counter for a tier.
func RecordMetadataResolution(tier string) {
	DefaultMetrics.MetadataResolutions.WithLabelValues(tier).Inc()
}

// UpdateMetadataCacheSize updates the metadata cache size gauge.
func UpdateMetadataCacheSize(entries int) {
	DefaultMetrics.MetadataCacheSize.Set(float64(entries))
}

// UpdateDirectorySize updates the token directory size gauge.
func UpdateDirectorySize(entries int) {
	DefaultMetrics.DirectorySize.Set(float64(entries))
}

// RecordHistoryRequest records one history API request.
func RecordHistoryRequest(operation, status string, seconds float64) {
	DefaultMetrics.HistoryRequests.WithLabelValues(operation, status).Inc()
	DefaultMetrics.HistoryDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordNormalized increments the normalized transaction counter.
func RecordNormalized(schema string) {
	DefaultMetrics.TransactionsNormalized.WithLabelValues(schema).Inc()
}

// RecordDropped increments the dropped record counter.
func RecordDropped(reason string) {
	DefaultMetrics.RecordsDropped.WithLabelValues(reason).Inc()
}

// RecordPrewarmed increments the watcher prewarm counter.
func RecordPrewarmed() {
	DefaultMetrics.PrewarmedTransactions.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
