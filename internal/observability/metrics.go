package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	FlowsGenerated     prometheus.Counter
	GenerationFailures prometheus.Counter
	NodesInserted      prometheus.Counter
	NodesDeleted       prometheus.Counter
	ReorderOps         *prometheus.CounterVec
	MediaResolutions   *prometheus.CounterVec
	SessionsStarted    prometheus.Counter
}

// NewCollector creates the metrics collector with the given namespace. A
// singleton is kept so repeated construction in tests does not trip
// duplicate registration.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	flowsGenerated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_generated_total",
			Help:      "Total number of flows generated successfully",
		},
	)

	generationFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Total number of generations that exhausted their retries",
		},
	)

	nodesInserted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_inserted_total",
			Help:      "Total number of nodes inserted by editing",
		},
	)

	nodesDeleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_deleted_total",
			Help:      "Total number of nodes deleted",
		},
	)

	reorderOps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorder_operations_total",
			Help:      "Total number of reorder operations by outcome",
		},
		[]string{"status"},
	)

	mediaResolutions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_resolutions_total",
			Help:      "Total number of deferred media resolutions by outcome",
		},
		[]string{"status"},
	)

	sessionsStarted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of playback sessions started",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		flowsGenerated,
		generationFailures,
		nodesInserted,
		nodesDeleted,
		reorderOps,
		mediaResolutions,
		sessionsStarted,
	)

	globalCollector = &Collector{
		registry:           registry,
		HTTPRequests:       httpRequests,
		HTTPDuration:       httpDuration,
		FlowsGenerated:     flowsGenerated,
		GenerationFailures: generationFailures,
		NodesInserted:      nodesInserted,
		NodesDeleted:       nodesDeleted,
		ReorderOps:         reorderOps,
		MediaResolutions:   mediaResolutions,
		SessionsStarted:    sessionsStarted,
	}
	return globalCollector
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
