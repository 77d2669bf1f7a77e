package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the sweep service, adapted
// from hierachain-engine/api/metrics.go's transaction/batch/gRPC metrics
// to the scenario-sweep domain: a "batch" here is a sweep's
// ScenarioReport batch, and there is no gRPC surface to instrument.
type Metrics struct {
	ScenariosSubmitted prometheus.Counter
	ScenariosCertified prometheus.Counter
	ScenariosRejected  prometheus.Counter
	ScenariosDecided   prometheus.Counter
	ScenariosWedged    *prometheus.CounterVec

	ScenarioLatency prometheus.Histogram
	StatesVisited   prometheus.Histogram
	MaxDepthReached prometheus.Histogram

	ReportBatchesTotal prometheus.Counter
	ReportBatchSize    prometheus.Histogram

	WorkerPoolActive  prometheus.Gauge
	WorkerPoolPending prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// DefaultMetrics creates metrics with default settings.
var DefaultMetrics = NewMetrics("consensus")

// NewMetrics creates a new Metrics instance with the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ScenariosSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_submitted_total",
			Help:      "Total number of scenarios submitted to the sweep service",
		}),
		ScenariosCertified: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_certified_total",
			Help:      "Total number of scenarios that passed certification",
		}),
		ScenariosRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_rejected_total",
			Help:      "Total number of scenarios rejected at certification",
		}),
		ScenariosDecided: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_decided_total",
			Help:      "Total number of scenario runs that reached a decision",
		}),
		ScenariosWedged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_wedged_total",
			Help:      "Total number of scenario runs that wedged, by reason",
		}, []string{"reason"}),

		ScenarioLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scenario_latency_seconds",
			Help:      "Scenario run wall-clock latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		StatesVisited: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scenario_states_visited",
			Help:      "Number of states a Driver visited for one scenario run",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		MaxDepthReached: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scenario_max_depth_reached",
			Help:      "Maximum exploration depth a Driver reached for one scenario run",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),

		ReportBatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_batches_total",
			Help:      "Total number of scenario report batches flushed",
		}),
		ReportBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_batch_size",
			Help:      "Number of reports per flushed batch",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),

		WorkerPoolActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_pool_active",
			Help:      "Number of active sweep workers",
		}),
		WorkerPoolPending: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_pool_pending",
			Help:      "Number of pending jobs in the sweep worker pool",
		}),

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// RecordScenario records a scenario run's terminal outcome.
func (m *Metrics) RecordScenario(decided bool, wedgeReason string, duration time.Duration, statesVisited, maxDepth int) {
	m.ScenarioLatency.Observe(duration.Seconds())
	m.StatesVisited.Observe(float64(statesVisited))
	m.MaxDepthReached.Observe(float64(maxDepth))
	if decided {
		m.ScenariosDecided.Inc()
	} else {
		m.ScenariosWedged.WithLabelValues(wedgeReason).Inc()
	}
}

// RecordReportBatch records a flushed report batch.
func (m *Metrics) RecordReportBatch(size int) {
	m.ReportBatchesTotal.Inc()
	m.ReportBatchSize.Observe(float64(size))
}

// RecordHTTPRequest records one HTTP request.
func (m *Metrics) RecordHTTPRequest(route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// UpdateWorkerPool updates worker pool gauges.
func (m *Metrics) UpdateWorkerPool(active, pending int) {
	m.WorkerPoolActive.Set(float64(active))
	m.WorkerPoolPending.Set(float64(pending))
}

// MetricsServer runs an HTTP server exposing the /metrics and /health endpoints.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer creates a new metrics server on the given address.
func NewMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start starts the metrics server (blocking).
func (s *MetricsServer) Start() error {
	return s.server.ListenAndServe()
}

// StartAsync starts the metrics server in a goroutine.
func (s *MetricsServer) StartAsync() {
	go func() {
		_ = s.server.ListenAndServe()
	}()
}

// Stop gracefully stops the metrics server.
func (s *MetricsServer) Stop() error {
	return s.server.Close()
}
