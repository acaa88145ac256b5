package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Data access metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	backendErrors     *prometheus.CounterVec
	resetsPurged      prometheus.Counter

	// Analysis and backtest metrics
	analysisTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	backtestsTotal   prometheus.Counter
	archivedCharts   *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalhub_operations_total",
			Help: "Data operations by the source that served them",
		},
		[]string{"operation", "source"},
	)
	r.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signalhub_operation_duration_seconds",
			Help:    "Data operation duration in seconds, simulated delays included",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
	r.backendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalhub_backend_errors_total",
			Help: "Backend calls that failed and were served from the fallback",
		},
		[]string{"operation"},
	)
	r.resetsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signalhub_reset_tokens_purged_total",
			Help: "Expired password reset tokens removed",
		},
	)
	r.analysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalhub_analysis_total",
			Help: "Chart analyses by provider and outcome",
		},
		[]string{"provider", "status"},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signalhub_analysis_duration_seconds",
			Help:    "Chart analysis duration in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120},
		},
	)
	r.backtestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signalhub_backtests_total",
			Help: "Total number of simulated backtests",
		},
	)
	r.archivedCharts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalhub_archived_charts_total",
			Help: "Chart archive writes by outcome",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.operationsTotal)
	reg.MustRegister(r.operationDuration)
	reg.MustRegister(r.backendErrors)
	reg.MustRegister(r.resetsPurged)
	reg.MustRegister(r.analysisTotal)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.archivedCharts)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordOperation records a completed data operation and the source that served it.
func (r *Registry) RecordOperation(operation, source string, duration float64) {
	r.operationsTotal.WithLabelValues(operation, source).Inc()
	r.operationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordBackendError records a failed backend call.
func (r *Registry) RecordBackendError(operation string) {
	r.backendErrors.WithLabelValues(operation).Inc()
}

// RecordResetsPurged adds n purged reset tokens.
func (r *Registry) RecordResetsPurged(n int64) {
	if n > 0 {
		r.resetsPurged.Add(float64(n))
	}
}

// RecordAnalysis records a chart analysis outcome.
func (r *Registry) RecordAnalysis(provider, status string, duration float64) {
	r.analysisTotal.WithLabelValues(provider, status).Inc()
	r.analysisDuration.Observe(duration)
}

// RecordBacktest records a simulated backtest.
func (r *Registry) RecordBacktest() {
	r.backtestsTotal.Inc()
}

// RecordArchive records a chart archive write.
func (r *Registry) RecordArchive(status string) {
	r.archivedCharts.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
