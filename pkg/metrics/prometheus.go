// Package metrics provides Prometheus metrics for the pitchiq analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Forecast outcome label values.
const (
	ForecastOK                  = "ok"
	ForecastInsufficientHistory = "insufficient_history"
	ForecastFailed              = "error"
)

var defaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    prometheus.Labels
	registry       prometheus.Registerer

	// Pipeline
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	stageLatency     *prometheus.HistogramVec
	cohortPlayers    prometheus.Gauge
	clusterCount     prometheus.Gauge
	componentCount   prometheus.Gauge

	// Forecasting
	forecasts       *prometheus.CounterVec
	forecastLatency prometheus.Histogram

	// Worker pool and queue
	workerCount   prometheus.Gauge
	workerBusy    prometheus.Gauge
	queueDepth    prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected prometheus.Counter
	jobLatency    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "pitchiq",
		subsystem:      "analytics",
		latencyBuckets: defaultLatencyBuckets,
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.latencyBuckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // collector declarations
	auto := promauto.With(m.registry)

	m.pipelineRuns = auto.NewCounterVec(m.counterOpts("pipeline_runs_total", "Pipeline runs by result"), []string{"result"})
	m.pipelineDuration = auto.NewHistogram(m.histogramOpts("pipeline_duration_milliseconds", "Wall time of a full pipeline run"))
	m.stageLatency = auto.NewHistogramVec(m.histogramOpts("stage_latency_milliseconds", "Latency of each pipeline stage"), []string{"stage"})
	m.cohortPlayers = auto.NewGauge(m.gaugeOpts("cohort_players", "Players in the current cohort"))
	m.clusterCount = auto.NewGauge(m.gaugeOpts("clusters", "Effective number of clusters of the last fit"))
	m.componentCount = auto.NewGauge(m.gaugeOpts("principal_components", "Principal components kept by the last fit"))

	m.forecasts = auto.NewCounterVec(m.counterOpts("forecasts_total", "Per-series forecasts by outcome"), []string{"outcome"})
	m.forecastLatency = auto.NewHistogram(m.histogramOpts("forecast_fit_latency_milliseconds", "Latency of a single forecast fit"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Forecast workers in the pool"))
	m.workerBusy = auto.NewGauge(m.gaugeOpts("worker_busy", "Forecast workers currently fitting a series"))
	m.queueDepth = auto.NewGauge(m.gaugeOpts("queue_depth", "Forecast jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the forecast job queue"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Forecast jobs rejected by a full or closed queue"))
	m.jobLatency = auto.NewHistogram(m.histogramOpts("job_latency_milliseconds", "Time from dequeue to outcome for forecast jobs"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration"), []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = auto.NewCounter(m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"))

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total", "Errors by component and type"), []string{"component", "type"})
}

// RecordPipelineRun counts a finished run; result is "ok" or "error".
func RecordPipelineRun(result string, durationMs float64) {
	globalManager.pipelineRuns.WithLabelValues(result).Inc()
	globalManager.pipelineDuration.Observe(durationMs)
}

// RecordStageLatency observes the latency of one pipeline stage.
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// UpdateCohortPlayers sets the current cohort size.
func UpdateCohortPlayers(count int) {
	globalManager.cohortPlayers.Set(float64(count))
}

// UpdateClusterShape records the effective k and component count of a fit.
func UpdateClusterShape(clusters, components int) {
	globalManager.clusterCount.Set(float64(clusters))
	globalManager.componentCount.Set(float64(components))
}

// RecordForecast counts a forecast outcome and its fit latency.
func RecordForecast(outcome string, latencyMs float64) {
	globalManager.forecasts.WithLabelValues(outcome).Inc()
	globalManager.forecastLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the number of forecast workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// WorkerBusy adjusts the busy worker gauge by delta.
func WorkerBusy(delta int) {
	globalManager.workerBusy.Add(float64(delta))
}

// UpdateQueueDepth sets the number of queued jobs.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// UpdateQueueCapacity sets the job queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// RecordJobLatency observes dequeue-to-outcome latency of a job.
func RecordJobLatency(latencyMs float64) {
	globalManager.jobLatency.Observe(latencyMs)
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited() {
	globalManager.httpRateLimited.Inc()
}

// RecordError counts an error for a component.
func RecordError(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
