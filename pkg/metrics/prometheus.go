// Package metrics provides Prometheus metrics for the WomenConnect service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Search
	searches           *prometheus.CounterVec
	searchLatency      *prometheus.HistogramVec
	searchResults      *prometheus.HistogramVec
	keywordExtractions prometheus.Counter

	// Index
	indexSize    *prometheus.GaugeVec
	indexUpdates *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueLatency       prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	storeRecords *prometheus.GaugeVec

	// Auth
	signUps      prometheus.Counter
	signIns      prometheus.Counter
	authFailures *prometheus.CounterVec
	sessions     prometheus.Gauge

	// Content
	idempotentReplays prometheus.Counter
	blobUploads       prometheus.Counter
	blobBytes         prometheus.Counter
	seedImports       *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "womenconnect",
		subsystem:        "platform",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.searches = auto.NewCounterVec(m.counterOpts("searches_total", "Searches served by kind"), []string{"kind"})
	m.searchLatency = auto.NewHistogramVec(m.histogramOpts("search_latency_milliseconds", "Search latency in milliseconds", nil), []string{"kind"})
	m.searchResults = auto.NewHistogramVec(m.histogramOpts("search_results", "Number of records returned per search",
		[]float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000}), []string{"kind"})
	m.keywordExtractions = auto.NewCounter(m.counterOpts("keyword_extractions_total", "Keyword sets computed"))

	m.indexSize = auto.NewGaugeVec(m.gaugeOpts("index_documents", "Documents held by the search index"), []string{"kind"})
	m.indexUpdates = auto.NewCounterVec(m.counterOpts("index_updates_total", "Index updates by kind and operation"), []string{"kind", "op"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the indexing queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum indexing queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (size / capacity)"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Jobs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Failed enqueue attempts"))
	m.queueLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds", "Time from enqueue to dequeue in milliseconds", nil))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of index workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Index workers currently running"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Job processing latency in milliseconds", nil))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Jobs that failed in a worker"))

	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_latency_milliseconds", "Store operation latency in milliseconds", nil), []string{"op"})
	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total", "Store operation errors"), []string{"op"})
	m.storeRecords = auto.NewGaugeVec(m.gaugeOpts("store_records", "Records held by the store"), []string{"kind"})

	m.signUps = auto.NewCounter(m.counterOpts("auth_signups_total", "Accounts created"))
	m.signIns = auto.NewCounter(m.counterOpts("auth_signins_total", "Successful sign-ins"))
	m.authFailures = auto.NewCounterVec(m.counterOpts("auth_failures_total", "Rejected auth attempts by reason"), []string{"reason"})
	m.sessions = auto.NewGauge(m.gaugeOpts("auth_sessions", "Live sessions"))

	m.idempotentReplays = auto.NewCounter(m.counterOpts("idempotent_replays_total", "Create requests answered from the idempotency cache"))
	m.blobUploads = auto.NewCounter(m.counterOpts("blob_uploads_total", "Blobs written"))
	m.blobBytes = auto.NewCounter(m.counterOpts("blob_bytes_total", "Bytes written to the blob store before compression"))
	m.seedImports = auto.NewCounterVec(m.counterOpts("seed_imports_total", "Seed files imported by outcome"), []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component"),
		[]string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Search.

// RecordSearch records one served search and the number of matches.
func RecordSearch(kind string, results int) {
	globalManager.searches.WithLabelValues(kind).Inc()
	globalManager.searchResults.WithLabelValues(kind).Observe(float64(results))
}

// RecordSearchLatency records search latency in milliseconds.
func RecordSearchLatency(kind string, latencyMs float64) {
	globalManager.searchLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordKeywordExtraction increments the keyword extraction counter.
func RecordKeywordExtraction() {
	globalManager.keywordExtractions.Inc()
}

// Index.

// UpdateIndexSize sets the number of indexed documents of a kind.
func UpdateIndexSize(kind string, size int) {
	globalManager.indexSize.WithLabelValues(kind).Set(float64(size))
}

// RecordIndexUpdate counts an index upsert or delete.
func RecordIndexUpdate(kind, op string) {
	globalManager.indexUpdates.WithLabelValues(kind, op).Inc()
}

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long a job waited in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Store.

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateStoreRecords sets the number of stored records of a kind.
func UpdateStoreRecords(kind string, count int) {
	globalManager.storeRecords.WithLabelValues(kind).Set(float64(count))
}

// Auth.

// RecordSignUp increments the sign-up counter.
func RecordSignUp() {
	globalManager.signUps.Inc()
}

// RecordSignIn increments the sign-in counter.
func RecordSignIn() {
	globalManager.signIns.Inc()
}

// RecordAuthFailure counts a rejected sign-up, sign-in or token check.
func RecordAuthFailure(reason string) {
	globalManager.authFailures.WithLabelValues(reason).Inc()
}

// UpdateSessions sets the number of live sessions.
func UpdateSessions(count int) {
	globalManager.sessions.Set(float64(count))
}

// Content.

// RecordIdempotentReplay counts a create answered from the idempotency cache.
func RecordIdempotentReplay() {
	globalManager.idempotentReplays.Inc()
}

// RecordBlobUpload counts a blob write of n uncompressed bytes.
func RecordBlobUpload(n int) {
	globalManager.blobUploads.Inc()
	globalManager.blobBytes.Add(float64(n))
}

// RecordSeedImport counts a seed file import; outcome is "ok" or "error".
func RecordSeedImport(outcome string) {
	globalManager.seedImports.WithLabelValues(outcome).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
