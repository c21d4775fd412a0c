// Package metrics provides Prometheus metrics for the Heart Robot mission service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Mission lifecycle
	missionsStarted  *prometheus.CounterVec
	missionsFinished *prometheus.CounterVec
	missionsActive   prometheus.Gauge
	guesses          *prometheus.CounterVec
	missionScore     prometheus.Histogram

	// Puzzle provider
	puzzleFetches      *prometheus.CounterVec
	puzzleFetchLatency prometheus.Histogram
	puzzleSecrets      prometheus.Gauge

	// Scores
	scoreSubmissions  *prometheus.CounterVec
	submissionQueue   prometheus.Gauge
	submissionWorkers prometheus.Gauge
	handoffReads      *prometheus.CounterVec
	scoreboardLatency prometheus.Histogram

	// Identity
	authEvents *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "heartrobot",
		subsystem:        "missions",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.missionsStarted = m.counterVec("started_total", "Missions started by difficulty level", "level")
	m.missionsFinished = m.counterVec("finished_total", "Missions finished by level and reason", "level", "reason")
	m.missionsActive = m.gauge("active", "Missions currently in progress")
	m.guesses = m.counterVec("guesses_total", "Guesses by outcome", "outcome")
	m.missionScore = m.histogram("final_score", "Final mission score", []float64{0, 100, 200, 300, 500, 700, 1000})

	m.puzzleFetches = m.counterVec("puzzle_fetches_total", "Puzzle fetches by source and result", "source", "result")
	m.puzzleFetchLatency = m.histogram("puzzle_fetch_latency_milliseconds", "Puzzle provider latency in milliseconds",
		[]float64{10, 50, 100, 250, 500, 1000, 2500, 5000})
	m.puzzleSecrets = m.gauge("puzzle_secrets", "Unconsumed puzzle solutions held in the secret store")

	m.scoreSubmissions = m.counterVec("score_submissions_total", "Score submissions by result", "result")
	m.submissionQueue = m.gauge("submission_queue_length", "Score submissions waiting for a worker")
	m.submissionWorkers = m.gauge("submission_workers", "Score submission workers running")
	m.handoffReads = m.counterVec("handoff_reads_total", "Result handoff reads by outcome", "outcome")
	m.scoreboardLatency = m.histogram("scoreboard_latency_milliseconds", "Scoreboard aggregation latency in milliseconds", m.histogramBuckets)

	m.authEvents = m.counterVec("auth_events_total", "Identity transitions by kind", "kind")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordMissionStarted counts a mission start.
func RecordMissionStarted(level string) {
	globalManager.missionsStarted.WithLabelValues(level).Inc()
}

// RecordMissionFinished counts a mission end and observes its score.
func RecordMissionFinished(level, reason string, score int) {
	globalManager.missionsFinished.WithLabelValues(level, reason).Inc()
	globalManager.missionScore.Observe(float64(score))
}

// UpdateActiveMissions sets the number of missions in progress.
func UpdateActiveMissions(count int) {
	globalManager.missionsActive.Set(float64(count))
}

// RecordGuess counts a guess by outcome.
func RecordGuess(outcome string) {
	globalManager.guesses.WithLabelValues(outcome).Inc()
}

// RecordPuzzleFetch counts a provider call and observes its latency.
func RecordPuzzleFetch(source, result string, latencyMs float64) {
	globalManager.puzzleFetches.WithLabelValues(source, result).Inc()
	globalManager.puzzleFetchLatency.Observe(latencyMs)
}

// UpdatePuzzleSecrets sets the number of pending puzzle solutions.
func UpdatePuzzleSecrets(count int) {
	globalManager.puzzleSecrets.Set(float64(count))
}

// RecordScoreSubmission counts a submission attempt by result.
func RecordScoreSubmission(result string) {
	globalManager.scoreSubmissions.WithLabelValues(result).Inc()
}

// UpdateSubmissionQueue sets the submission backlog.
func UpdateSubmissionQueue(length int) {
	globalManager.submissionQueue.Set(float64(length))
}

// UpdateSubmissionWorkers sets the worker count.
func UpdateSubmissionWorkers(count int) {
	globalManager.submissionWorkers.Set(float64(count))
}

// RecordHandoffRead counts a handoff read ("hit" or "miss").
func RecordHandoffRead(outcome string) {
	globalManager.handoffReads.WithLabelValues(outcome).Inc()
}

// RecordScoreboardLatency observes aggregation latency.
func RecordScoreboardLatency(latencyMs float64) {
	globalManager.scoreboardLatency.Observe(latencyMs)
}

// RecordAuthEvent counts an identity transition.
func RecordAuthEvent(kind string) {
	globalManager.authEvents.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the global manager publishes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
