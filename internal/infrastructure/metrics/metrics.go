// Package metrics holds the Prometheus collectors for search, popularity
// counting, HTTP traffic and background jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricPopularityOps        = "popularity_ops_total"
	MetricPopularityDegraded   = "popularity_degraded_total"
	MetricSearchDuration       = "search_duration_seconds"
	MetricSearchResults        = "search_results"
	MetricHTTPRequestsTotal    = "http_requests_total"
	MetricHTTPRequestDuration  = "http_request_duration_seconds"
	MetricJobRunsTotal         = "background_jobs_total"
	MetricJobDuration          = "background_jobs_duration_seconds"
	MetricPopularityPruned     = "popularity_pruned_total"
	MetricCircuitBreakerChange = "circuit_breaker_transitions_total"
)

// Popularity operation labels.
const (
	OpIncrement = "increment"
	OpScore     = "score"
	OpTopK      = "topk"
	OpRemove    = "remove"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics contains the service collectors. All methods are safe on a nil
// receiver so components can run without metrics in tests.
type Metrics struct {
	popularityOps      *prometheus.CounterVec
	popularityDegraded *prometheus.CounterVec
	popularityPruned   prometheus.Counter
	searchDuration     *prometheus.HistogramVec
	searchResults      prometheus.Histogram
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	jobRuns            *prometheus.CounterVec
	jobDuration        *prometheus.HistogramVec
	breakerChanges     *prometheus.CounterVec
}

// New creates the collectors. They are not registered; call Register.
func New() *Metrics {
	return &Metrics{
		popularityOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPopularityOps,
				Help: "Popularity counter operations by operation and result",
			},
			[]string{"op", "result"},
		),
		popularityDegraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPopularityDegraded,
				Help: "Reads and writes that fell back because the popularity store failed",
			},
			[]string{"op"},
		),
		popularityPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricPopularityPruned,
				Help: "Counter members removed because their place no longer exists",
			},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricSearchDuration,
				Help:    "Place search latency in seconds by sort mode",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"sort"},
		),
		searchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricSearchResults,
				Help:    "Number of places returned per search",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "route"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricJobRunsTotal,
				Help: "Background job executions by job and status",
			},
			[]string{"job", "status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricJobDuration,
				Help:    "Background job duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"job"},
		),
		breakerChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCircuitBreakerChange,
				Help: "Circuit breaker state transitions",
			},
			[]string{"breaker", "to"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.popularityOps,
		m.popularityDegraded,
		m.popularityPruned,
		m.searchDuration,
		m.searchResults,
		m.httpRequests,
		m.httpDuration,
		m.jobRuns,
		m.jobDuration,
		m.breakerChanges,
	}
}

// ObservePopularityOp counts one counter call.
func (m *Metrics) ObservePopularityOp(op string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.popularityOps.WithLabelValues(op, result).Inc()
}

// IncPopularityDegraded counts a fallback taken because the store failed.
func (m *Metrics) IncPopularityDegraded(op string) {
	if m == nil {
		return
	}
	m.popularityDegraded.WithLabelValues(op).Inc()
}

// AddPopularityPruned counts removed counter members.
func (m *Metrics) AddPopularityPruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.popularityPruned.Add(float64(n))
}

// ObserveSearch records a completed search.
func (m *Metrics) ObserveSearch(sort string, seconds float64, results int) {
	if m == nil {
		return
	}
	m.searchDuration.WithLabelValues(sort).Observe(seconds)
	m.searchResults.Observe(float64(results))
}

// ObserveHTTPRequest records one served request. route is the mux pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// ObserveJob records one job run.
func (m *Metrics) ObserveJob(job string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := ResultSuccess
	if err != nil {
		status = ResultFailure
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(seconds)
}

// IncBreakerTransition counts a breaker entering state to.
func (m *Metrics) IncBreakerTransition(breaker, to string) {
	if m == nil {
		return
	}
	m.breakerChanges.WithLabelValues(breaker, to).Inc()
}
