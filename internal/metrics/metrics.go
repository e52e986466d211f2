package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the newslens collectors plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	fetchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "newslens_fetch_requests_total",
		Help: "Upstream page requests by source.",
	}, []string{"source"})
	fetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "newslens_fetch_errors_total",
		Help: "Failed upstream page requests by source.",
	}, []string{"source"})
	articlesIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "newslens_articles_ingested_total",
		Help: "Articles saved by source.",
	}, []string{"source"})
	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newslens_fetch_duration_seconds",
		Help:    "Upstream page request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	clusterRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newslens_cluster_runs_total",
		Help: "Vectorize and cluster passes over a new corpus snapshot.",
	})
	clusterDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "newslens_cluster_duration_seconds",
		Help:    "Time spent vectorizing and clustering one snapshot.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		fetchRequests, fetchErrors, articlesIngested, fetchDuration,
		clusterRuns, clusterDuration,
	)
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type Metrics struct {
	mu sync.RWMutex

	// Counters
	PagesFetched     int64
	FetchErrors      int64
	ArticlesIngested int64
	SaveErrors       int64
	ClusterRuns      int64
	MemoHits         int64

	// Timings
	LastClusterTime    time.Duration
	AverageClusterTime time.Duration
	TotalClusterTime   time.Duration

	// Status
	LastIngestTime time.Time
	LastErrorTime  time.Time
	LastError      string
	IsHealthy      bool
}

var Global = &Metrics{IsHealthy: true}

// ObserveFetch records one upstream page request.
func (m *Metrics) ObserveFetch(source string, d time.Duration, err error) {
	fetchRequests.WithLabelValues(source).Inc()
	fetchDuration.WithLabelValues(source).Observe(d.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.PagesFetched++
	if err != nil {
		fetchErrors.WithLabelValues(source).Inc()
		m.FetchErrors++
		m.setError(err.Error())
	}
}

// AddIngested counts articles saved for source.
func (m *Metrics) AddIngested(source string, n int) {
	articlesIngested.WithLabelValues(source).Add(float64(n))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesIngested += int64(n)
}

func (m *Metrics) IncrementSaveErrors(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveErrors++
	m.setError(err.Error())
}

func (m *Metrics) IncrementMemoHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MemoHits++
}

// RecordClusterTime records one vectorize and cluster pass.
func (m *Metrics) RecordClusterTime(duration time.Duration) {
	clusterRuns.Inc()
	clusterDuration.Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastClusterTime = duration
	m.TotalClusterTime += duration
	m.ClusterRuns++
	m.AverageClusterTime = m.TotalClusterTime / time.Duration(m.ClusterRuns)
}

func (m *Metrics) SetLastIngest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastIngestTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setError(err)
}

func (m *Metrics) setError(err string) {
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"pages_fetched":           m.PagesFetched,
		"fetch_errors":            m.FetchErrors,
		"articles_ingested":       m.ArticlesIngested,
		"save_errors":             m.SaveErrors,
		"cluster_runs":            m.ClusterRuns,
		"memo_hits":               m.MemoHits,
		"last_cluster_time_ms":    m.LastClusterTime.Milliseconds(),
		"average_cluster_time_ms": m.AverageClusterTime.Milliseconds(),
		"last_ingest_time":        m.LastIngestTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
