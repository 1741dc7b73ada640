package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"priorify/application/ports"
)

// Collector holds the Prometheus metrics of the service on its own registry
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	SimilaritySearches *prometheus.CounterVec
	SimilarityDuration prometheus.Histogram
	SimilarityHits     prometheus.Histogram

	DigestRuns     *prometheus.CounterVec
	DigestUsers    *prometheus.CounterVec
	DigestDuration *prometheus.HistogramVec
}

var _ ports.DigestMetrics = (*Collector)(nil)

// NewCollector creates a collector with every metric registered
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of queries by type and outcome",
		}, []string{"query", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		SimilaritySearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "similarity_searches_total",
			Help:      "Total number of vector index searches",
		}, []string{"status"}),
		SimilarityDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity_search_duration_seconds",
			Help:      "Vector index search duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SimilarityHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity_search_hits",
			Help:      "Neighbours returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		DigestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_runs_total",
			Help:      "Total number of digest runs",
		}, []string{"job"}),
		DigestUsers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_users_total",
			Help:      "Users processed by digest runs by outcome",
		}, []string{"job", "outcome"}),
		DigestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "digest_run_duration_seconds",
			Help:      "Digest run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"job"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Queries,
		c.QueryDuration,
		c.SimilaritySearches,
		c.SimilarityDuration,
		c.SimilarityHits,
		c.DigestRuns,
		c.DigestUsers,
		c.DigestDuration,
	)
	return c
}

// Handler serves the registry in the exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one served request
func (c *Collector) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveQuery records one query bus dispatch
func (c *Collector) ObserveQuery(queryType string, d time.Duration, err error) {
	c.Queries.WithLabelValues(queryType, outcome(err)).Inc()
	c.QueryDuration.WithLabelValues(queryType).Observe(d.Seconds())
}

// ObserveSimilaritySearch records one vector index search
func (c *Collector) ObserveSimilaritySearch(d time.Duration, hits int, err error) {
	c.SimilaritySearches.WithLabelValues(outcome(err)).Inc()
	c.SimilarityDuration.Observe(d.Seconds())
	if err == nil {
		c.SimilarityHits.Observe(float64(hits))
	}
}

// RecordDigestRun records the counters of a finished digest run
func (c *Collector) RecordDigestRun(_ context.Context, stats ports.DigestRunStats) {
	c.DigestRuns.WithLabelValues(stats.Job).Inc()
	c.DigestUsers.WithLabelValues(stats.Job, "succeeded").Add(float64(stats.Succeeded))
	c.DigestUsers.WithLabelValues(stats.Job, "failed").Add(float64(stats.Failed))
	c.DigestUsers.WithLabelValues(stats.Job, "skipped").Add(float64(stats.Skipped))
	c.DigestUsers.WithLabelValues(stats.Job, "dispatched").Add(float64(stats.Dispatched))
	c.DigestDuration.WithLabelValues(stats.Job).Observe(stats.Duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// DigestMetricsFanout forwards digest results to several sinks
type DigestMetricsFanout []ports.DigestMetrics

// RecordDigestRun implements ports.DigestMetrics
func (f DigestMetricsFanout) RecordDigestRun(ctx context.Context, stats ports.DigestRunStats) {
	for _, m := range f {
		if m != nil {
			m.RecordDigestRun(ctx, stats)
		}
	}
}
