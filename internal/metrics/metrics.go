// Package metrics exposes Prometheus collectors for the crawler and the page
// processing pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlPagesTotal            *prometheus.CounterVec
	pipelinePagesTotal         *prometheus.CounterVec
	pipelinePageSeconds        prometheus.Histogram
	pipelineActivePages        prometheus.Gauge
	aiCallsTotal               *prometheus.CounterVec
	aiRetriesTotal             *prometheus.CounterVec
	rateLimitWaitSeconds       prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to call
// more than once, and every Observe helper calls it.
func Init() {
	once.Do(func() {
		crawlPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_crawl_pages_total",
				Help: "Pages visited during crawls, labeled by site and outcome.",
			},
			[]string{"site", "status"},
		)

		pipelinePagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_pipeline_pages_total",
				Help: "Pages handled by the pipeline, labeled by final stage and outcome.",
			},
			[]string{"stage", "status"},
		)

		pipelinePageSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docs_pipeline_page_seconds",
				Help:    "Wall time spent processing one page.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		pipelineActivePages = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "docs_pipeline_active_pages",
				Help: "Pages currently being processed.",
			},
		)

		aiCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_ai_calls_total",
				Help: "Calls to the generative AI service, labeled by operation and outcome.",
			},
			[]string{"operation", "status"},
		)

		aiRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_ai_retries_total",
				Help: "Retried AI calls, labeled by operation.",
			},
			[]string{"operation"},
		)

		rateLimitWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docs_ai_rate_limit_wait_seconds",
				Help:    "Time spent waiting for the shared AI rate limiter.",
				Buckets: []float64{0.1, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveCrawlPage counts one crawled page.
func ObserveCrawlPage(rawURL, status string) {
	Init()
	crawlPagesTotal.WithLabelValues(SanitizeSite(rawURL), status).Inc()
}

// ObservePipelinePage counts a finished page. stage is the last stage reached.
func ObservePipelinePage(stage, status string, duration time.Duration) {
	Init()
	pipelinePagesTotal.WithLabelValues(stage, status).Inc()
	pipelinePageSeconds.Observe(duration.Seconds())
}

// IncActivePages increments the in-flight page gauge.
func IncActivePages() {
	Init()
	pipelineActivePages.Inc()
}

// DecActivePages decrements the in-flight page gauge.
func DecActivePages() {
	Init()
	pipelineActivePages.Dec()
}

// ObserveAICall counts one AI service call.
func ObserveAICall(operation, status string) {
	Init()
	aiCallsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveAIRetry counts one retried AI call.
func ObserveAIRetry(operation string) {
	Init()
	aiRetriesTotal.WithLabelValues(operation).Inc()
}

// ObserveRateLimitWait records how long a caller waited for the AI limiter.
func ObserveRateLimitWait(duration time.Duration) {
	Init()
	rateLimitWaitSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest records one API request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
