// Package metrics provides Prometheus metrics for the blog.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "picoblog"

var (
	// HTTPRequestsTotal counts handled requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	// HTTPRequestDuration measures request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// PageCacheTotal counts page cache lookups by result (hit, miss).
	PageCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_cache_total",
			Help:      "Page cache lookups by result",
		},
		[]string{"result"},
	)

	// ArticleChangesTotal counts admin changes by action.
	ArticleChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_changes_total",
			Help:      "Article create, update and delete operations",
		},
		[]string{"action"},
	)

	// PingsTotal counts update notifications by result (ok, error, deferred, coalesced).
	PingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pings_total",
			Help:      "Update notification pings by result",
		},
		[]string{"result"},
	)

	// FeedMirrorTotal counts feed uploads to object storage by result.
	FeedMirrorTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_mirror_total",
			Help:      "RSS feed mirror uploads by result",
		},
		[]string{"result"},
	)
)

// RecordRequest records a completed HTTP request.
func RecordRequest(method string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordCache records a page cache lookup.
func RecordCache(hit bool) {
	if hit {
		PageCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	PageCacheTotal.WithLabelValues("miss").Inc()
}

// RecordChange records an admin article change.
func RecordChange(action string) {
	ArticleChangesTotal.WithLabelValues(action).Inc()
}

// RecordPing records the outcome of one ping.
func RecordPing(result string) {
	PingsTotal.WithLabelValues(result).Inc()
}

// RecordFeedMirror records the outcome of one feed upload.
func RecordFeedMirror(err error) {
	if err != nil {
		FeedMirrorTotal.WithLabelValues("error").Inc()
		return
	}
	FeedMirrorTotal.WithLabelValues("ok").Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
