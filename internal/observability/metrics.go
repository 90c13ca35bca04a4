// Package observability holds tracing setup and Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MailJobsEnqueued counts email jobs submitted to the outbox queue.
	MailJobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_mail_jobs_enqueued_total",
		Help: "Total number of email jobs enqueued",
	})

	// MailJobsFailed counts email jobs that failed to send. Delivery is
	// best-effort; this counter is the only place failures surface.
	MailJobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_mail_jobs_failed_total",
		Help: "Total number of email jobs that failed to send",
	})

	// CacheHits counts cache-aside hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_cache_hits_total",
		Help: "Total number of cache hits",
	})

	// CacheMisses counts cache-aside misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_cache_misses_total",
		Help: "Total number of cache misses",
	})
)
