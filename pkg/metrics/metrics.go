// Package metrics exposes the Prometheus registry used by the scraper.
// All metrics are defined in their respective packages (client, cache, wave,
// run, scraper) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation, reference and the HTTP handler for
// all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the scraper.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - speedstats_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status ("cached", "network_error" for non-HTTP outcomes)
//   - speedstats_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - speedstats_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - speedstats_retries_total{error_class} (Counter): Retry attempts by error class
//   - speedstats_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - speedstats_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - speedstats_cache_hits_total (Counter): Cache hits
//   - speedstats_cache_misses_total (Counter): Cache misses
//   - speedstats_cache_errors_total{operation} (Counter): Cache operation errors
//   - speedstats_cache_stored_bytes_total (Counter): Response bytes written to Redis
//   - speedstats_cache_purged_total (Counter): Entries removed by endpoint purges
//
// Pipeline Metrics (pkg/wave, pkg/run, pkg/scraper):
//   - speedstats_waves_total (Counter): Completed task waves
//   - speedstats_wave_task_failures_total (Counter): Failed task attempts inside waves
//   - speedstats_runs_collected_total (Counter): Runs normalized into batch buffers
//   - speedstats_batches_total{outcome} (Counter): Game batches processed or skipped
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(speedstats_cache_hits_total[5m])) /
//   (sum(rate(speedstats_cache_hits_total[5m])) + sum(rate(speedstats_cache_misses_total[5m])))
//
//   # Wave Failure Rate
//   rate(speedstats_wave_task_failures_total[5m])
//
//   # Request Error Rate
//   rate(speedstats_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(speedstats_request_duration_seconds_bucket[5m]))
//
//   # Runs per minute
//   rate(speedstats_runs_collected_total[1m]) * 60
