package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts lookups answered from Redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speedstats_cache_hits_total",
		Help: "Total number of API response cache hits",
	})

	// CacheMisses counts lookups that fell through to the API, expired
	// entries included.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speedstats_cache_misses_total",
		Help: "Total number of API response cache misses",
	})

	// CacheErrors counts failed Redis operations by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speedstats_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"}) // get, set, delete, purge

	// CacheStoredBytes counts response bytes written to Redis.
	CacheStoredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speedstats_cache_stored_bytes_total",
		Help: "Total number of response body bytes written to the cache",
	})

	// CachePurged counts entries removed by Purge.
	CachePurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speedstats_cache_purged_total",
		Help: "Total number of cache entries removed by endpoint purges",
	})
)
