// Package cache provides a Redis-backed response cache for speedrun.com API
// requests.
//
// A full catalogue scrape issues tens of thousands of requests and is often
// resumed after a crash. Caching raw response bodies lets a resumed run skip
// pages that were already downloaded, without touching the checkpoint logic.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient, cache.DefaultTTL)
//
//	key := cache.KeyFor(api.GameDataRequest("o1y9wo6q"))
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from the API, then:
//		_ = manager.Store(ctx, key, body)
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - speedstats_cache_hits_total - Cache hits
//   - speedstats_cache_misses_total - Cache misses
//   - speedstats_cache_errors_total{operation} - Cache operation errors
//   - speedstats_cache_stored_bytes_total - Response bytes written
//   - speedstats_cache_purged_total - Entries removed by Purge
package cache
