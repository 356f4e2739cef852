package cache

import (
	"time"
)

// DefaultTTL is how long a cached response stays valid.
// A full catalogue scrape takes hours, so entries outlive a single batch.
const DefaultTTL = 6 * time.Hour

// CacheEntry is a successful response body as stored in Redis. Only 200
// responses are cached, so no status is kept.
type CacheEntry struct {
	Endpoint string    `json:"endpoint"`
	Data     []byte    `json:"data"`
	CachedAt time.Time `json:"cached_at"`
	Expires  time.Time `json:"expires"`
}

// NewEntry wraps a body fetched from endpoint that expires after ttl.
func NewEntry(endpoint string, data []byte, ttl time.Duration) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Endpoint: endpoint,
		Data:     data,
		CachedAt: now,
		Expires:  now.Add(ttl),
	}
}

// IsExpired reports whether the entry is past its expiry.
func (e *CacheEntry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time left before expiry, or 0.
func (e *CacheEntry) TTL() time.Duration {
	return max(time.Until(e.Expires), 0)
}

// Age returns how long ago the body was fetched.
func (e *CacheEntry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
