package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
)

// CacheKey represents a unique identifier for a cached API response.
type CacheKey struct {
	// Version is the API generation (1 or 2)
	Version int

	// Endpoint is the v2 endpoint name or v1 resource path
	Endpoint string

	// Params are the request parameters, stringified
	Params map[string]string
}

// KeyFor builds the cache key of an API request.
func KeyFor(req api.Request) CacheKey {
	params := make(map[string]string, len(req.Params))
	for k, v := range req.Params {
		params[k] = fmt.Sprintf("%v", v)
	}
	return CacheKey{
		Version:  req.Version,
		Endpoint: req.Endpoint,
		Params:   params,
	}
}

// String generates a deterministic cache key string.
// Format: speedstats:v2:endpoint:param1=val1:param2=val2
//
// Example:
//
//	speedstats:v2:GetGameList:page=2:seriesId=rv7emz49
func (k CacheKey) String() string {
	parts := []string{"speedstats", fmt.Sprintf("v%d", k.Version)}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add params (sorted for determinism)
	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Params[key]))
		}
	}

	return strings.Join(parts, ":")
}
