// Package client provides the speedrun.com HTTP transport with retries,
// response caching, and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/cache"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public speedrun.com host.
const DefaultBaseURL = "https://www.speedrun.com"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speedstats_requests_total",
		Help: "Total speedrun.com requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speedstats_request_duration_seconds",
		Help:    "speedrun.com request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speedstats_errors_total",
		Help: "Total speedrun.com errors by class",
	}, []string{"class"})
)

var _ api.Transport = (*Client)(nil)

// Client performs api.Requests against speedrun.com. It implements
// api.Transport.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	retrier    *retrier
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the scheme and host requests are sent to.
	BaseURL string

	// User-Agent header (REQUIRED)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// Retry picks backoff settings per error class. Nil means
	// RetryConfigForErrorClass.
	Retry RetryPolicy

	// Cache is optional. A nil cache disables response caching.
	Cache *cache.Manager
}

// DefaultConfig returns a safe default configuration without a cache.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Retry:     RetryConfigForErrorClass,
	}
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry == nil {
		cfg.Retry = RetryConfigForErrorClass
	}

	logger := logging.NewLogger("speedrun-client")
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:   cfg.Cache,
		retrier: newRetrier(cfg.Retry, logger),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Perform sends req and returns the response body. Successful bodies are
// served from and stored in the cache when one is configured.
func (c *Client) Perform(ctx context.Context, req api.Request) ([]byte, error) {
	endpoint := req.Endpoint

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var cacheKey cache.CacheKey
	if c.cache != nil {
		cacheKey = cache.KeyFor(req)
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			requestsTotal.WithLabelValues(endpoint, "cached").Inc()
			c.logger.Debug().Str("key", cacheKey.String()).Msg("Serving cached response")
			return entry.Data, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("version", req.Version).
		Msg("Executing speedrun.com request")

	var body []byte
	err := c.retrier.do(ctx, endpoint, func() error {
		var attemptErr error
		body, attemptErr = c.attempt(ctx, req)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Store(ctx, cacheKey, body); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return body, nil
}

// attempt sends req once. Any status of 400 or more becomes an *APIError.
func (c *Client) attempt(ctx context.Context, req api.Request) ([]byte, error) {
	endpoint := req.Endpoint

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		// Not retriable: the request itself is malformed.
		return nil, &APIError{ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode >= 400 {
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		requestsTotal.WithLabelValues(endpoint, status).Inc()
		_, _ = io.Copy(io.Discard, resp.Body)

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("speedrun.com request error")

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read body", Err: err}
	}

	requestsTotal.WithLabelValues(endpoint, status).Inc()
	return body, nil
}

// newHTTPRequest maps req onto the wire. Version 2 endpoints take a JSON
// POST body; version 1 resources take query parameters.
func (c *Client) newHTTPRequest(ctx context.Context, req api.Request) (*http.Request, error) {
	var httpReq *http.Request

	switch req.Version {
	case 1:
		query := url.Values{}
		for k, v := range req.Params {
			query.Set(k, fmt.Sprintf("%v", v))
		}
		target := c.config.BaseURL + "/api/v1/" + strings.TrimLeft(req.Endpoint, "/")
		if len(query) > 0 {
			target += "?" + query.Encode()
		}

		r, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		httpReq = r
	case 2:
		params := req.Params
		if params == nil {
			params = map[string]any{}
		}
		payload, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}

		target := c.config.BaseURL + "/api/v2/" + strings.TrimLeft(req.Endpoint, "/")
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		httpReq = r
	default:
		return nil, fmt.Errorf("unsupported api version %d", req.Version)
	}

	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
