package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/ColasDroin/SpeedStats-V2-public/internal/testutil"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/cache"
	"github.com/redis/go-redis/v9"
)

const testUserAgent = "SpeedStats-Test/1.0 (test@example.com)"

// newTestClient points a client at mock with fast retries.
func newTestClient(t *testing.T, mock *testutil.MockSpeedrun, c *cache.Manager) *Client {
	t.Helper()

	cfg := DefaultConfig(testUserAgent)
	cfg.BaseURL = mock.URL()
	cfg.Retry = fastRetry
	cfg.Cache = c

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

// setupTestRedis creates a test Redis client, skipping when none is reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(testUserAgent)

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.UserAgent != testUserAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, testUserAgent)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.Cache != nil {
		t.Error("default config should not enable the cache")
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid config", DefaultConfig(testUserAgent), false},
		{"missing user agent", DefaultConfig(""), true},
		{"missing base url", Config{UserAgent: testUserAgent}, true},
		{"invalid base url", Config{UserAgent: testUserAgent, BaseURL: "http://[::1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPerform_V2PostsJSON(t *testing.T) {
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	var gotBody map[string]any
	var gotContentType string
	mock.SetHandler("/api/v2/GetGameList", func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"gameList":[]}`))
	})

	client := newTestClient(t, mock, nil)
	body, err := client.Perform(context.Background(), api.SeriesGameListRequest("rv7emz49", 2))
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}

	if string(body) != `{"gameList":[]}` {
		t.Errorf("body = %s", body)
	}
	if mock.GetLastMethod() != http.MethodPost {
		t.Errorf("method = %s, want POST", mock.GetLastMethod())
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["seriesId"] != "rv7emz49" || gotBody["page"] != float64(2) {
		t.Errorf("request body = %v", gotBody)
	}
	if ua := mock.GetLastHeader().Get("User-Agent"); ua != testUserAgent {
		t.Errorf("User-Agent = %q, want %q", ua, testUserAgent)
	}
}

func TestPerform_V1UsesQuery(t *testing.T) {
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	var gotMax string
	mock.SetHandler("/api/v1/series/15ndxp7r/games", func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("max")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":[]}`))
	})

	client := newTestClient(t, mock, nil)
	if _, err := client.Perform(context.Background(), api.SeriesGamesV1Request("15ndxp7r", 200)); err != nil {
		t.Fatalf("Perform() error = %v", err)
	}

	if mock.GetLastMethod() != http.MethodGet {
		t.Errorf("method = %s, want GET", mock.GetLastMethod())
	}
	if gotMax != "200" {
		t.Errorf("max = %q, want 200", gotMax)
	}
}

func TestPerform_UnsupportedVersion(t *testing.T) {
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	client := newTestClient(t, mock, nil)
	_, err := client.Perform(context.Background(), api.Request{Version: 3, Endpoint: "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassClient {
		t.Fatalf("Perform() error = %v, want client APIError", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("request count = %d, want 0", mock.GetRequestCount())
	}
}

func TestPerform_RetryOnServerError(t *testing.T) {
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	mock.SetSequence("/api/v2/GetSeriesList",
		testutil.NewServerErrorResponse(),
		testutil.NewHealthyResponse(`{"seriesList":[]}`),
	)

	client := newTestClient(t, mock, nil)
	body, err := client.Perform(context.Background(), api.SeriesListRequest(1))
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}

	if string(body) != `{"seriesList":[]}` {
		t.Errorf("body = %s", body)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("request count = %d, want 2", mock.GetRequestCount())
	}
}

func TestPerform_RetryOnRateLimit(t *testing.T) {
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	mock.SetSequence("/api/v2/GetSeriesList",
		testutil.NewRateLimitResponse(),
		testutil.NewRateLimitResponse(),
		testutil.NewHealthyResponse(`{"seriesList":[]}`),
	)

	client := newTestClient(t, mock, nil)
	if _, err := client.Perform(context.Background(), api.SeriesListRequest(1)); err != nil {
		t.Fatalf("Perform() error = %v", err)
	}

	if mock.GetRequestCount() != 3 {
		t.Errorf("request count = %d, want 3", mock.GetRequestCount())
	}
}

func TestPerform_NoRetryOnClientError(t *testing.T) {
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	mock.SetResponse("/api/v2/GetGameData", testutil.NewNotFoundResponse())

	client := newTestClient(t, mock, nil)
	_, err := client.Perform(context.Background(), api.GameDataRequest("nope"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Perform() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("request count = %d, want 1 (no retry)", mock.GetRequestCount())
	}
}

func TestPerform_RetryExhausted(t *testing.T) {
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	mock.SetResponse("/api/v2/GetSeriesList", testutil.NewServerErrorResponse())

	client := newTestClient(t, mock, nil)
	_, err := client.Perform(context.Background(), api.SeriesListRequest(1))

	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("Perform() error = %v, want ErrRetryExhausted", err)
	}
	if mock.GetRequestCount() != 3 {
		t.Errorf("request count = %d, want 3", mock.GetRequestCount())
	}
}

func TestPerform_NetworkError(t *testing.T) {
	mock := testutil.NewMockSpeedrun()
	client := newTestClient(t, mock, nil)
	mock.Close()

	_, err := client.Perform(context.Background(), api.SeriesListRequest(1))

	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("Perform() error = %v, want ErrRetryExhausted", err)
	}
	if classOf(err) != ErrorClassNetwork {
		t.Errorf("class = %q, want network", classOf(err))
	}
}

func TestPerform_CacheHit(t *testing.T) {
	redisClient := setupTestRedis(t)
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	mock.SetResponse("/api/v2/GetGameData", testutil.NewHealthyResponse(`{"game":{"id":"g1"}}`))

	client := newTestClient(t, mock, cache.NewManager(redisClient, time.Minute))
	req := api.GameDataRequest("g1")

	first, err := client.Perform(context.Background(), req)
	if err != nil {
		t.Fatalf("first Perform() error = %v", err)
	}
	second, err := client.Perform(context.Background(), req)
	if err != nil {
		t.Fatalf("second Perform() error = %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("cached body = %s, want %s", second, first)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("request count = %d, want 1 (second served from cache)", mock.GetRequestCount())
	}
}

func TestPerform_ErrorsAreNotCached(t *testing.T) {
	redisClient := setupTestRedis(t)
	mock := testutil.NewMockSpeedrun()
	defer mock.Close()

	mock.SetResponse("/api/v2/GetGameData", testutil.NewNotFoundResponse())

	client := newTestClient(t, mock, cache.NewManager(redisClient, time.Minute))
	req := api.GameDataRequest("g1")

	client.Perform(context.Background(), req)
	client.Perform(context.Background(), req)

	if mock.GetRequestCount() != 2 {
		t.Errorf("request count = %d, want 2", mock.GetRequestCount())
	}
}
