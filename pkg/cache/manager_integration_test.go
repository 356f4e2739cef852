//go:build integration

package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestManager_Integration_RoundTrip(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	manager := NewManager(client, time.Minute)
	ctx := context.Background()
	key := CacheKey{Version: 2, Endpoint: "GetGameLeaderboard2", Params: map[string]string{"page": "2"}}

	if _, err := manager.Get(ctx, key); err != ErrCacheMiss {
		t.Fatalf("Expected ErrCacheMiss before Store, got %v", err)
	}

	if err := manager.Store(ctx, key, []byte(`{"runList":[]}`)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	entry, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(entry.Data) != `{"runList":[]}` {
		t.Errorf("Data = %s", entry.Data)
	}
}

func TestManager_Integration_RedisExpiry(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	manager := NewManager(client, time.Second)
	ctx := context.Background()
	key := CacheKey{Version: 2, Endpoint: "GetGameData"}

	if err := manager.Store(ctx, key, []byte(`{}`)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := manager.Get(ctx, key); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestManager_Integration_PurgeListings(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	for page := 1; page <= 450; page++ {
		key := CacheKey{Version: 2, Endpoint: "GetGameList", Params: map[string]string{"page": strconv.Itoa(page)}}
		if err := manager.Store(ctx, key, []byte(`{}`)); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	removed, err := manager.Purge(ctx, 2, "GetGameList")
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 450 {
		t.Errorf("Purge removed %d entries, want 450", removed)
	}
}
