package main

import (
	"os"
	"strconv"
	"time"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/cache"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/checkpoint"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/client"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/scraper"
)

// Version is set at build time.
var Version = "0.1.0"

// Config is the CLI configuration. Environment variables (optionally from
// .env) provide the defaults; flags override them.
type Config struct {
	BaseURL     string
	UserAgent   string
	RedisURL    string
	CacheTTL    time.Duration
	Concurrency int
	BatchSize   int
	Checkpoint  string
	LogLevel    string
	LogFile     string
	MetricsAddr string
}

// loadConfig reads the configuration from the environment.
func loadConfig() Config {
	defaults := scraper.DefaultConfig()

	return Config{
		BaseURL:     getEnv("SPEEDSTATS_BASE_URL", client.DefaultBaseURL),
		UserAgent:   getEnv("SPEEDSTATS_USER_AGENT", "speedstats/"+Version),
		RedisURL:    getEnv("SPEEDSTATS_REDIS_URL", ""),
		CacheTTL:    getEnvDuration("SPEEDSTATS_CACHE_TTL", cache.DefaultTTL),
		Concurrency: getEnvInt("SPEEDSTATS_CONCURRENCY", defaults.Wave.Size),
		BatchSize:   getEnvInt("SPEEDSTATS_BATCH_SIZE", defaults.BatchSize),
		Checkpoint:  getEnv("SPEEDSTATS_CHECKPOINT", checkpoint.DefaultQueuePath),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		MetricsAddr: getEnv("SPEEDSTATS_METRICS_ADDR", ""),
	}
}

// scraperConfig maps the CLI configuration onto the scraper defaults.
func (c Config) scraperConfig() scraper.Config {
	cfg := scraper.DefaultConfig()
	cfg.Wave.Size = c.Concurrency
	cfg.BatchSize = c.BatchSize
	cfg.QueuePath = c.Checkpoint
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
