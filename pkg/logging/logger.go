// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// DefaultLogFile is where the CLI mirrors logs when asked to.
const DefaultLogFile = "logs/output.log"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// File optionally receives a JSON copy of the logs, filtered at
	// FileLevel instead of Level.
	File io.Writer

	// FileLevel is the minimum level written to File (default: debug).
	FileLevel LogLevel
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:     LevelInfo,
		Pretty:    false,
		Output:    os.Stderr,
		FileLevel: LevelDebug,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	if cfg.File == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		fileLevel := zerolog.DebugLevel
		if cfg.FileLevel != "" {
			fileLevel = parseLevel(cfg.FileLevel)
		}
		// The global level must let through whatever either sink wants.
		zerolog.SetGlobalLevel(min(level, fileLevel))
		output = zerolog.MultiLevelWriter(
			&zerolog.FilteredLevelWriter{Writer: zerolog.LevelWriterAdapter{Writer: output}, Level: level},
			&zerolog.FilteredLevelWriter{Writer: zerolog.LevelWriterAdapter{Writer: cfg.File}, Level: fileLevel},
		)
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// OpenLogFile creates (or truncates) the log file at path, creating parent
// directories as needed.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, key)
//   - Excluded entities and null game data
//   - Retry backoff durations
//
// Info: Normal operation events
//   - Page and entity requests ("Requesting games for series ...")
//   - Leaderboard pages collected
//   - Batch progress, skipped batches
//   - Checkpoint loads
//
// Warn: Warning conditions that don't prevent operation
//   - Wave task retries
//   - HTTP retry exhaustion, 4xx/5xx responses
//   - Runs with a null time, unresolved players
//   - Unreadable checkpoints (rediscovered)
//
// Error: Error conditions requiring attention
//   - Wave failure budget exhausted
//   - Network failures
//   - Fatal CLI errors
//
// Context Fields:
//   - component: emitting component (orchestrator, collector, wave, ...)
//   - scrape_id: one id per CLI invocation
//   - endpoint: API endpoint name
//   - status: HTTP status code
//   - error_class: Error classification (client, server, rate_limit, network)
//   - game_id, category_id, series_id, page: pipeline position
//   - batch: batch index
