// Package checkpoint persists the discovered game queue and the per-batch
// run dumps.
//
// Files are written to a temporary sibling and renamed into place, so a
// crash mid-write never leaves a truncated checkpoint or batch file behind.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
)

// Version is the queue format written by SaveQueue.
const Version = 1

// DefaultQueuePath is where the game queue is checkpointed.
const DefaultQueuePath = "data/gameQueue.json"

// ErrUnsupportedVersion is returned by LoadQueue for a queue written in
// another format.
var ErrUnsupportedVersion = errors.New("unsupported checkpoint version")

// Queue is the discovery result: the series list and every game to scrape,
// series games first.
type Queue struct {
	Version   int                `json:"version"`
	CreatedAt time.Time          `json:"createdAt"`
	Series    []api.Overview     `json:"series"`
	Games     []api.GameOverview `json:"games"`
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// SaveQueue writes q to path, stamping the current version and, when unset,
// the creation time.
func SaveQueue(path string, q Queue) error {
	q.Version = Version
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if err := writeJSON(path, q); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}

// LoadQueue reads the queue at path.
func LoadQueue(path string) (*Queue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}

	var q Queue
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	if q.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, q.Version)
	}
	return &q, nil
}

// BatchPath derives the dump file of batch idx from the output path:
// data/runs.json becomes data/runs_3.json.
func BatchPath(outputPath string, idx int) string {
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return fmt.Sprintf("%s_%d.json", base, idx)
}

// DumpRuns writes runs to path as a JSON array. A nil slice is written as
// an empty array.
func DumpRuns[T any](path string, runs []T) error {
	if runs == nil {
		runs = []T{}
	}
	if err := writeJSON(path, runs); err != nil {
		return fmt.Errorf("dump runs: %w", err)
	}
	return nil
}

// writeJSON encodes v into a temp file next to path and renames it over path.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
