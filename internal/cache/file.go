package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/domainpulse/registrar-sync/internal/logger"
	"github.com/domainpulse/registrar-sync/internal/telemetry"
)

const entrySuffix = ".json"

// envelope is the on-disk representation of one cache entry
type envelope struct {
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// FileCache is a filesystem-backed Cache. Entries are files named by their
// fingerprint under a single directory. Clear is process-wide: it wipes the
// whole directory, across all tenants.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates a file-backed cache rooted at dir, creating the
// directory if needed
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

func (f *FileCache) entryPath(fingerprint string) string {
	return filepath.Join(f.dir, fingerprint+entrySuffix)
}

// Get implements Cache. An expired entry behaves as a miss and is removed.
func (f *FileCache) Get(fingerprint string) ([]byte, bool) {
	path := f.entryPath(fingerprint)

	//nolint:gosec // Entry paths are derived from hex fingerprints, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Corrupt entry; drop it and treat as a miss
		logger.Warnf("Removing corrupt cache entry %s: %v", fingerprint, err)
		_ = os.Remove(path)
		return nil, false
	}

	if f.now().After(env.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}

	return env.Payload, true
}

// Put implements Cache using an atomic temp-file-and-rename write
func (f *FileCache) Put(fingerprint string, payload []byte, ttl time.Duration) error {
	now := f.now()
	env := envelope{
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Payload:   json.RawMessage(payload),
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	path := f.entryPath(fingerprint)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache entry: %w", err)
	}

	return nil
}

// Stats implements Cache by scanning the cache directory
func (f *FileCache) Stats() Stats {
	var stats Stats
	now := f.now()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return stats
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), entrySuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		stats.TotalEntries++
		stats.TotalSizeBytes += info.Size()

		//nolint:gosec // Names come from ReadDir on our own directory
		data, err := os.ReadFile(filepath.Join(f.dir, entry.Name()))
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			stats.ExpiredCount++
			continue
		}
		if now.After(env.ExpiresAt) {
			stats.ExpiredCount++
		}
	}

	return stats
}

// Clear implements Cache by removing every entry file. Clearing an empty
// cache is not an error.
func (f *FileCache) Clear() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove cache entry %s: %w", entry.Name(), err)
		}
	}

	telemetry.CacheClearsTotal.Inc()
	return nil
}

var _ Cache = (*FileCache)(nil)
