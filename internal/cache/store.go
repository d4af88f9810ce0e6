// Package cache persists incremental scan state as a versioned JSON file per
// (provider, allTime) pair. Reads never fail hard: corruption, version
// mismatch, or a missing file all degrade to an empty cache and a full
// re-parse. Writes go through a temp file and an atomic rename so a crash
// mid-save leaves the previous good cache intact.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imdanielpiva/tokenstats/internal/daterange"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

const cacheSubdir = "tokenstats"

// Path returns the cache file location for one provider and mode. The
// all-time variant is a separate file because it never prunes.
func Path(cacheRoot, provider string, allTime bool) string {
	name := fmt.Sprintf("%s-v%d.json", provider, types.CacheVersion)
	if allTime {
		name = fmt.Sprintf("%s-v%d-alltime.json", provider, types.CacheVersion)
	}
	return filepath.Join(cacheRoot, cacheSubdir, name)
}

// DefaultRoot is the per-user cache directory, overridable for tests and the
// --cache-dir flag.
func DefaultRoot() (string, error) {
	return os.UserCacheDir()
}

// Load reads a cache file. Any read, decode, or version problem returns an
// empty cache: a stale or corrupt cache only costs a rescan, never a crash.
func Load(path string) *types.Cache {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.NewCache()
	}
	var c types.Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return types.NewCache()
	}
	if c.Version != types.CacheVersion {
		return types.NewCache()
	}
	if c.Files == nil {
		c.Files = make(map[string]*types.FileUsageRecord)
	}
	if c.Days == nil {
		c.Days = make(types.DayUsage)
	}
	return &c
}

// Save writes the cache atomically: temp file in the target directory, then
// rename over the destination. Write failures propagate — an unwritable
// cache silently ignored would mean rescanning everything forever.
func Save(path string, c *types.Cache) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.CacheWriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return types.CacheWriteError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(c); err != nil {
		tmp.Close()
		return types.CacheWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return types.CacheWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return types.CacheWriteError{Path: path, Err: err}
	}
	return nil
}

// Apply folds a file's per-day contribution into the denormalized day index.
// Sign +1 applies, sign -1 retracts; the two are symmetric so that
// retract-then-apply of an unchanged file is a no-op. Cells that zero out are
// dropped to keep the index tight.
func Apply(c *types.Cache, days types.DayUsage, sign int64) {
	for day, models := range days {
		index, ok := c.Days[day]
		if !ok {
			if sign < 0 {
				continue
			}
			index = make(map[string]types.PackedUsage)
			c.Days[day] = index
		}
		for model, usage := range models {
			cell := index[model]
			cell.Add(usage, sign)
			if cell.IsZero() {
				delete(index, model)
			} else {
				index[model] = cell
			}
		}
		if len(index) == 0 {
			delete(c.Days, day)
		}
	}
}

// PruneDays drops day entries outside [sinceKey, untilKey] from the day index
// and from every file record. Only called for windowed caches; the all-time
// variant keeps full history.
func PruneDays(c *types.Cache, sinceKey, untilKey string) {
	for day := range c.Days {
		if !daterange.InRange(day, sinceKey, untilKey) {
			delete(c.Days, day)
		}
	}
	// File records keep their identity even when all their days fall outside
	// the window; dropping them would force a pointless re-parse next scan.
	for _, rec := range c.Files {
		for day := range rec.Days {
			if !daterange.InRange(day, sinceKey, untilKey) {
				delete(rec.Days, day)
			}
		}
	}
}
