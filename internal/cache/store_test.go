package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imdanielpiva/tokenstats/internal/types"
)

func sampleUsage(input, output, costNanos int64) types.PackedUsage {
	return types.PackedUsage{
		InputTokens:  input,
		OutputTokens: output,
		CostNanos:    costNanos,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claude-v1.json")

	c := types.NewCache()
	c.LastScanUnixMs = 1736000000000
	c.Files["/logs/a.jsonl"] = &types.FileUsageRecord{
		MtimeUnixMs: 100,
		Size:        200,
		Days: types.DayUsage{
			"2025-01-05": {"claude-sonnet-4": sampleUsage(10, 20, 5000)},
		},
	}
	Apply(c, c.Files["/logs/a.jsonl"].Days, 1)

	require.NoError(t, Save(path, c))

	loaded := Load(path)
	assert.Equal(t, types.CacheVersion, loaded.Version)
	assert.Equal(t, c.LastScanUnixMs, loaded.LastScanUnixMs)
	assert.Equal(t, sampleUsage(10, 20, 5000), loaded.Days["2025-01-05"]["claude-sonnet-4"])
	assert.Equal(t, int64(100), loaded.Files["/logs/a.jsonl"].MtimeUnixMs)
}

func TestLoadMissingFileIsEmptyCache(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, types.CacheVersion, c.Version)
	assert.Empty(t, c.Files)
	assert.Empty(t, c.Days)
}

func TestLoadCorruptFileIsEmptyCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{garbage"), 0o644))

	c := Load(path)
	assert.Empty(t, c.Files)
	assert.Empty(t, c.Days)
}

func TestLoadVersionMismatchIsEmptyCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99,"days":{"2025-01-01":{"m":[1,0,0,0,0]}}}`), 0o644))

	c := Load(path)
	assert.Empty(t, c.Days)
}

func TestSaveDoesNotLeaveTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claude-v1.json")
	require.NoError(t, Save(path, types.NewCache()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "claude-v1.json", entries[0].Name())
}

func TestApplyRetractIsNoOp(t *testing.T) {
	c := types.NewCache()
	days := types.DayUsage{
		"2025-01-05": {
			"claude-sonnet-4": sampleUsage(100, 50, 3000),
			"claude-opus-4":   sampleUsage(10, 5, 9000),
		},
		"2025-01-06": {"claude-sonnet-4": sampleUsage(1, 2, 100)},
	}

	Apply(c, days, 1)
	Apply(c, days, -1)

	assert.Empty(t, c.Days, "retract after apply must leave no residue")
}

func TestApplyAccumulatesAcrossFiles(t *testing.T) {
	c := types.NewCache()
	fileA := types.DayUsage{"2025-01-05": {"m": sampleUsage(10, 0, 100)}}
	fileB := types.DayUsage{"2025-01-05": {"m": sampleUsage(5, 0, 50)}}

	Apply(c, fileA, 1)
	Apply(c, fileB, 1)
	assert.Equal(t, sampleUsage(15, 0, 150), c.Days["2025-01-05"]["m"])

	Apply(c, fileA, -1)
	assert.Equal(t, sampleUsage(5, 0, 50), c.Days["2025-01-05"]["m"])
}

func TestApplyNeverGoesNegative(t *testing.T) {
	c := types.NewCache()
	days := types.DayUsage{"2025-01-05": {"m": sampleUsage(10, 10, 100)}}

	Apply(c, days, -1)
	assert.Empty(t, c.Days)

	Apply(c, days, 1)
	Apply(c, days, -1)
	Apply(c, days, -1)
	assert.Empty(t, c.Days)
}

func TestPruneDays(t *testing.T) {
	c := types.NewCache()
	c.Files["/logs/a.jsonl"] = &types.FileUsageRecord{
		MtimeUnixMs: 1, Size: 2,
		Days: types.DayUsage{
			"2024-12-30": {"m": sampleUsage(1, 0, 0)},
			"2025-01-05": {"m": sampleUsage(2, 0, 0)},
		},
	}
	Apply(c, c.Files["/logs/a.jsonl"].Days, 1)

	PruneDays(c, "2025-01-01", "2025-01-31")

	assert.NotContains(t, c.Days, "2024-12-30")
	assert.Contains(t, c.Days, "2025-01-05")
	// The file record survives with its identity so the next scan can still
	// skip the unchanged file.
	rec := c.Files["/logs/a.jsonl"]
	assert.NotContains(t, rec.Days, "2024-12-30")
	assert.Contains(t, rec.Days, "2025-01-05")
}

func TestPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/tmp/cache", "tokenstats", "claude-v1.json"),
		Path("/tmp/cache", "claude", false))
	assert.Equal(t,
		filepath.Join("/tmp/cache", "tokenstats", "codex-v1-alltime.json"),
		Path("/tmp/cache", "codex", true))
}
