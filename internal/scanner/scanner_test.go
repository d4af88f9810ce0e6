package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imdanielpiva/tokenstats/internal/cache"
	"github.com/imdanielpiva/tokenstats/internal/pricing"
	"github.com/imdanielpiva/tokenstats/internal/providers"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

func transcriptLine(ts, reqID, msgID string, input, output int64) string {
	return `{"type":"assistant","timestamp":"` + ts + `","requestId":"` + reqID +
		`","message":{"id":"` + msgID + `","model":"claude-sonnet-4-5-20250929","usage":{"input_tokens":` +
		itoa(input) + `,"output_tokens":` + itoa(output) + `}},"costUSD":0.10}` + "\n"
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func newTestScanner(t *testing.T) (*Scanner, Options, string) {
	t.Helper()
	logRoot := t.TempDir()
	cacheRoot := t.TempDir()

	registry := providers.NewRegistry(time.UTC, pricing.NewService())
	s := New(registry)

	opts := Options{
		Now:       time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		AllTime:   true,
		CacheRoot: cacheRoot,
		Roots:     map[string]string{"claude": logRoot},
	}
	return s, opts, logRoot
}

func writeLog(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanMissingRootIsEmptyReport(t *testing.T) {
	s, opts, _ := newTestScanner(t)
	opts.Roots = map[string]string{"claude": filepath.Join(t.TempDir(), "does-not-exist")}

	report, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	assert.Empty(t, report.Entries)
}

func TestScanUnknownProvider(t *testing.T) {
	s, opts, _ := newTestScanner(t)
	_, err := s.Scan(context.Background(), "mystery", opts)
	assert.ErrorIs(t, err, types.ErrUnknownProvider)
}

func TestScanBuildsSortedDailyReport(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "b.jsonl", transcriptLine("2025-01-07T10:00:00Z", "r1", "m1", 5, 2))
	writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r2", "m2", 3, 1))

	report, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, "2025-01-05", report.Entries[0].Date)
	assert.Equal(t, "2025-01-07", report.Entries[1].Date)
	assert.Equal(t, []string{"claude-sonnet-4-5"}, report.Entries[0].ModelsUsed)
	require.NotNil(t, report.Entries[0].CostUSD)
	assert.InDelta(t, 0.10, *report.Entries[0].CostUSD, 1e-9)
}

func TestScanIsIdempotent(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))

	first, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	cachePath := cache.Path(opts.CacheRoot, "claude", true)
	firstBytes, err := os.ReadFile(cachePath)
	require.NoError(t, err)

	second, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(cachePath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstBytes, secondBytes)
}

func TestScanModifiedFileReplacesContribution(t *testing.T) {
	s, opts, root := newTestScanner(t)
	path := writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))

	_, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)

	// Rewrite the file with different usage on a different day. The old
	// contribution must vanish, not accumulate.
	require.NoError(t, os.WriteFile(path, []byte(
		transcriptLine("2025-01-06T10:00:00Z", "r9", "m9", 7, 3)), 0o644))
	bumpMtime(t, path)

	report, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, "2025-01-06", report.Entries[0].Date)
	assert.Equal(t, int64(7), report.Entries[0].InputTokens)
}

func TestScanDeletedFileIsRetracted(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "keep.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))
	gone := writeLog(t, root, "gone.jsonl", transcriptLine("2025-01-05T11:00:00Z", "r2", "m2", 9, 4))

	first, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	assert.Equal(t, int64(14), first.Entries[0].InputTokens)

	require.NoError(t, os.Remove(gone))

	second, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, int64(5), second.Entries[0].InputTokens)
}

func TestScanForceRescanMatchesIncremental(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))
	writeLog(t, root, "b.jsonl", transcriptLine("2025-01-06T10:00:00Z", "r2", "m2", 3, 1))

	incremental, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)

	forced := opts
	forced.ForceRescan = true
	rescanned, err := s.Scan(context.Background(), "claude", forced)
	require.NoError(t, err)

	assert.Equal(t, incremental, rescanned)
}

func TestScanCancelledMidScanLeavesCacheUntouched(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Scan(ctx, "claude", opts)
	require.Error(t, err)

	// The aborted scan must not have recorded the file with zero usage;
	// a clean scan afterwards still parses and reports it.
	_, err = os.Stat(cache.Path(opts.CacheRoot, "claude", true))
	assert.True(t, os.IsNotExist(err))

	report, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, int64(5), report.Entries[0].InputTokens)
}

func TestScanEmptyRangeDoesNotEraseCache(t *testing.T) {
	s, opts, root := newTestScanner(t)
	opts.AllTime = false
	opts.Since = "2025-01-01"
	writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))

	first, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)

	// since > until is a valid empty query; it must not prune the windowed
	// cache down to nothing while the file records still match on identity.
	inverted := opts
	inverted.Since = "2025-02-01"
	inverted.Until = "2025-01-01"
	empty, err := s.Scan(context.Background(), "claude", inverted)
	require.NoError(t, err)
	assert.Empty(t, empty.Entries)

	again, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	require.Len(t, again.Entries, 1)
	assert.Equal(t, int64(5), again.Entries[0].InputTokens)
}

func TestScanRecoversFromCorruptCache(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))

	clean, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)

	cachePath := cache.Path(opts.CacheRoot, "claude", true)
	require.NoError(t, os.WriteFile(cachePath, []byte("garbage bytes"), 0o644))

	recovered, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	assert.Equal(t, clean, recovered)
}

func TestScanWindowedPrunesOutOfRangeDays(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "a.jsonl",
		transcriptLine("2024-11-01T10:00:00Z", "r1", "m1", 5, 2)+
			transcriptLine("2025-01-05T10:00:00Z", "r2", "m2", 3, 1))

	opts.AllTime = false
	opts.Since = "2025-01-01"

	report, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "2025-01-05", report.Entries[0].Date)

	c := cache.Load(cache.Path(opts.CacheRoot, "claude", false))
	assert.NotContains(t, c.Days, "2024-11-01")
}

func TestScanRespectsRefreshMinInterval(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))

	_, err := s.Scan(context.Background(), "claude", opts)
	require.NoError(t, err)

	// New file appears, but the next scan is inside the rate-limit window
	// and must serve the cached state.
	writeLog(t, root, "b.jsonl", transcriptLine("2025-01-06T10:00:00Z", "r2", "m2", 3, 1))

	limited := opts
	limited.Now = opts.Now.Add(time.Second)
	limited.RefreshMinInterval = time.Minute
	report, err := s.Scan(context.Background(), "claude", limited)
	require.NoError(t, err)
	assert.Len(t, report.Entries, 1)

	later := opts
	later.Now = opts.Now.Add(2 * time.Minute)
	later.RefreshMinInterval = time.Minute
	report, err = s.Scan(context.Background(), "claude", later)
	require.NoError(t, err)
	assert.Len(t, report.Entries, 2)
}

func TestScanAllMergesProviders(t *testing.T) {
	s, opts, root := newTestScanner(t)
	writeLog(t, root, "a.jsonl", transcriptLine("2025-01-05T10:00:00Z", "r1", "m1", 5, 2))

	codexRoot := t.TempDir()
	writeLog(t, codexRoot, "rollout.jsonl",
		`{"timestamp":"2025-01-05T09:00:00Z","type":"turn_context","payload":{"model":"gpt-5-codex"}}`+"\n"+
			`{"timestamp":"2025-01-05T09:01:00Z","type":"event_msg","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":10,"cached_input_tokens":0,"output_tokens":4,"reasoning_output_tokens":0,"total_tokens":14}}}}`+"\n")
	opts.Roots["codex"] = codexRoot

	report, err := s.ScanAll(context.Background(), []string{"claude", "codex"}, opts)
	require.NoError(t, err)

	assert.Equal(t, "all", report.Provider)
	require.Len(t, report.Entries, 1)
	entry := report.Entries[0]
	assert.Equal(t, int64(15), entry.InputTokens)
	assert.Equal(t, []string{"claude-sonnet-4-5", "gpt-5-codex"}, entry.ModelsUsed)
}

// bumpMtime pushes a file's mtime forward so a rewrite registers as changed
// even on filesystems with coarse timestamps.
func bumpMtime(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
}
