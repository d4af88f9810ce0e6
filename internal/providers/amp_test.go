package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ampThread = `{
  "id": "T-abc123",
  "created": 1736035200000,
  "messages": [
    {"role": "user", "content": "hello"},
    {"role": "assistant", "model": "claude-sonnet-4-5-20250929",
     "meta": {"sentAt": 1736040000000},
     "usage": {"inputTokens": 100, "outputTokens": 40, "cacheReadTokens": 10, "cacheCreationTokens": 5, "costCents": 12}},
    {"role": "assistant", "model": "claude-sonnet-4-5-20250929",
     "usage": {"inputTokens": 50, "outputTokens": 25, "costCents": 4}},
    {"role": "assistant", "model": "claude-opus-4-20250514",
     "meta": {"sentAt": 1736121600000},
     "usage": {"inputTokens": 9, "outputTokens": 3, "costCents": 2}}
  ]
}`

func TestAmpParse(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "T-abc123.json", ampThread)

	parser := newAmpParser(time.UTC)
	days, err := parser.Parse(path)
	require.NoError(t, err)

	// created = 2025-01-05T00:00Z, first sentAt = same day, second message
	// has no sentAt and falls back to the thread created day, third sentAt
	// = 2025-01-06T00:00Z.
	sonnet := days["2025-01-05"]["claude-sonnet-4-5"]
	assert.Equal(t, int64(150), sonnet.InputTokens)
	assert.Equal(t, int64(65), sonnet.OutputTokens)
	assert.Equal(t, int64(10), sonnet.CacheReadTokens)
	assert.Equal(t, int64(5), sonnet.CacheCreationTokens)
	// 16 cents in nanodollars.
	assert.Equal(t, int64(160_000_000), sonnet.CostNanos)

	opus := days["2025-01-06"]["claude-opus-4"]
	assert.Equal(t, int64(9), opus.InputTokens)
	assert.Equal(t, int64(20_000_000), opus.CostNanos)
}

func TestAmpParseCorruptFileContributesNothing(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "T-bad.json", "{not json")

	parser := newAmpParser(time.UTC)
	days, err := parser.Parse(path)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestAmpListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "T-one.json", "{}")
	writeFixture(t, dir, "T-two.json", "{}")
	writeFixture(t, dir, "notes.txt", "")

	parser := newAmpParser(time.UTC)
	files, err := parser.ListFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
