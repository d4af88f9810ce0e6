package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceForExactAndPrefix(t *testing.T) {
	svc := NewService()

	p, ok := svc.PriceFor("claude-sonnet-4-5")
	require.True(t, ok)
	assert.Equal(t, 3.0, p.InputPerMTok)

	// Unknown variants fall back to the longest matching prefix.
	p, ok = svc.PriceFor("gemini-2.5-pro-exp")
	require.True(t, ok)
	assert.Equal(t, 1.25, p.InputPerMTok)

	_, ok = svc.PriceFor("totally-unknown-model")
	assert.False(t, ok)
}

func TestCostNanos(t *testing.T) {
	p := ModelPricing{InputPerMTok: 3.0, OutputPerMTok: 15.0, CacheReadPerMTok: 0.3, CacheWritePerMTok: 3.75}

	// 1M of everything: 3 + 0.3 + 3.75 + 15 dollars.
	got := CostNanos(p, 1_000_000, 1_000_000, 1_000_000, 1_000_000)
	assert.Equal(t, int64(22_050_000_000), got)

	assert.Equal(t, int64(0), CostNanos(p, 0, 0, 0, 0))

	// A single input token is 3000 nanodollars, not rounded away.
	assert.Equal(t, int64(3000), CostNanos(p, 1, 0, 0, 0))
}
