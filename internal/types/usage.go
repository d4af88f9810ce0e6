package types

import (
	"encoding/json"
	"fmt"
)

// NanosPerDollar converts between USD and the integer nanodollar amounts
// stored in caches. Costs are kept as int64 nanodollars so that repeated
// apply/retract cycles never accumulate floating-point drift.
const NanosPerDollar = 1_000_000_000

// PackedUsage is one (day, model) accumulation cell. On disk it is a fixed
// 5-integer array in the order input, cacheRead, cacheCreation, output,
// costNanos; changing the order is a cache version bump.
type PackedUsage struct {
	InputTokens         int64
	CacheReadTokens     int64
	CacheCreationTokens int64
	OutputTokens        int64
	CostNanos           int64
}

func (u PackedUsage) MarshalJSON() ([]byte, error) {
	return json.Marshal([5]int64{
		u.InputTokens,
		u.CacheReadTokens,
		u.CacheCreationTokens,
		u.OutputTokens,
		u.CostNanos,
	})
}

func (u *PackedUsage) UnmarshalJSON(data []byte) error {
	var fields []int64
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 5 {
		return fmt.Errorf("packed usage needs 5 fields, got %d", len(fields))
	}
	u.InputTokens = fields[0]
	u.CacheReadTokens = fields[1]
	u.CacheCreationTokens = fields[2]
	u.OutputTokens = fields[3]
	u.CostNanos = fields[4]
	return nil
}

// Add accumulates sign*other into u, clamping every field at zero. Sign -1
// retracts a contribution that was previously applied with sign +1; the clamp
// keeps a double-retraction from driving totals negative.
func (u *PackedUsage) Add(other PackedUsage, sign int64) {
	u.InputTokens = clampNonNegative(u.InputTokens + sign*other.InputTokens)
	u.CacheReadTokens = clampNonNegative(u.CacheReadTokens + sign*other.CacheReadTokens)
	u.CacheCreationTokens = clampNonNegative(u.CacheCreationTokens + sign*other.CacheCreationTokens)
	u.OutputTokens = clampNonNegative(u.OutputTokens + sign*other.OutputTokens)
	u.CostNanos = clampNonNegative(u.CostNanos + sign*other.CostNanos)
}

func (u PackedUsage) TotalTokens() int64 {
	return u.InputTokens + u.CacheReadTokens + u.CacheCreationTokens + u.OutputTokens
}

func (u PackedUsage) CostUSD() float64 {
	return float64(u.CostNanos) / NanosPerDollar
}

func (u PackedUsage) IsZero() bool {
	return u.InputTokens == 0 && u.CacheReadTokens == 0 &&
		u.CacheCreationTokens == 0 && u.OutputTokens == 0 && u.CostNanos == 0
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// DayUsage maps day-key -> model -> packed usage. Day-keys are YYYY-MM-DD
// strings in the user's timezone and compare lexicographically in
// chronological order.
type DayUsage map[string]map[string]PackedUsage

// AddUsage accumulates usage into a (day, model) cell, creating maps as needed.
func (d DayUsage) AddUsage(day, model string, usage PackedUsage) {
	models, ok := d[day]
	if !ok {
		models = make(map[string]PackedUsage)
		d[day] = models
	}
	cell := models[model]
	cell.Add(usage, 1)
	models[model] = cell
}
