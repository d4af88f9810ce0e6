// Package aggregator folds daily reports into calendar-period buckets and
// derives model-level analytics. Everything here is pure: buckets are built
// in a map and emitted in sorted-key order, so map iteration order never
// reaches the output.
package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/imdanielpiva/tokenstats/internal/daterange"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

const labelLayout = "Jan 2, 2006"

type bucketBounds struct {
	id    string
	start time.Time
	end   time.Time
}

// Aggregate groups daily entries into day/week/month/half-year/year buckets.
// Buckets exist only for periods with at least one entry; labels come from
// the bucket's start date; cost is nil iff no contributing entry had cost.
func Aggregate(daily *types.DailyReport, period types.Period) (*types.AggregatedReport, error) {
	report := &types.AggregatedReport{
		Provider: daily.Provider,
		Period:   period,
	}

	buckets := make(map[string]*types.AggregatedEntry)
	costByModel := make(map[string]map[string]float64)
	hasCost := make(map[string]bool)

	for _, entry := range daily.Entries {
		day, err := daterange.ParseDayKey(entry.Date)
		if err != nil {
			continue
		}
		bounds, err := boundsFor(day, period)
		if err != nil {
			return nil, err
		}

		bucket, ok := buckets[bounds.id]
		if !ok {
			bucket = &types.AggregatedEntry{
				ID:          bounds.id,
				PeriodLabel: bounds.start.Format(labelLayout),
				PeriodStart: daterange.DayKey(bounds.start),
				PeriodEnd:   daterange.DayKey(bounds.end),
			}
			buckets[bounds.id] = bucket
			costByModel[bounds.id] = make(map[string]float64)
		}

		bucket.InputTokens += entry.InputTokens
		bucket.OutputTokens += entry.OutputTokens
		bucket.CacheCreationTokens += entry.CacheCreationTokens
		bucket.CacheReadTokens += entry.CacheReadTokens
		bucket.TotalTokens += entry.TotalTokens
		bucket.ModelsUsed = unionSorted(bucket.ModelsUsed, entry.ModelsUsed)
		if entry.CostUSD != nil {
			hasCost[bounds.id] = true
		}
		for _, b := range entry.ModelBreakdowns {
			costByModel[bounds.id][b.ModelName] += b.CostUSD
		}
	}

	ids := make([]string, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return buckets[ids[i]].PeriodStart < buckets[ids[j]].PeriodStart
	})

	for _, id := range ids {
		bucket := buckets[id]
		if hasCost[id] {
			var total float64
			models := make([]string, 0, len(costByModel[id]))
			for model := range costByModel[id] {
				models = append(models, model)
			}
			sort.Strings(models)
			breakdowns := make([]types.ModelBreakdown, 0, len(models))
			for _, model := range models {
				cost := costByModel[id][model]
				total += cost
				breakdowns = append(breakdowns, types.ModelBreakdown{ModelName: model, CostUSD: cost})
			}
			sort.SliceStable(breakdowns, func(i, j int) bool {
				return breakdowns[i].CostUSD > breakdowns[j].CostUSD
			})
			bucket.CostUSD = &total
			bucket.ModelBreakdowns = breakdowns
		}
		report.Entries = append(report.Entries, *bucket)
	}
	return report, nil
}

func boundsFor(day time.Time, period types.Period) (bucketBounds, error) {
	switch period {
	case types.PeriodDay:
		return bucketBounds{
			id:    day.Format("2006-01-02"),
			start: day,
			end:   day,
		}, nil

	case types.PeriodWeek:
		year, week := day.ISOWeek()
		// ISO weeks start on Monday; Sunday counts as day 7 of the
		// preceding week.
		offset := int(day.Weekday())
		if offset == 0 {
			offset = 7
		}
		start := day.AddDate(0, 0, 1-offset)
		return bucketBounds{
			id:    fmt.Sprintf("%d-W%02d", year, week),
			start: start,
			end:   start.AddDate(0, 0, 6),
		}, nil

	case types.PeriodMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return bucketBounds{
			id:    day.Format("2006-01"),
			start: start,
			end:   start.AddDate(0, 1, -1),
		}, nil

	case types.PeriodHalfYear:
		half := 1
		startMonth := time.January
		if day.Month() > time.June {
			half = 2
			startMonth = time.July
		}
		start := time.Date(day.Year(), startMonth, 1, 0, 0, 0, 0, day.Location())
		return bucketBounds{
			id:    fmt.Sprintf("%d-H%d", day.Year(), half),
			start: start,
			end:   start.AddDate(0, 6, -1),
		}, nil

	case types.PeriodYear:
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		return bucketBounds{
			id:    day.Format("2006"),
			start: start,
			end:   start.AddDate(1, 0, -1),
		}, nil
	}
	return bucketBounds{}, fmt.Errorf("%w: %s", types.ErrInvalidPeriod, period)
}

// FilterByModels restricts entries to the given model set. Entries with no
// overlap are dropped. Entries fully covered by the set pass through
// unchanged. Partially-overlapping entries get cost and model set restricted
// to the overlap when breakdowns are present; without breakdowns there is
// nothing to recompute from, so the entry is excluded rather than passed
// through inflated.
func FilterByModels(entries []types.DailyEntry, models []string) []types.DailyEntry {
	if len(models) == 0 {
		return nil
	}
	want := make(map[string]bool, len(models))
	for _, m := range models {
		want[m] = true
	}

	var out []types.DailyEntry
	for _, entry := range entries {
		var kept []string
		for _, m := range entry.ModelsUsed {
			if want[m] {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			continue
		}
		if len(kept) == len(entry.ModelsUsed) {
			out = append(out, entry)
			continue
		}
		if len(entry.ModelBreakdowns) == 0 {
			continue
		}

		filtered := entry
		filtered.ModelsUsed = kept
		var cost float64
		var breakdowns []types.ModelBreakdown
		for _, b := range entry.ModelBreakdowns {
			if want[b.ModelName] {
				cost += b.CostUSD
				breakdowns = append(breakdowns, b)
			}
		}
		filtered.ModelBreakdowns = breakdowns
		if entry.CostUSD != nil {
			filtered.CostUSD = &cost
		}
		out = append(out, filtered)
	}
	return out
}

// ExtractAllModels returns the sorted union of every model mentioned.
func ExtractAllModels(entries []types.DailyEntry) []string {
	var all []string
	for _, entry := range entries {
		all = unionSorted(all, entry.ModelsUsed)
	}
	return all
}

func unionSorted(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
