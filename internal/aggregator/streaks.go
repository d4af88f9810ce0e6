package aggregator

import (
	"sort"

	"github.com/imdanielpiva/tokenstats/internal/daterange"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

// CalculateStreaks finds, per model, the longest run of calendar-consecutive
// active days and the current streak. A run still counts as current when it
// ends today or yesterday; a gap of two or more days resets the current
// streak to zero without touching the longest.
func CalculateStreaks(entries []types.DailyEntry, today string) []types.ModelStreak {
	daysByModel := make(map[string][]string)
	for _, entry := range entries {
		for _, model := range entry.ModelsUsed {
			daysByModel[model] = append(daysByModel[model], entry.Date)
		}
	}

	models := make([]string, 0, len(daysByModel))
	for model := range daysByModel {
		models = append(models, model)
	}
	sort.Strings(models)

	streaks := make([]types.ModelStreak, 0, len(models))
	for _, model := range models {
		days := dedupeSorted(daysByModel[model])
		if len(days) == 0 {
			continue
		}

		longest, run := 1, 1
		for i := 1; i < len(days); i++ {
			if daterange.ShiftDay(days[i-1], 1) == days[i] {
				run++
			} else {
				run = 1
			}
			if run > longest {
				longest = run
			}
		}

		last := days[len(days)-1]
		current := 0
		if last == today || daterange.ShiftDay(last, 1) == today {
			current = run
		}

		streaks = append(streaks, types.ModelStreak{
			ModelName:      model,
			CurrentStreak:  current,
			LongestStreak:  longest,
			LastActiveDate: last,
		})
	}
	return streaks
}

func dedupeSorted(days []string) []string {
	sort.Strings(days)
	out := days[:0]
	var prev string
	for _, day := range days {
		if day != prev {
			out = append(out, day)
			prev = day
		}
	}
	return out
}
