package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/imdanielpiva/tokenstats/internal/types"
)

// Formatter dispatches reports to table, JSON, or CSV rendering.
type Formatter struct {
	options FormatterOptions
}

type FormatterOptions struct {
	Format  string // "table", "json", "csv"
	NoColor bool
}

func NewFormatter(opts FormatterOptions) *Formatter {
	return &Formatter{options: opts}
}

func (f *Formatter) FormatDailyReport(report *types.DailyReport) (string, error) {
	switch f.options.Format {
	case "json":
		return f.formatJSON(report)
	case "csv":
		return f.formatDailyCSV(report.Entries)
	default:
		return NewTableWriterFormatter(f.options.NoColor).FormatDailyReport(report), nil
	}
}

func (f *Formatter) FormatAggregatedReport(report *types.AggregatedReport) (string, error) {
	switch f.options.Format {
	case "json":
		return f.formatJSON(report)
	case "csv":
		return f.formatAggregatedCSV(report.Entries)
	default:
		return NewTableWriterFormatter(f.options.NoColor).FormatAggregatedReport(report), nil
	}
}

func (f *Formatter) FormatStreaks(streaks []types.ModelStreak) (string, error) {
	switch f.options.Format {
	case "json":
		return f.formatJSON(streaks)
	case "csv":
		rows := [][]string{{"model", "current_streak", "longest_streak", "last_active"}}
		for _, s := range streaks {
			rows = append(rows, []string{
				s.ModelName,
				strconv.Itoa(s.CurrentStreak),
				strconv.Itoa(s.LongestStreak),
				s.LastActiveDate,
			})
		}
		return f.formatCSV(rows)
	default:
		return NewTableWriterFormatter(f.options.NoColor).FormatStreaks(streaks), nil
	}
}

func (f *Formatter) FormatModels(models []string) (string, error) {
	switch f.options.Format {
	case "json":
		return f.formatJSON(models)
	default:
		return strings.Join(models, "\n") + "\n", nil
	}
}

func (f *Formatter) formatJSON(data interface{}) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (f *Formatter) formatDailyCSV(entries []types.DailyEntry) (string, error) {
	rows := [][]string{{
		"date", "models", "input_tokens", "output_tokens",
		"cache_creation_tokens", "cache_read_tokens", "total_tokens", "cost_usd",
	}}
	for _, e := range entries {
		rows = append(rows, []string{
			e.Date,
			strings.Join(e.ModelsUsed, ";"),
			strconv.FormatInt(e.InputTokens, 10),
			strconv.FormatInt(e.OutputTokens, 10),
			strconv.FormatInt(e.CacheCreationTokens, 10),
			strconv.FormatInt(e.CacheReadTokens, 10),
			strconv.FormatInt(e.TotalTokens, 10),
			costField(e.CostUSD),
		})
	}
	return f.formatCSV(rows)
}

func (f *Formatter) formatAggregatedCSV(entries []types.AggregatedEntry) (string, error) {
	rows := [][]string{{
		"id", "period_start", "period_end", "models",
		"input_tokens", "output_tokens", "total_tokens", "cost_usd",
	}}
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.PeriodStart,
			e.PeriodEnd,
			strings.Join(e.ModelsUsed, ";"),
			strconv.FormatInt(e.InputTokens, 10),
			strconv.FormatInt(e.OutputTokens, 10),
			strconv.FormatInt(e.TotalTokens, 10),
			costField(e.CostUSD),
		})
	}
	return f.formatCSV(rows)
}

func (f *Formatter) formatCSV(rows [][]string) (string, error) {
	var output strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				output.WriteString(",")
			}
			if strings.ContainsAny(cell, "\",\n") {
				output.WriteString("\"")
				output.WriteString(strings.ReplaceAll(cell, "\"", "\"\""))
				output.WriteString("\"")
			} else {
				output.WriteString(cell)
			}
		}
		output.WriteString("\n")
	}
	return output.String(), nil
}

func costField(cost *float64) string {
	if cost == nil {
		return ""
	}
	return fmt.Sprintf("%.4f", *cost)
}
