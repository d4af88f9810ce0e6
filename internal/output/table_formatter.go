package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/imdanielpiva/tokenstats/internal/types"
)

// TableWriterFormatter renders reports with tablewriter.
type TableWriterFormatter struct {
	noColor bool
}

func NewTableWriterFormatter(noColor bool) *TableWriterFormatter {
	return &TableWriterFormatter{noColor: noColor}
}

func (f *TableWriterFormatter) FormatDailyReport(report *types.DailyReport) string {
	if len(report.Entries) == 0 {
		return f.formatEmptyReport()
	}

	var output strings.Builder
	output.WriteString(f.title(fmt.Sprintf("Token Usage Report - Daily (%s)", report.Provider)))

	var buf bytes.Buffer
	table := f.newTable(&buf)
	table.Header([]string{
		"Date\n",
		"Models\n",
		"Input\n",
		"Output\n",
		"Cache\nCreate",
		"Cache\nRead",
		"Total\nTokens",
		"Cost\n(USD)",
	})

	maxCost := maxDailyCost(report.Entries)

	var totalInput, totalOutput, totalCache, totalCacheRead, totalTokens int64
	var totalCost float64
	var anyCost bool

	for _, entry := range report.Entries {
		totalInput += entry.InputTokens
		totalOutput += entry.OutputTokens
		totalCache += entry.CacheCreationTokens
		totalCacheRead += entry.CacheReadTokens
		totalTokens += entry.TotalTokens

		cost := "-"
		if entry.CostUSD != nil {
			anyCost = true
			totalCost += *entry.CostUSD
			cost = f.heatCost(*entry.CostUSD, maxCost)
		}

		table.Append([]string{
			splitDate(entry.Date),
			bulletList(shortenAll(entry.ModelsUsed)),
			f.formatLargeNumber(entry.InputTokens),
			f.formatLargeNumber(entry.OutputTokens),
			f.formatLargeNumber(entry.CacheCreationTokens),
			f.formatLargeNumber(entry.CacheReadTokens),
			f.formatLargeNumber(entry.TotalTokens),
			cost,
		})
	}

	table.Footer([]string{
		"Total",
		"",
		f.formatLargeNumber(totalInput),
		f.formatLargeNumber(totalOutput),
		f.formatLargeNumber(totalCache),
		f.formatLargeNumber(totalCacheRead),
		f.formatLargeNumber(totalTokens),
		costCell(totalCost, anyCost),
	})

	table.Render()
	output.WriteString(buf.String())
	return output.String()
}

func (f *TableWriterFormatter) FormatAggregatedReport(report *types.AggregatedReport) string {
	if len(report.Entries) == 0 {
		return f.formatEmptyReport()
	}

	var output strings.Builder
	output.WriteString(f.title(fmt.Sprintf("Token Usage Report - %s (%s)",
		titleCase(string(report.Period)), report.Provider)))

	var buf bytes.Buffer
	table := f.newTable(&buf)
	table.Header([]string{
		"Period\n",
		"Starts\n",
		"Models\n",
		"Input\n",
		"Output\n",
		"Total\nTokens",
		"Cost\n(USD)",
	})

	var totalInput, totalOutput, totalTokens int64
	var totalCost float64
	var anyCost bool

	for _, entry := range report.Entries {
		totalInput += entry.InputTokens
		totalOutput += entry.OutputTokens
		totalTokens += entry.TotalTokens

		cost := "-"
		if entry.CostUSD != nil {
			anyCost = true
			totalCost += *entry.CostUSD
			cost = fmt.Sprintf("$%.2f", *entry.CostUSD)
		}

		table.Append([]string{
			entry.ID,
			entry.PeriodStart,
			bulletList(shortenAll(entry.ModelsUsed)),
			f.formatLargeNumber(entry.InputTokens),
			f.formatLargeNumber(entry.OutputTokens),
			f.formatLargeNumber(entry.TotalTokens),
			cost,
		})
	}

	table.Footer([]string{
		"Total",
		"",
		"",
		f.formatLargeNumber(totalInput),
		f.formatLargeNumber(totalOutput),
		f.formatLargeNumber(totalTokens),
		costCell(totalCost, anyCost),
	})

	table.Render()
	output.WriteString(buf.String())
	return output.String()
}

func (f *TableWriterFormatter) FormatStreaks(streaks []types.ModelStreak) string {
	if len(streaks) == 0 {
		return f.formatEmptyReport()
	}

	var output strings.Builder
	output.WriteString(f.title("Model Usage Streaks"))

	var buf bytes.Buffer
	table := f.newTable(&buf)
	table.Header([]string{"Model", "Current\nStreak", "Longest\nStreak", "Last\nActive"})

	for _, streak := range streaks {
		table.Append([]string{
			ShortenModelName(streak.ModelName),
			strconv.Itoa(streak.CurrentStreak),
			strconv.Itoa(streak.LongestStreak),
			streak.LastActiveDate,
		})
	}

	table.Render()
	output.WriteString(buf.String())
	return output.String()
}

func (f *TableWriterFormatter) newTable(buf *bytes.Buffer) *tablewriter.Table {
	return tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignRight},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
}

func (f *TableWriterFormatter) title(text string) string {
	style := lipgloss.NewStyle().
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2)
	if f.noColor {
		style = style.Bold(false)
	} else {
		style = style.BorderForeground(lipgloss.Color("240"))
	}
	return "\n" + style.Render(text) + "\n\n"
}

func (f *TableWriterFormatter) formatEmptyReport() string {
	return "\nNo usage data found for the requested range.\n"
}

// heatCost colors a cost cell on a green-to-red ramp relative to the most
// expensive day in the report.
func (f *TableWriterFormatter) heatCost(cost, maxCost float64) string {
	text := fmt.Sprintf("$%.2f", cost)
	if f.noColor || maxCost <= 0 {
		return text
	}
	t := cost / maxCost
	if t > 1 {
		t = 1
	}
	hue := 120 * (1 - t) // 120 = green, 0 = red
	c := colorful.Hsv(hue, 0.65, 0.95)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(text)
}

func (f *TableWriterFormatter) formatLargeNumber(n int64) string {
	if n == 0 {
		return "-"
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, s[i])
	}
	return string(result)
}

func maxDailyCost(entries []types.DailyEntry) float64 {
	var max float64
	for _, entry := range entries {
		if entry.CostUSD != nil && *entry.CostUSD > max {
			max = *entry.CostUSD
		}
	}
	return max
}

func costCell(total float64, any bool) string {
	if !any {
		return "-"
	}
	return fmt.Sprintf("$%.2f", total)
}

func shortenAll(models []string) []string {
	out := make([]string, len(models))
	for i, model := range models {
		out[i] = ShortenModelName(model)
	}
	return out
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

// splitDate renders YYYY-MM-DD as two lines to keep the date column narrow.
func splitDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return fmt.Sprintf("%s\n%s-%s", parts[0], parts[1], parts[2])
}
