// Package monitor is a terminal refresh loop over the incremental scanner:
// the same scan the report commands run, re-invoked on a tick, so each
// refresh only re-parses files that changed since the last one.
package monitor

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/imdanielpiva/tokenstats/internal/scanner"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

type Monitor struct {
	options Options
}

type Options struct {
	Scanner     *scanner.Scanner
	Providers   []string
	ScanOptions scanner.Options
	Interval    time.Duration
	NoColor     bool
	Continuous  bool
}

type model struct {
	// ctx is the program context; refreshes derive from it so a quit or an
	// outer cancellation stops in-flight scans instead of detaching them.
	ctx        context.Context
	options    Options
	lastUpdate time.Time
	report     *types.DailyReport
	err        error
}

type tickMsg time.Time

type reportMsg struct {
	report *types.DailyReport
	err    error
}

func New(opts Options) *Monitor {
	if opts.Interval == 0 {
		opts.Interval = 5 * time.Second
	}
	// Refreshing faster than the rate-limit hint just serves the cache, so
	// align the two unless the caller set their own.
	if opts.ScanOptions.RefreshMinInterval == 0 {
		opts.ScanOptions.RefreshMinInterval = opts.Interval / 2
	}
	return &Monitor{options: opts}
}

func (m *Monitor) Start(ctx context.Context) error {
	if m.options.Continuous && isatty.IsTerminal(os.Stdout.Fd()) {
		return m.startTUI(ctx)
	}
	return m.runOnce(ctx)
}

func (m *Monitor) startTUI(ctx context.Context) error {
	p := tea.NewProgram(
		initialModel(ctx, m.options),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

func (m *Monitor) runOnce(ctx context.Context) error {
	report, err := m.options.Scanner.ScanAll(ctx, m.options.Providers, m.options.ScanOptions)
	if err != nil {
		return fmt.Errorf("failed to scan usage data: %w", err)
	}

	totalTokens, totalCost, hasCost := totals(report)
	fmt.Printf("Days With Usage: %d\n", len(report.Entries))
	fmt.Printf("Total Tokens: %d\n", totalTokens)
	if hasCost {
		fmt.Printf("Total Cost: $%.4f\n", totalCost)
	}
	return nil
}

func initialModel(ctx context.Context, opts Options) model {
	return model{
		ctx:        ctx,
		options:    opts,
		lastUpdate: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.options.Interval),
		m.refresh(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}

	case tickMsg:
		m.lastUpdate = time.Time(msg)
		return m, tea.Batch(
			tickCmd(m.options.Interval),
			m.refresh(),
		)

	case reportMsg:
		m.report = msg.report
		m.err = msg.err
	}

	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit, 'r' to retry", m.err)
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)
	summaryStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(1).
		MarginBottom(1)
	if m.options.NoColor {
		headerStyle = lipgloss.NewStyle()
		summaryStyle = lipgloss.NewStyle()
	}

	content := headerStyle.Render("Token Usage Monitor")
	content += "\n\n"

	if m.report != nil {
		totalTokens, totalCost, hasCost := totals(m.report)
		summary := fmt.Sprintf("Providers: %s\nDays With Usage: %d\nTotal Tokens: %d",
			m.report.Provider, len(m.report.Entries), totalTokens)
		if hasCost {
			summary += fmt.Sprintf("\nTotal Cost: $%.4f", totalCost)
		}
		summary += fmt.Sprintf("\nLast Update: %s", m.lastUpdate.Format("15:04:05"))
		content += summaryStyle.Render(summary)
		content += "\n\n"

		if len(m.report.Entries) > 0 {
			content += "Recent Days:\n"
			entries := m.report.Entries
			if len(entries) > 5 {
				entries = entries[len(entries)-5:]
			}
			for i := len(entries) - 1; i >= 0; i-- {
				entry := entries[i]
				line := fmt.Sprintf("%s - %d tokens", entry.Date, entry.TotalTokens)
				if entry.CostUSD != nil {
					line += fmt.Sprintf(" - $%.2f", *entry.CostUSD)
				}
				content += line + "\n"
			}
		}
	}

	content += "\nPress 'q' to quit, 'r' to refresh"
	return content
}

func (m model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
		defer cancel()

		report, err := m.options.Scanner.ScanAll(ctx, m.options.Providers, m.options.ScanOptions)
		return reportMsg{report: report, err: err}
	}
}

func totals(report *types.DailyReport) (int64, float64, bool) {
	var tokens int64
	var cost float64
	var hasCost bool
	for _, entry := range report.Entries {
		tokens += entry.TotalTokens
		if entry.CostUSD != nil {
			hasCost = true
			cost += *entry.CostUSD
		}
	}
	return tokens, cost, hasCost
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
