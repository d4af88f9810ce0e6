// Package scanner walks provider log roots, diffs file identity against the
// persisted cache, re-parses only what changed, and derives the public daily
// report from the cache's day index.
package scanner

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imdanielpiva/tokenstats/internal/cache"
	"github.com/imdanielpiva/tokenstats/internal/daterange"
	"github.com/imdanielpiva/tokenstats/internal/providers"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

// topBreakdowns caps the per-day model breakdown list in reports.
const topBreakdowns = 3

const maxParseWorkers = 10

type Scanner struct {
	registry *providers.Registry
	debug    bool
}

// Options control one scan invocation. Zero values mean: report up to today,
// windowed mode, default cache and log locations.
type Options struct {
	Since       string
	Until       string
	Now         time.Time
	AllTime     bool
	ForceRescan bool

	// CacheRoot overrides the user cache directory (tests, --cache-dir).
	CacheRoot string
	// Roots overrides provider log roots by provider name.
	Roots map[string]string
	// RefreshMinInterval skips rescanning when the cache was refreshed more
	// recently than this; the report is then served from the cache as-is.
	// ForceRescan wins over it.
	RefreshMinInterval time.Duration
}

func New(registry *providers.Registry) *Scanner {
	return &Scanner{registry: registry}
}

func (s *Scanner) SetDebug(debug bool) {
	s.debug = debug
}

// Scan runs the incremental scan state machine for one provider and returns
// its daily report. Per-file failures are absorbed (a bad file contributes
// nothing); only infrastructure failures like an unwritable cache propagate.
func (s *Scanner) Scan(ctx context.Context, provider string, opts Options) (*types.DailyReport, error) {
	parser, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	window := daterange.Resolve(opts.Since, opts.Until, now, opts.AllTime)

	// since > until is a valid empty range. It reads nothing and must not
	// touch the cache; pruning against inverted bounds would erase every
	// cached day while the file records still match on identity.
	if window.IsEmpty() {
		return &types.DailyReport{
			Provider: provider,
			Since:    window.SinceKey,
			Until:    window.UntilKey,
		}, nil
	}

	cacheRoot := opts.CacheRoot
	if cacheRoot == "" {
		cacheRoot, err = cache.DefaultRoot()
		if err != nil {
			return nil, fmt.Errorf("resolving cache directory: %w", err)
		}
	}
	cachePath := cache.Path(cacheRoot, provider, opts.AllTime)
	c := cache.Load(cachePath)

	if !opts.ForceRescan && opts.RefreshMinInterval > 0 {
		age := now.Sub(time.UnixMilli(c.LastScanUnixMs))
		if age < opts.RefreshMinInterval {
			return buildDailyReport(c.Days, provider, window.SinceKey, window.UntilKey), nil
		}
	}

	root := opts.Roots[provider]
	if root == "" {
		root, err = parser.DefaultRoot()
		if err != nil {
			return nil, fmt.Errorf("resolving %s log root: %w", provider, err)
		}
	}

	// A missing root is an unused provider, not an error.
	paths, err := parser.ListFiles(root)
	if err != nil {
		paths = nil
	}
	if s.debug {
		fmt.Fprintf(os.Stderr, "Debug: %s: %d log files under %s\n", provider, len(paths), root)
	}

	seen := make(map[string]bool, len(paths))
	var stale []string
	statByPath := make(map[string][2]int64, len(paths))

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		seen[path] = true
		mtime, size := info.ModTime().UnixMilli(), info.Size()
		statByPath[path] = [2]int64{mtime, size}

		// ForceRescan treats every file as if its identity never matched;
		// it is the same path through the machine, not a separate one.
		if !opts.ForceRescan && c.Files[path].Matches(mtime, size) {
			continue
		}
		stale = append(stale, path)
	}

	parsed := s.parseAll(ctx, parser, stale)

	// An interrupted scan must leave the cache exactly as loaded. Recording
	// files the pool never reached would mark them accounted at their current
	// identity while carrying zero usage, and later scans would skip them.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Cache mutation is single-writer: parses run in parallel above, the
	// apply/retract reduction happens sequentially here. Only files the pool
	// actually attempted are replaced; a failed parse is recorded as an empty
	// contribution, an unattempted file keeps its previous record.
	for _, path := range stale {
		days, ok := parsed[path]
		if !ok {
			continue
		}
		if old := c.Files[path]; old != nil {
			cache.Apply(c, old.Days, -1)
		}
		st := statByPath[path]
		rec := &types.FileUsageRecord{
			MtimeUnixMs: st[0],
			Size:        st[1],
			ParsedBytes: st[1],
			Days:        days,
		}
		cache.Apply(c, rec.Days, 1)
		c.Files[path] = rec
	}

	// Deleted or rotated files lose their contribution.
	for path, rec := range c.Files {
		if seen[path] {
			continue
		}
		cache.Apply(c, rec.Days, -1)
		delete(c.Files, path)
	}

	if !window.IsAllTime {
		cache.PruneDays(c, window.ScanSinceKey, window.ScanUntilKey)
	}

	if info, err := os.Stat(root); err == nil {
		if c.Roots == nil {
			c.Roots = make(map[string]int64)
		}
		c.Roots[root] = info.ModTime().UnixMilli()
	}

	c.LastScanUnixMs = now.UnixMilli()
	if err := cache.Save(cachePath, c); err != nil {
		return nil, err
	}

	return buildDailyReport(c.Days, provider, window.SinceKey, window.UntilKey), nil
}

// ScanAll fans one scan per provider onto independent goroutines. Providers
// share no state (separate caches, separate roots); a failing provider takes
// down only its own scan.
func (s *Scanner) ScanAll(ctx context.Context, providerNames []string, opts Options) (*types.DailyReport, error) {
	if len(providerNames) == 1 {
		return s.Scan(ctx, providerNames[0], opts)
	}

	reports := make([]*types.DailyReport, len(providerNames))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range providerNames {
		i, name := i, name
		g.Go(func() error {
			report, err := s.Scan(ctx, name, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return MergeDailyReports("all", reports), nil
}

// parseAll parses stale files on a bounded worker pool. Each parse is pure,
// so only the result collection needs a lock.
func (s *Scanner) parseAll(ctx context.Context, parser providers.Parser, paths []string) map[string]types.DayUsage {
	results := make(map[string]types.DayUsage, len(paths))
	if len(paths) == 0 {
		return results
	}

	workers := maxParseWorkers
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				days, err := parser.Parse(path)
				if err != nil {
					if s.debug {
						fmt.Fprintf(os.Stderr, "Debug: skipping %s: %v\n", path, err)
					}
					// The file was attempted and contributes zero usage.
					days = make(types.DayUsage)
				}
				mu.Lock()
				results[path] = days
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// buildDailyReport derives the public report from a day index: entries for
// every in-range day, ascending by day-key, each with sorted model lists and
// a top-3 cost breakdown.
func buildDailyReport(days types.DayUsage, provider, sinceKey, untilKey string) *types.DailyReport {
	report := &types.DailyReport{
		Provider: provider,
		Since:    sinceKey,
		Until:    untilKey,
	}

	keys := make([]string, 0, len(days))
	for day := range days {
		if daterange.InRange(day, sinceKey, untilKey) {
			keys = append(keys, day)
		}
	}
	sort.Strings(keys)

	for _, day := range keys {
		entry := types.DailyEntry{Date: day}
		models := days[day]

		names := make([]string, 0, len(models))
		for model := range models {
			names = append(names, model)
		}
		sort.Strings(names)

		var costNanos int64
		var breakdowns []types.ModelBreakdown
		for _, model := range names {
			u := models[model]
			entry.InputTokens += u.InputTokens
			entry.OutputTokens += u.OutputTokens
			entry.CacheCreationTokens += u.CacheCreationTokens
			entry.CacheReadTokens += u.CacheReadTokens
			costNanos += u.CostNanos
			breakdowns = append(breakdowns, types.ModelBreakdown{
				ModelName: model,
				CostUSD:   u.CostUSD(),
			})
		}
		entry.TotalTokens = entry.InputTokens + entry.OutputTokens +
			entry.CacheCreationTokens + entry.CacheReadTokens
		entry.ModelsUsed = names
		entry.ModelBreakdowns = topCostBreakdowns(breakdowns, topBreakdowns)
		if costNanos > 0 {
			cost := float64(costNanos) / types.NanosPerDollar
			entry.CostUSD = &cost
		}

		report.Entries = append(report.Entries, entry)
	}
	return report
}

// MergeDailyReports folds per-provider daily reports into one, summing
// matching days and re-ranking model breakdowns.
func MergeDailyReports(name string, reports []*types.DailyReport) *types.DailyReport {
	merged := &types.DailyReport{Provider: name}
	byDay := make(map[string]*types.DailyEntry)
	costByDayModel := make(map[string]map[string]float64)
	hasCost := make(map[string]bool)

	for _, report := range reports {
		if report == nil {
			continue
		}
		if merged.Since == "" || (report.Since != "" && report.Since < merged.Since) {
			merged.Since = report.Since
		}
		if report.Until > merged.Until {
			merged.Until = report.Until
		}
		for _, entry := range report.Entries {
			target, ok := byDay[entry.Date]
			if !ok {
				target = &types.DailyEntry{Date: entry.Date}
				byDay[entry.Date] = target
				costByDayModel[entry.Date] = make(map[string]float64)
			}
			target.InputTokens += entry.InputTokens
			target.OutputTokens += entry.OutputTokens
			target.CacheCreationTokens += entry.CacheCreationTokens
			target.CacheReadTokens += entry.CacheReadTokens
			target.TotalTokens += entry.TotalTokens
			target.ModelsUsed = unionSorted(target.ModelsUsed, entry.ModelsUsed)
			if entry.CostUSD != nil {
				hasCost[entry.Date] = true
			}
			for _, b := range entry.ModelBreakdowns {
				costByDayModel[entry.Date][b.ModelName] += b.CostUSD
			}
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		entry := byDay[day]
		if hasCost[day] {
			var total float64
			var breakdowns []types.ModelBreakdown
			modelNames := make([]string, 0, len(costByDayModel[day]))
			for model := range costByDayModel[day] {
				modelNames = append(modelNames, model)
			}
			sort.Strings(modelNames)
			for _, model := range modelNames {
				cost := costByDayModel[day][model]
				total += cost
				breakdowns = append(breakdowns, types.ModelBreakdown{ModelName: model, CostUSD: cost})
			}
			entry.CostUSD = &total
			entry.ModelBreakdowns = topCostBreakdowns(breakdowns, topBreakdowns)
		}
		merged.Entries = append(merged.Entries, *entry)
	}
	return merged
}

// topCostBreakdowns sorts by descending cost, stable over the incoming order
// so ties keep their (alphabetical) input position, and truncates to n.
func topCostBreakdowns(breakdowns []types.ModelBreakdown, n int) []types.ModelBreakdown {
	sort.SliceStable(breakdowns, func(i, j int) bool {
		return breakdowns[i].CostUSD > breakdowns[j].CostUSD
	})
	if len(breakdowns) > n {
		breakdowns = breakdowns[:n]
	}
	return breakdowns
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
