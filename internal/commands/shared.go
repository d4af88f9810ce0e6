package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/imdanielpiva/tokenstats/internal/config"
	"github.com/imdanielpiva/tokenstats/internal/output"
	"github.com/imdanielpiva/tokenstats/internal/pricing"
	"github.com/imdanielpiva/tokenstats/internal/providers"
	"github.com/imdanielpiva/tokenstats/internal/scanner"
)

type commonFlags struct {
	provider    string
	format      string
	noColor     bool
	debug       bool
	timezone    string
	since       string
	until       string
	allTime     bool
	forceRescan bool
	cacheDir    string
}

func addCommonFlags(cmd *cobra.Command, flags *commonFlags) {
	cmd.Flags().StringVarP(&flags.provider, "provider", "p", "", "Provider to scan (claude, codex, amp, gemini, or all)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format (table, json, csv)")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Show debug information")
	cmd.Flags().StringVarP(&flags.timezone, "timezone", "z", "", "Timezone for day attribution (e.g., UTC, Asia/Tokyo). Default: system timezone")
	cmd.Flags().StringVarP(&flags.since, "since", "s", "", "Filter from date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flags.until, "until", "u", "", "Filter until date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&flags.allTime, "all-time", false, "Keep full history (never prune the cache window)")
	cmd.Flags().BoolVar(&flags.forceRescan, "force-rescan", false, "Re-parse every log file, ignoring the cache")
	cmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "", "Cache directory override")
}

type session struct {
	scanner   *scanner.Scanner
	providers []string
	scanOpts  scanner.Options
	formatter *output.Formatter
	timezone  *time.Location
}

// newSession resolves config, timezone, and provider set, and wires the
// registry and scanner. Flags beat config values.
func newSession(flags commonFlags) (*session, error) {
	cfgPath, err := config.DefaultPath()
	var cfg config.Config
	if err == nil {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
	}

	tzName := flags.timezone
	if tzName == "" {
		tzName = cfg.Timezone
	}
	loc := time.Local
	if tzName != "" {
		loc, err = time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", tzName, err)
		}
	}

	registry := providers.NewRegistry(loc, pricing.NewService())
	scan := scanner.New(registry)
	scan.SetDebug(flags.debug)

	var names []string
	switch {
	case flags.provider != "" && flags.provider != "all":
		names = []string{flags.provider}
	case flags.provider == "" && len(cfg.Providers) > 0:
		names = cfg.Providers
	default:
		names = registry.Names()
	}

	cacheDir := flags.cacheDir
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}

	opts := scanner.Options{
		Since:       normalizeDayFlag(flags.since),
		Until:       normalizeDayFlag(flags.until),
		AllTime:     flags.allTime,
		ForceRescan: flags.forceRescan,
		CacheRoot:   cacheDir,
		Roots:       cfg.Roots,
	}
	if cfg.RefreshMinIntervalSeconds > 0 {
		opts.RefreshMinInterval = time.Duration(cfg.RefreshMinIntervalSeconds) * time.Second
	}

	return &session{
		scanner:   scan,
		providers: names,
		scanOpts:  opts,
		formatter: output.NewFormatter(output.FormatterOptions{
			Format:  flags.format,
			NoColor: flags.noColor,
		}),
		timezone: loc,
	}, nil
}

// normalizeDayFlag accepts YYYY-MM-DD or the compact YYYYMMDD form.
func normalizeDayFlag(value string) string {
	if len(value) == 8 {
		return fmt.Sprintf("%s-%s-%s", value[:4], value[4:6], value[6:8])
	}
	return value
}
