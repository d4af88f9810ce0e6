package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imdanielpiva/tokenstats/internal/aggregator"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

func NewWeeklyCommand() *cobra.Command {
	return newPeriodCommand("weekly", "Generate weekly usage report", types.PeriodWeek)
}

func NewMonthlyCommand() *cobra.Command {
	return newPeriodCommand("monthly", "Generate monthly usage report", types.PeriodMonth)
}

func NewHalfYearlyCommand() *cobra.Command {
	return newPeriodCommand("halfyearly", "Generate half-yearly usage report", types.PeriodHalfYear)
}

func NewYearlyCommand() *cobra.Command {
	return newPeriodCommand("yearly", "Generate yearly usage report", types.PeriodYear)
}

func newPeriodCommand(use, short string, period types.Period) *cobra.Command {
	var flags commonFlags
	var models []string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  short + ` aggregated from per-day usage across providers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(flags)
			if err != nil {
				return err
			}

			daily, err := sess.scanner.ScanAll(cmd.Context(), sess.providers, sess.scanOpts)
			if err != nil {
				return fmt.Errorf("failed to scan usage data: %w", err)
			}

			if len(models) > 0 {
				daily.Entries = aggregator.FilterByModels(daily.Entries, models)
			}

			report, err := aggregator.Aggregate(daily, period)
			if err != nil {
				return err
			}

			out, err := sess.formatter.FormatAggregatedReport(report)
			if err != nil {
				return fmt.Errorf("failed to format report: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}

	addCommonFlags(cmd, &flags)
	cmd.Flags().StringSliceVarP(&models, "model", "m", nil, "Restrict to specific models (repeatable)")
	return cmd
}
