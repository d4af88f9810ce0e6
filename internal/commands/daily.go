package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imdanielpiva/tokenstats/internal/aggregator"
)

func NewDailyCommand() *cobra.Command {
	var flags commonFlags
	var models []string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Generate daily usage report",
		Long:  `Generate a per-day token usage and cost report across providers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(flags)
			if err != nil {
				return err
			}

			report, err := sess.scanner.ScanAll(cmd.Context(), sess.providers, sess.scanOpts)
			if err != nil {
				return fmt.Errorf("failed to scan usage data: %w", err)
			}

			if len(models) > 0 {
				report.Entries = aggregator.FilterByModels(report.Entries, models)
			}

			out, err := sess.formatter.FormatDailyReport(report)
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
