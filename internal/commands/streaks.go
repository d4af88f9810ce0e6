package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/imdanielpiva/tokenstats/internal/aggregator"
	"github.com/imdanielpiva/tokenstats/internal/daterange"
)

func NewStreaksCommand() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "streaks",
		Short: "Show consecutive-day usage streaks per model",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(flags)
			if err != nil {
				return err
			}

			report, err := sess.scanner.ScanAll(cmd.Context(), sess.providers, sess.scanOpts)
			if err != nil {
				return fmt.Errorf("failed to scan usage data: %w", err)
			}

			today := daterange.DayKey(time.Now().In(sess.timezone))
			streaks := aggregator.CalculateStreaks(report.Entries, today)

			out, err := sess.formatter.FormatStreaks(streaks)
			if err != nil {
				return fmt.Errorf("failed to format report: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}

	addCommonFlags(cmd, &flags)
	return cmd
}
