package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imdanielpiva/tokenstats/internal/monitor"
)

func NewMonitorCommand() *cobra.Command {
	var flags commonFlags
	var interval time.Duration
	var once bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Live usage monitor",
		Long:  `Continuously rescan provider logs and display running totals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(flags)
			if err != nil {
				return err
			}

			m := monitor.New(monitor.Options{
				Scanner:     sess.scanner,
				Providers:   sess.providers,
				ScanOptions: sess.scanOpts,
				Interval:    interval,
				NoColor:     flags.noColor,
				Continuous:  !once,
			})
			return m.Start(cmd.Context())
		},
	}

	addCommonFlags(cmd, &flags)
	cmd.Flags().DurationVarP(&interval, "interval", "i", 5*time.Second, "Refresh interval")
	cmd.Flags().BoolVar(&once, "once", false, "Print a snapshot and exit")
	return cmd
}
