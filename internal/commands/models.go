package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imdanielpiva/tokenstats/internal/aggregator"
)

func NewModelsCommand() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models seen in the requested range",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(flags)
			if err != nil {
				return err
			}

			report, err := sess.scanner.ScanAll(cmd.Context(), sess.providers, sess.scanOpts)
			if err != nil {
				return fmt.Errorf("failed to scan usage data: %w", err)
			}

			out, err := sess.formatter.FormatModels(aggregator.ExtractAllModels(report.Entries))
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	addCommonFlags(cmd, &flags)
	return cmd
}
