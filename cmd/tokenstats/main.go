package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imdanielpiva/tokenstats/internal/commands"
)

func main() {
	ctx := context.Background()

	rootCmd := &cobra.Command{
		Use:   "tokenstats",
		Short: "AI coding assistant usage analysis tool",
		Long:  `A CLI tool for tracking token usage and cost across Claude, Codex, Amp, and Gemini session logs.`,
	}

	rootCmd.AddCommand(
		commands.NewDailyCommand(),
		commands.NewWeeklyCommand(),
		commands.NewMonthlyCommand(),
		commands.NewHalfYearlyCommand(),
		commands.NewYearlyCommand(),
		commands.NewModelsCommand(),
		commands.NewStreaksCommand(),
		commands.NewMonitorCommand(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
