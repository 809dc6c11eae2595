package main

import (
	"os"

	"github.com/spf13/cobra"

	"threadmind/internal/interfaces/cli/migrate"
	"threadmind/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "threadmind",
		Short: "ThreadMind - AI-assisted forum companion",
		Long:  `ThreadMind connects a forum installation to the AI cloud for content indexing, credit-metered generation, and scheduled automation.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
