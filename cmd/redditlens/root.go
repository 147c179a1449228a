// Package main provides the entry point for the RedditLens CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for RedditLens.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redditlens",
		Short: "Community analysis tool for Reddit",
		Long: `RedditLens collects posts and comments from Reddit communities and
analyzes them for community insights: posting patterns, audience profiles,
pain points, and AI-assisted sentiment and tone analysis.

Collection respects Reddit's public API rate limits. Collected data is
stored locally in a SQLite database so runs can be re-analyzed without
re-fetching.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
