package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/redditlens/internal/database"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command.
// This command prints reports stored in the database.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [community]",
		Short: "Print a stored analysis report",
		Long: `Report prints the most recent stored report for a community, or for a
specific collection run selected by ID.

Reports are persisted by 'analyze' alongside the on-disk Markdown file,
so they can be re-printed without re-running the analysis.

Examples:
  # Print the latest report for a community
  redditlens report golang

  # Print the report of a specific collection run
  redditlens report --run-id 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().Int64P("run-id", "i", 0,
		"Print the report of a specific collection run (use 'runs' to see available IDs)")
	cmd.Flags().String("db-dir", "",
		"Directory holding the SQLite database (default: XDG data directory)")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	runID, err := cmd.Flags().GetInt64("run-id")
	if err != nil {
		return err
	}

	var community string
	if len(args) > 0 {
		community = args[0]
	}

	if runID == 0 && community == "" {
		return errors.New("a community name or --run-id is required (use 'runs' to see available runs)")
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	return printReport(context.Background(), db, cmd.OutOrStdout(), community, runID)
}

// printReport resolves the target run and prints its stored report.
func printReport(ctx context.Context, db *database.Store, out io.Writer, community string, runID int64) error {
	if runID == 0 {
		run, err := db.LatestCollectionRun(ctx, community)
		if err != nil {
			return fmt.Errorf("failed to look up latest run: %w", err)
		}
		if run == nil {
			return fmt.Errorf("no collection runs found for r/%s (use 'redditlens analyze %s' first)", community, community)
		}
		runID = run.ID
	}

	content, err := db.LatestReport(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}
	if content == "" {
		return fmt.Errorf("no report stored for run %d (runs analyzed with --skip-ai do not persist a report)", runID)
	}

	fmt.Fprintln(out, content)
	return nil
}
