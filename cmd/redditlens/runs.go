package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/redditlens/internal/config"
	"github.com/nao1215/redditlens/internal/database"
	"github.com/spf13/cobra"
)

// NewRunsCmd creates the runs command.
// This command lists stored collection runs from the database.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored collection runs",
		Long: `Runs lists collection runs stored in the local database, newest first.

Each row shows the run ID, community, status, item counts, and start time.
Run IDs can be passed to 'analyze --run-id' to re-analyze stored data or
to 'report --run-id' to print a stored report.

Examples:
  # List all stored runs
  redditlens runs

  # List runs for one community
  redditlens runs --community golang

  # List the last 5 runs in JSON format
  redditlens runs --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: runRunsCmd,
	}

	cmd.Flags().StringP("community", "C", "",
		"Only list runs for the specified community")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the run listing in JSON format")
	cmd.Flags().String("db-dir", "",
		"Directory holding the SQLite database (default: XDG data directory)")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, _ []string) error {
	community, err := cmd.Flags().GetString("community")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	return listRuns(context.Background(), db, cmd.OutOrStdout(), community, limit, jsonOutput)
}

// openDatabase opens the store at the --db-dir flag or the XDG default.
// The database must already exist; listing commands never create it.
func openDatabase(cmd *cobra.Command) (*database.Store, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(dbDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// listRuns prints the stored run history.
func listRuns(ctx context.Context, db *database.Store, out io.Writer, community string, limit int, jsonOutput bool) error {
	runs, err := db.ListCollectionRuns(ctx, community, limit)
	if err != nil {
		return fmt.Errorf("failed to list collection runs: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runsDocument(runs))
	}

	if len(runs) == 0 {
		if community != "" {
			fmt.Fprintf(out, "No collection runs found for r/%s\n", community)
		} else {
			fmt.Fprintln(out, "No collection runs found in the database.")
		}
		fmt.Fprintln(out, "\nUse 'redditlens analyze <community>' to collect data.")
		return nil
	}

	fmt.Fprintf(out, "Collection runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %-7s  %-9s  %s\n",
		"ID", "Community", "Status", "Posts", "Comments", "Started")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))

	for _, summary := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %-7d  %-9d  %s\n",
			summary.Run.ID,
			"r/"+summary.Community,
			summary.Run.Status,
			summary.Run.PostsCollected,
			summary.Run.CommentsCollected,
			summary.Run.StartedAt.Format("2006-01-02 15:04:05"),
		)
	}

	fmt.Fprintln(out, "\nUse 'redditlens analyze --run-id <id> <community>' to re-analyze a run.")
	fmt.Fprintln(out, "Use 'redditlens report --run-id <id>' to print a stored report.")

	return nil
}

// runRow is one entry of the JSON run listing.
type runRow struct {
	ID                int64     `json:"id"`
	Community         string    `json:"community"`
	Status            string    `json:"status"`
	PostsCollected    int       `json:"posts_collected"`
	CommentsCollected int       `json:"comments_collected"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at,omitempty"`
}

// runsDocument converts run summaries into the JSON listing shape.
func runsDocument(runs []database.RunSummary) []runRow {
	rows := make([]runRow, 0, len(runs))
	for _, summary := range runs {
		rows = append(rows, runRow{
			ID:                summary.Run.ID,
			Community:         summary.Community,
			Status:            summary.Run.Status,
			PostsCollected:    summary.Run.PostsCollected,
			CommentsCollected: summary.Run.CommentsCollected,
			ErrorMessage:      summary.Run.ErrorMessage,
			StartedAt:         summary.Run.StartedAt,
			CompletedAt:       summary.Run.CompletedAt,
		})
	}
	return rows
}
