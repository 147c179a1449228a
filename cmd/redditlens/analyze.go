package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/redditlens/internal/analyze"
	"github.com/nao1215/redditlens/internal/config"
	"github.com/nao1215/redditlens/internal/database"
	"github.com/nao1215/redditlens/internal/engine"
	"github.com/nao1215/redditlens/internal/log"
	"github.com/nao1215/redditlens/internal/model"
	"github.com/nao1215/redditlens/internal/reddit"
	"github.com/nao1215/redditlens/internal/report"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [community]...",
		Short: "Collect and analyze one or more Reddit communities",
		Long: `Analyze collects posts and comments from the given communities and runs
the full analysis pipeline:

- Statistical extraction (scores, flairs, timing, titles, engagement)
- Regex-driven audience profiling
- AI analysis (sentiment, pain points, tone, promotion attitude)
- Persona generation, insights, and a Markdown report

Collected data is stored in a local SQLite database, so later runs can
re-analyze stored data without re-fetching (--skip-collection, --run-id).

Examples:
  # Analyze a single community
  redditlens analyze golang

  # Analyze several communities concurrently
  redditlens analyze golang rust programming

  # Re-analyze the latest stored run without fetching
  redditlens analyze --skip-collection golang

  # Re-analyze a specific stored run
  redditlens analyze --run-id 5 golang

  # Skip the AI stages (statistical extraction only)
  redditlens analyze --skip-ai golang

  # Use a custom configuration file
  redditlens analyze -c myconfig.yaml golang

Configuration file (.redditlens) example:
  defaults:
    postsLimit: 50
  communities:
    golang:
      timeFilter: month
      sortMethods: [hot, top]`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Collection flags
	cmd.Flags().IntP("posts-limit", "p", config.DefaultPostsLimit,
		"Maximum number of posts to collect per community")
	cmd.Flags().IntP("comments-limit", "m", config.DefaultCommentsPerPost,
		"Maximum number of comments to collect per post")
	cmd.Flags().StringP("time-filter", "t", config.DefaultTimeFilter,
		"Time window for top listings (hour, day, week, month, year, all)")
	cmd.Flags().IntP("requests-per-minute", "r", config.DefaultRequestsPerMinute,
		"Maximum API requests per minute")
	cmd.Flags().DurationP("timeout", "T", config.DefaultTimeout,
		"Per-request timeout for API calls")

	// Reuse flags
	cmd.Flags().BoolP("skip-collection", "s", false,
		"Analyze the most recent stored run instead of collecting fresh data")
	cmd.Flags().Int64P("run-id", "i", 0,
		"Analyze a specific stored collection run (use 'runs' to see available IDs)")

	// Analysis flags
	cmd.Flags().Bool("skip-ai", false,
		"Skip the AI analysis and synthesis stages")
	cmd.Flags().String("analysis-binary", config.DefaultAnalysisBinary,
		"CLI executable backing the AI analysis stage")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of communities analyzed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .redditlens in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory for report files")
	cmd.Flags().String("db-dir", "",
		"Directory for the SQLite database (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", true,
		"Write a machine-readable JSON artifact alongside the Markdown report")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential sanitization
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAnalysis(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.PostsLimit, err = cmd.Flags().GetInt("posts-limit")
	if err != nil {
		return nil, err
	}

	cfg.CommentsPerPost, err = cmd.Flags().GetInt("comments-limit")
	if err != nil {
		return nil, err
	}

	cfg.TimeFilter, err = cmd.Flags().GetString("time-filter")
	if err != nil {
		return nil, err
	}

	cfg.RequestsPerMinute, err = cmd.Flags().GetInt("requests-per-minute")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.SkipCollection, err = cmd.Flags().GetBool("skip-collection")
	if err != nil {
		return nil, err
	}

	cfg.RunID, err = cmd.Flags().GetInt64("run-id")
	if err != nil {
		return nil, err
	}

	cfg.SkipAI, err = cmd.Flags().GetBool("skip-ai")
	if err != nil {
		return nil, err
	}

	cfg.AnalysisBinary, err = cmd.Flags().GetString("analysis-binary")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.JSONOutput, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Load per-community configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.CommunityConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.CommunityConfigs = &config.File{
			Communities: make(map[string]config.CommunityConfig),
		}
	}

	// Get positional arguments (community names)
	cfg.Communities = args

	return cfg, nil
}

// runAnalysis wires the pipeline and runs it for every configured community.
func runAnalysis(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	logger.Info("starting analysis",
		"communities", cfg.Communities,
		"skipCollection", cfg.SkipCollection,
		"skipAI", cfg.SkipAI,
		"batchSize", cfg.BatchSize,
	)

	// Open database connection
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	// Collection client with adaptive rate limiting
	client := reddit.NewClient(
		reddit.WithLimiter(reddit.NewLimiter(cfg.RequestsPerMinute)),
		reddit.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		reddit.WithClientLogger(logger),
	)

	// AI analysis capability backed by an external CLI
	capability := analyze.NewCLICapability(
		analyze.WithBinary(cfg.AnalysisBinary),
		analyze.WithLogger(logger),
	)

	// Report writer for Markdown and optional JSON artifacts
	writer := report.NewFileWriter(report.WithJSONArtifact(cfg.JSONOutput))

	eng, err := engine.New(client, db, capability, writer, engine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	// Use batch runner for concurrent analysis if multiple communities
	if len(cfg.Communities) > 1 && cfg.BatchSize > 1 {
		return runBatchAnalysis(ctx, cfg, eng, logger, out)
	}

	// Single community or sequential analysis
	return runSequentialAnalysis(ctx, cfg, eng, logger, out)
}

// runSequentialAnalysis analyzes communities one at a time, applying
// per-community configuration overrides.
func runSequentialAnalysis(ctx context.Context, cfg *config.Config, eng *engine.Engine, logger *slog.Logger, out io.Writer) error {
	printer := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))

	for _, community := range cfg.Communities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprintf(out, "Analyzing r/%s...\n", community)
		startTime := time.Now()

		state, err := eng.Run(ctx, community, buildRunOptions(cfg, community)...)
		if err != nil {
			logger.Error("analysis failed", "community", community, "error", err)
			fmt.Fprintf(os.Stderr, "Analysis error for r/%s: %v\n", community, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Fprintf(out, "Analysis completed in %s\n\n", elapsed.Round(time.Millisecond))

		if _, err := printer.Write(state); err != nil {
			logger.Error("summary output failed", "community", community, "error", err)
		}
	}

	return nil
}

// runBatchAnalysis analyzes multiple communities concurrently using BatchRunner.
func runBatchAnalysis(ctx context.Context, cfg *config.Config, eng *engine.Engine, logger *slog.Logger, out io.Writer) error {
	fmt.Fprintf(out, "Starting batch analysis of %d communities (concurrency: %d)...\n\n",
		len(cfg.Communities), cfg.BatchSize)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if cfg.CommunityConfigs != nil && len(cfg.CommunityConfigs.Communities) > 0 {
		logger.Warn("batch analysis uses default collection config only; per-community overrides are ignored",
			"communityCount", len(cfg.CommunityConfigs.Communities))
		fmt.Fprintf(os.Stderr, "Warning: Per-community configurations are ignored in batch mode. Use sequential mode (--batch 1) to apply per-community settings.\n\n")
	}

	runner := engine.NewBatchRunner(eng,
		engine.WithConcurrency(cfg.BatchSize),
		engine.WithBatchLogger(logger),
	)

	// Batch mode applies the shared defaults to every community.
	states, err := runner.Run(ctx, cfg.Communities, buildRunOptions(cfg, "")...)

	printer := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	for i, state := range states {
		if state == nil {
			continue
		}
		fmt.Fprintf(out, "[%d/%d] Analysis completed: r/%s\n", i+1, len(cfg.Communities), state.Community)
		if _, werr := printer.Write(state); werr != nil {
			logger.Error("summary output failed", "community", state.Community, "error", werr)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(out, "\nBatch analysis completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// buildRunOptions converts the CLI configuration into run options for one
// community, merging per-community overrides from the config file.
func buildRunOptions(cfg *config.Config, community string) []model.RunOption {
	collection := model.DefaultCollectionConfig()
	collection.PostsLimit = cfg.PostsLimit
	collection.CommentsPerPost = cfg.CommentsPerPost
	collection.TimeFilter = cfg.TimeFilter

	if community != "" && cfg.CommunityConfigs != nil {
		cc := cfg.CommunityConfigs.GetCommunityConfig(community)
		if cc.PostsLimit != 0 {
			collection.PostsLimit = cc.PostsLimit
		}
		if cc.CommentsPerPost != 0 {
			collection.CommentsPerPost = cc.CommentsPerPost
		}
		if cc.TimeFilter != "" {
			collection.TimeFilter = cc.TimeFilter
		}
		if len(cc.SortMethods) > 0 {
			collection.SortMethods = cc.SortMethods
		}
	}

	opts := []model.RunOption{
		model.WithOutputDir(cfg.OutputDir),
		model.WithCollectionConfig(collection),
		model.WithSkipAI(cfg.SkipAI),
		model.WithSkipCollection(cfg.SkipCollection),
	}

	if cfg.RunID != 0 {
		opts = append(opts, model.WithExistingRun(cfg.RunID))
	}

	return opts
}
