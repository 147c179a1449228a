package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/redditlens/internal/config"
	"github.com/nao1215/redditlens/internal/model"
)

// TestNewAnalyzeCmd tests the analyze command creation.
func TestNewAnalyzeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAnalyzeCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "analyze [community]..." {
			t.Errorf("expected use 'analyze [community]...', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has posts-limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("posts-limit")
		if flag == nil {
			t.Fatal("expected posts-limit flag")
		}
		if flag.Shorthand != "p" {
			t.Errorf("expected shorthand 'p', got %q", flag.Shorthand)
		}
	})

	t.Run("has comments-limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("comments-limit")
		if flag == nil {
			t.Fatal("expected comments-limit flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})

	t.Run("has time-filter flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("time-filter")
		if flag == nil {
			t.Fatal("expected time-filter flag")
		}
		if flag.DefValue != config.DefaultTimeFilter {
			t.Errorf("expected default %q, got %q", config.DefaultTimeFilter, flag.DefValue)
		}
	})

	t.Run("has requests-per-minute flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("requests-per-minute")
		if flag == nil {
			t.Fatal("expected requests-per-minute flag")
		}
		if flag.Shorthand != "r" {
			t.Errorf("expected shorthand 'r', got %q", flag.Shorthand)
		}
	})

	t.Run("has skip-collection flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("skip-collection")
		if flag == nil {
			t.Fatal("expected skip-collection flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
	})

	t.Run("has run-id flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("run-id")
		if flag == nil {
			t.Fatal("expected run-id flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has skip-ai flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("skip-ai")
		if flag == nil {
			t.Fatal("expected skip-ai flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has batch flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch")
		if flag == nil {
			t.Fatal("expected batch flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("has db-dir flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db-dir")
		if flag == nil {
			t.Fatal("expected db-dir flag")
		}
	})

	t.Run("json artifact defaults to true", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.DefValue != "true" {
			t.Errorf("expected default 'true', got %q", flag.DefValue)
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		analyzeCmd, _, err := root.Find([]string{"analyze"})
		if err != nil {
			t.Fatalf("failed to find analyze command: %v", err)
		}

		result := getVerboseFlag(analyzeCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		cfg, err := buildConfig(cmd, []string{"golang"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Communities) != 1 || cfg.Communities[0] != "golang" {
			t.Errorf("expected communities [golang], got %v", cfg.Communities)
		}
		if cfg.PostsLimit != config.DefaultPostsLimit {
			t.Errorf("expected PostsLimit %d, got %d", config.DefaultPostsLimit, cfg.PostsLimit)
		}
		if cfg.SkipAI {
			t.Error("expected SkipAI to be false")
		}
		if !cfg.JSONOutput {
			t.Error("expected JSONOutput to be true by default")
		}
	})

	t.Run("builds config with custom limits", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("posts-limit", "25")
		_ = cmd.Flags().Set("comments-limit", "10")
		cfg, err := buildConfig(cmd, []string{"golang"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.PostsLimit != 25 {
			t.Errorf("expected PostsLimit 25, got %d", cfg.PostsLimit)
		}
		if cfg.CommentsPerPost != 10 {
			t.Errorf("expected CommentsPerPost 10, got %d", cfg.CommentsPerPost)
		}
	})

	t.Run("builds config with run-id", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("run-id", "42")
		cfg, err := buildConfig(cmd, []string{"golang"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.RunID != 42 {
			t.Errorf("expected RunID 42, got %d", cfg.RunID)
		}
	})

	t.Run("builds config with custom timeout", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("timeout", "10s")
		cfg, err := buildConfig(cmd, []string{"golang"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout 10s, got %s", cfg.Timeout)
		}
	})

	t.Run("builds config with custom db-dir", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("db-dir", "/tmp/lens-db")
		cfg, err := buildConfig(cmd, []string{"golang"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.DBDir != "/tmp/lens-db" {
			t.Errorf("expected DBDir '/tmp/lens-db', got %q", cfg.DBDir)
		}
	})

	t.Run("builds config with multiple communities", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		cfg, err := buildConfig(cmd, []string{"golang", "rust", "programming"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Communities) != 3 {
			t.Errorf("expected 3 communities, got %d", len(cfg.Communities))
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "redditlens.yaml")

		content := []byte(`
defaults:
  postsLimit: 10
communities:
  golang:
    timeFilter: month
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"golang"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.CommunityConfigs == nil {
			t.Fatal("expected CommunityConfigs to be loaded")
		}
		if cfg.CommunityConfigs.Defaults.PostsLimit != 10 {
			t.Errorf("expected default postsLimit 10, got %d", cfg.CommunityConfigs.Defaults.PostsLimit)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := buildConfig(cmd, []string{"golang"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		content := []byte(`{invalid yaml`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewAnalyzeCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"golang"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})
}

// TestBuildRunOptions tests the conversion of CLI configuration into run options.
func TestBuildRunOptions(t *testing.T) {
	t.Parallel()

	t.Run("applies global limits", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.PostsLimit = 25
		cfg.CommentsPerPost = 5
		cfg.TimeFilter = "month"
		cfg.OutputDir = "/tmp/out"

		state := model.NewRunState("golang", buildRunOptions(cfg, "golang")...)

		if state.Collection.PostsLimit != 25 {
			t.Errorf("expected PostsLimit 25, got %d", state.Collection.PostsLimit)
		}
		if state.Collection.CommentsPerPost != 5 {
			t.Errorf("expected CommentsPerPost 5, got %d", state.Collection.CommentsPerPost)
		}
		if state.Collection.TimeFilter != "month" {
			t.Errorf("expected TimeFilter 'month', got %q", state.Collection.TimeFilter)
		}
		if state.OutputDir != "/tmp/out" {
			t.Errorf("expected OutputDir '/tmp/out', got %q", state.OutputDir)
		}
	})

	t.Run("per-community overrides win", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.PostsLimit = 100
		cfg.CommunityConfigs = &config.File{
			Communities: map[string]config.CommunityConfig{
				"golang": {
					PostsLimit:  200,
					SortMethods: []string{"hot"},
				},
			},
		}

		state := model.NewRunState("golang", buildRunOptions(cfg, "golang")...)

		if state.Collection.PostsLimit != 200 {
			t.Errorf("expected PostsLimit 200, got %d", state.Collection.PostsLimit)
		}
		if len(state.Collection.SortMethods) != 1 || state.Collection.SortMethods[0] != "hot" {
			t.Errorf("expected sort methods [hot], got %v", state.Collection.SortMethods)
		}
	})

	t.Run("unknown community falls back to defaults", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.CommunityConfigs = &config.File{
			Communities: map[string]config.CommunityConfig{
				"golang": {PostsLimit: 200},
			},
		}

		state := model.NewRunState("rust", buildRunOptions(cfg, "rust")...)

		if state.Collection.PostsLimit != config.DefaultPostsLimit {
			t.Errorf("expected PostsLimit %d, got %d", config.DefaultPostsLimit, state.Collection.PostsLimit)
		}
	})

	t.Run("run id selects stored run", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.RunID = 7

		state := model.NewRunState("golang", buildRunOptions(cfg, "golang")...)

		if state.ExistingRunID != 7 {
			t.Errorf("expected ExistingRunID 7, got %d", state.ExistingRunID)
		}
	})

	t.Run("skip flags propagate", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SkipAI = true
		cfg.SkipCollection = true

		state := model.NewRunState("golang", buildRunOptions(cfg, "golang")...)

		if !state.SkipAI {
			t.Error("expected SkipAI to be true")
		}
		if !state.SkipCollection {
			t.Error("expected SkipCollection to be true")
		}
	})
}
