package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.PostsLimit != DefaultPostsLimit {
		t.Errorf("PostsLimit = %d, want %d", cfg.PostsLimit, DefaultPostsLimit)
	}
	if cfg.CommentsPerPost != DefaultCommentsPerPost {
		t.Errorf("CommentsPerPost = %d, want %d", cfg.CommentsPerPost, DefaultCommentsPerPost)
	}
	if cfg.RequestsPerMinute != DefaultRequestsPerMinute {
		t.Errorf("RequestsPerMinute = %d, want %d", cfg.RequestsPerMinute, DefaultRequestsPerMinute)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.TimeFilter != DefaultTimeFilter {
		t.Errorf("TimeFilter = %q, want %q", cfg.TimeFilter, DefaultTimeFilter)
	}
	if cfg.DBDir == "" {
		t.Error("DBDir is empty, want the XDG data directory")
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, DefaultOutputDir)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Communities = []string{"golang"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "no community",
			mutate:  func(c *Config) { c.Communities = nil },
			wantErr: ErrNoCommunity,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RequestsPerMinute = 0 },
			wantErr: ErrInvalidRateLimit,
		},
		{
			name:    "zero posts limit",
			mutate:  func(c *Config) { c.PostsLimit = 0 },
			wantErr: ErrInvalidPostsLimit,
		},
		{
			name:    "negative comments limit",
			mutate:  func(c *Config) { c.CommentsPerPost = -1 },
			wantErr: ErrInvalidCommentsLimit,
		},
		{
			name:   "zero comments limit is allowed",
			mutate: func(c *Config) { c.CommentsPerPost = 0 },
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name:    "unknown time filter",
			mutate:  func(c *Config) { c.TimeFilter = "fortnight" },
			wantErr: ErrInvalidTimeFilter,
		},
		{
			name: "run id with several communities",
			mutate: func(c *Config) {
				c.RunID = 7
				c.Communities = []string{"golang", "rust"}
			},
			wantErr: ErrRunIDWithMultipleCommunities,
		},
		{
			name: "run id with one community is allowed",
			mutate: func(c *Config) {
				c.RunID = 7
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); filepath.Base(dir) != AppName {
		t.Errorf("XDGDataDir() = %q, want a path ending in %q", dir, AppName)
	}
	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("XDGConfigDir() = %q, want a path ending in %q", dir, AppName)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads overrides", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `
defaults:
  postsLimit: 50
  timeFilter: month
communities:
  golang:
    postsLimit: 200
    sortMethods: [hot, new]
  rust:
    commentsPerPost: 25
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		golang := cf.GetCommunityConfig("golang")
		if golang.PostsLimit != 200 {
			t.Errorf("golang PostsLimit = %d, want the community override 200", golang.PostsLimit)
		}
		if golang.TimeFilter != "month" {
			t.Errorf("golang TimeFilter = %q, want the default override month", golang.TimeFilter)
		}
		if len(golang.SortMethods) != 2 {
			t.Errorf("golang SortMethods = %v, want [hot new]", golang.SortMethods)
		}

		rust := cf.GetCommunityConfig("rust")
		if rust.PostsLimit != 50 {
			t.Errorf("rust PostsLimit = %d, want the defaults value 50", rust.PostsLimit)
		}
		if rust.CommentsPerPost != 25 {
			t.Errorf("rust CommentsPerPost = %d, want 25", rust.CommentsPerPost)
		}

		// Unknown community falls back to the defaults.
		other := cf.GetCommunityConfig("devops")
		if other.PostsLimit != 50 || other.TimeFilter != "month" {
			t.Errorf("devops config = %+v, want the defaults", other)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfigFile() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("communities: [broken"), 0600); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("LoadConfigFile() error = nil, want a parse error")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})
}
