package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values respect Reddit's public API guidelines where applicable.
const (
	// DefaultRequestsPerMinute matches the rate Reddit grants unauthenticated
	// clients. Exceeding it draws 429 responses and long cool-downs, so the
	// default stays at the documented quota rather than probing above it.
	DefaultRequestsPerMinute = 60

	// DefaultTimeout is the per-request timeout. Reddit's listing endpoints
	// respond within a few seconds under normal conditions; 30 seconds leaves
	// room for slow pagination cursors without hanging a run for minutes.
	DefaultTimeout = 30 * time.Second

	// DefaultPostsLimit is the total post budget per run, spread across the
	// configured sort strategies. 100 posts give the statistical extraction
	// enough samples without making collection take the better part of an hour
	// at the default request rate.
	DefaultPostsLimit = 100

	// DefaultCommentsPerPost bounds the comment tree flattening per post.
	// The top 50 comments carry nearly all of a thread's discussion signal.
	DefaultCommentsPerPost = 50

	// DefaultBatchSize is the number of communities analyzed concurrently
	// when several are requested. Each run is internally sequential, and the
	// shared rate limiter serializes API traffic, so a small bound suffices.
	DefaultBatchSize = 3

	// DefaultTimeFilter scopes "top" listings. A week balances freshness
	// against sample size for most communities.
	DefaultTimeFilter = "week"

	// DefaultOutputDir is where report artifacts are written.
	DefaultOutputDir = "./output"

	// DefaultAnalysisBinary is the CLI executable backing the AI analysis
	// stage. Must be on PATH unless overridden.
	DefaultAnalysisBinary = "claude"

	// AppName is the application name used for XDG directory paths.
	AppName = "redditlens"
)

// Config holds all configuration options for RedditLens.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CollectConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Communities is the list of community names to analyze, without the
	// "r/" prefix. Must contain at least one entry.
	Communities []string

	// PostsLimit is the total post budget per run.
	PostsLimit int

	// CommentsPerPost is the comment budget per analyzed post.
	CommentsPerPost int

	// TimeFilter scopes "top" listings: hour, day, week, month, year, or all.
	TimeFilter string

	// RequestsPerMinute is the fixed rate limit for API traffic. The
	// adaptive limiter may slow down further based on quota headers, but
	// never speeds up past this.
	RequestsPerMinute int

	// Timeout is the per-request timeout for API calls.
	Timeout time.Duration

	// SkipCollection analyzes the most recent stored run instead of
	// collecting fresh data.
	SkipCollection bool

	// RunID selects a specific stored collection run to analyze.
	// Implies SkipCollection when non-zero.
	RunID int64

	// SkipAI disables the AI analysis and synthesis stages. Statistical
	// extraction still runs.
	SkipAI bool

	// AnalysisBinary is the CLI executable backing the AI analysis stage.
	AnalysisBinary string

	// OutputDir is the directory report artifacts are written to.
	OutputDir string

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/redditlens on Linux).
	DBDir string

	// BatchSize is the number of communities analyzed concurrently.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Verbose bool

	// JSONOutput additionally writes the machine-readable run document
	// next to the Markdown report.
	JSONOutput bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .redditlens in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// CommunityConfigs holds per-community overrides loaded from the
	// config file. Populated by LoadConfigFile.
	CommunityConfigs *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, limits).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		PostsLimit:        DefaultPostsLimit,
		CommentsPerPost:   DefaultCommentsPerPost,
		TimeFilter:        DefaultTimeFilter,
		RequestsPerMinute: DefaultRequestsPerMinute,
		Timeout:           DefaultTimeout,
		AnalysisBinary:    DefaultAnalysisBinary,
		OutputDir:         DefaultOutputDir,
		DBDir:             XDGDataDir(),
		BatchSize:         DefaultBatchSize,
		JSONOutput:        true,
	}
}

// XDGDataDir returns the XDG data directory for RedditLens.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/redditlens
// On macOS: ~/Library/Application Support/redditlens
// On Windows: %LOCALAPPDATA%\redditlens
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for RedditLens.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/redditlens
// On macOS: ~/Library/Application Support/redditlens
// On Windows: %APPDATA%\redditlens
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// validTimeFilters are the windows Reddit's "top" listing accepts.
var validTimeFilters = map[string]struct{}{
	"hour": {}, "day": {}, "week": {}, "month": {}, "year": {}, "all": {},
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any run begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Communities) == 0 {
		return ErrNoCommunity
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestsPerMinute <= 0 {
		return ErrInvalidRateLimit
	}

	if c.PostsLimit <= 0 {
		return ErrInvalidPostsLimit
	}

	if c.CommentsPerPost < 0 {
		return ErrInvalidCommentsLimit
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if _, ok := validTimeFilters[c.TimeFilter]; !ok {
		return ErrInvalidTimeFilter
	}

	// A specific stored run cannot be combined with multiple communities:
	// the run already identifies its community.
	if c.RunID != 0 && len(c.Communities) > 1 {
		return ErrRunIDWithMultipleCommunities
	}

	return nil
}
