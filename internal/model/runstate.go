package model

import "github.com/google/uuid"

// Status is the lifecycle status of an analysis run.
type Status string

// Run lifecycle statuses. Every run terminates in exactly StatusCompleted
// or StatusFailed; a completed run may still carry non-fatal errors from
// degraded branches.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Phase is the coarse pipeline stage a run is in. Phases are used for
// routing decisions and observability, not for fine-grained progress.
type Phase string

// Pipeline phases in execution order.
const (
	PhaseInit         Phase = "init"
	PhaseCollecting   Phase = "collecting"
	PhaseExtracting   Phase = "extracting"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseOutputting   Phase = "outputting"
	PhaseDone         Phase = "done"
)

// Extraction category keys. Each extraction node writes only its own key
// into RunState.Extraction; the merge node fills absent keys with empty
// defaults.
const (
	CategoryScores     = "score_distribution"
	CategoryFlairs     = "flair_distribution"
	CategoryTiming     = "timing_patterns"
	CategoryTitles     = "title_analysis"
	CategoryEngagement = "engagement_analysis"
	CategoryAudience   = "audience_extraction"
)

// AI analysis category keys, one per Capability call.
const (
	CategorySentiment  = "sentiment_analysis"
	CategoryPainPoints = "pain_point_analysis"
	CategoryTone       = "tone_analysis"
	CategoryPromotion  = "promotion_analysis"
)

// SummaryKey is where merge nodes record their derived summary inside the
// Extraction and Analysis maps.
const SummaryKey = "summary"

// Synthesis output keys.
const (
	SynthesisPersonas = "personas"
	SynthesisInsights = "insights"
	SynthesisReport   = "report_content"
)

// ExtractionCategories lists every category the extraction fan-out is
// expected to produce, in execution order.
var ExtractionCategories = []string{
	CategoryScores,
	CategoryFlairs,
	CategoryTiming,
	CategoryTitles,
	CategoryEngagement,
	CategoryAudience,
}

// AnalysisCategories lists every category the AI analysis fan-out is
// expected to produce, in execution order.
var AnalysisCategories = []string{
	CategorySentiment,
	CategoryPainPoints,
	CategoryTone,
	CategoryPromotion,
}

// CollectionConfig controls how much data the collection phase gathers.
type CollectionConfig struct {
	// PostsLimit is the maximum number of posts to keep for a run.
	PostsLimit int

	// CommentsPerPost is the maximum comments fetched per top post.
	CommentsPerPost int

	// SortMethods are the listing sort strategies to fan out over.
	// Results are deduplicated by reddit id across strategies.
	SortMethods []string

	// TimeFilter restricts "top" listings (hour, day, week, month,
	// year, all).
	TimeFilter string
}

// DefaultCollectionConfig returns the collection defaults used when the
// caller does not override them.
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		PostsLimit:      100,
		CommentsPerPost: 50,
		SortMethods:     []string{"hot", "top", "new"},
		TimeFilter:      "week",
	}
}

// RunState is the single accumulator threaded through every pipeline node.
//
// Design decision: nodes never mutate RunState directly. Each node returns
// an Update describing only the fields it produced, and the engine applies
// the update through a fixed per-field merge table. This keeps nodes pure
// and makes partial failure containable: a failed node contributes an
// error entry instead of corrupting shared state.
type RunState struct {
	// ID is the run identity, assigned at creation.
	ID string

	// Status is the lifecycle status.
	Status Status

	// Phase is the coarse pipeline stage.
	Phase Phase

	// Community is the subreddit name under analysis (without "r/").
	Community string

	// SkipCollection requests reuse of previously collected data
	// instead of fetching fresh data.
	SkipCollection bool

	// SkipAI disables the AI analysis and synthesis stages.
	SkipAI bool

	// ExistingRunID selects a stored collection run to analyze.
	// Zero means none; the latest run for the community is used when
	// SkipCollection is set without an explicit id.
	ExistingRunID int64

	// OutputDir is where the report file is written.
	OutputDir string

	// Collection holds the collection limits and strategies.
	Collection CollectionConfig

	// CommunityInfo is the community profile, populated during
	// collection or loaded from the store.
	CommunityInfo *CommunityInfo

	// CommunityID is the persisted community identity.
	CommunityID int64

	// RunID is the persisted collection run identity.
	RunID int64

	// PostsCollected and CommentsCollected are the item counts for the
	// current run.
	PostsCollected    int
	CommentsCollected int

	// Posts and Comments are the raw collected records.
	Posts    []Post
	Comments []Comment

	// TopPosts and TopComments are the highest-scoring subsets passed
	// to the AI analysis stage to bound prompt size.
	TopPosts    []Post
	TopComments []Comment

	// Extraction holds pattern extraction results keyed by category.
	Extraction map[string]map[string]any

	// Analysis holds AI analysis results keyed by category.
	Analysis map[string]map[string]any

	// Synthesis holds persona, insight, and report outputs.
	Synthesis map[string]any

	// ReportPath is the path of the written report file, if any.
	ReportPath string

	// Errors accumulates non-fatal, category-scoped error strings.
	// A run can complete with a non-empty Errors list.
	Errors []string

	// Err is the fatal error that routed the run to the failure
	// terminal. Empty for completed runs.
	Err string
}

// RunOption configures a new RunState.
type RunOption func(*RunState)

// WithSkipAI disables AI analysis and synthesis for the run.
func WithSkipAI(skip bool) RunOption {
	return func(s *RunState) {
		s.SkipAI = skip
	}
}

// WithSkipCollection reuses previously collected data instead of fetching.
func WithSkipCollection(skip bool) RunOption {
	return func(s *RunState) {
		s.SkipCollection = skip
	}
}

// WithExistingRun selects a stored collection run to analyze. Implies
// loading existing data instead of collecting.
func WithExistingRun(runID int64) RunOption {
	return func(s *RunState) {
		s.ExistingRunID = runID
	}
}

// WithOutputDir sets the directory for the report file.
func WithOutputDir(dir string) RunOption {
	return func(s *RunState) {
		s.OutputDir = dir
	}
}

// WithCollectionConfig overrides the collection limits and strategies.
func WithCollectionConfig(cfg CollectionConfig) RunOption {
	return func(s *RunState) {
		s.Collection = cfg
	}
}

// NewRunState creates the initial state for one analysis run.
func NewRunState(community string, opts ...RunOption) *RunState {
	s := &RunState{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		Phase:      PhaseInit,
		Community:  community,
		OutputDir:  "./output",
		Collection: DefaultCollectionConfig(),
		Extraction: make(map[string]map[string]any),
		Analysis:   make(map[string]map[string]any),
		Synthesis:  make(map[string]any),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Failed reports whether a fatal error has been recorded.
func (s *RunState) Failed() bool {
	return s.Err != ""
}
