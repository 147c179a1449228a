package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/redditlens/internal/analyze"
	"github.com/nao1215/redditlens/internal/model"
)

// Node names. The graph wiring below is the single fixed topology every
// run walks.
const (
	nodeInit            = "init"
	nodeCheckCollection = "check_collection"
	nodeFetchPosts      = "fetch_posts"
	nodeFetchComments   = "fetch_comments"
	nodeStoreToDB       = "store_to_db"
	nodeLoadExisting    = "load_existing"

	nodeExtractScores     = "extract_scores"
	nodeExtractFlairs     = "extract_flairs"
	nodeExtractTiming     = "extract_timing"
	nodeExtractTitles     = "extract_titles"
	nodeExtractEngagement = "extract_engagement"
	nodeExtractAudience   = "extract_audience"
	nodeMergeExtraction   = "merge_extraction"

	nodeCheckAI          = "check_ai"
	nodeAnalyzeSentiment = "analyze_sentiment"
	nodeAnalyzePain      = "analyze_pain_points"
	nodeAnalyzeTone      = "analyze_tone"
	nodeAnalyzePromotion = "analyze_promotion"
	nodeMergeAnalysis    = "merge_analysis"

	nodeGeneratePersonas = "generate_personas"
	nodeGenerateInsights = "generate_insights"
	nodeGenerateReport   = "generate_report"

	nodeOutput = "output"
	nodeFail   = "fail"
)

// Sizes of the high-signal subsets handed to the AI analysis stage.
const (
	topPostsLimit    = 20
	topCommentsLimit = 50
)

// minPostsPerSort keeps each sort strategy's page worth fetching even when
// the total budget divided by the strategy count would be tiny.
const minPostsPerSort = 25

// Collector is the collection client surface the engine consumes.
type Collector interface {
	MultiSortPosts(ctx context.Context, subreddit string, sortMethods []string, limitPerSort int, timeFilter string) ([]model.Post, error)
	CommentsForPosts(ctx context.Context, subreddit string, posts []model.Post, perPost int) ([]model.Comment, error)
	CommunityAbout(ctx context.Context, subreddit string) (*model.CommunityInfo, error)
}

// Store is the persistence surface the engine consumes.
type Store interface {
	CheckConnection(ctx context.Context) error

	GetOrCreateCommunity(ctx context.Context, info model.CommunityInfo) (int64, error)
	CreateCollectionRun(ctx context.Context, communityID int64) (int64, error)
	CompleteCollectionRun(ctx context.Context, runID int64, posts, comments int, errMsg string) error
	InsertPosts(ctx context.Context, runID, communityID int64, posts []model.Post) error
	InsertComments(ctx context.Context, runID int64, comments []model.Comment) error

	CollectionRunByID(ctx context.Context, id int64) (*model.CollectionRun, error)
	LatestCollectionRun(ctx context.Context, community string) (*model.CollectionRun, error)
	CommunityByID(ctx context.Context, id int64) (*model.CommunityInfo, error)
	PostsOfRun(ctx context.Context, runID int64) ([]model.Post, error)
	CommentsOfRun(ctx context.Context, runID int64) ([]model.Comment, error)

	UpsertAnalysisResult(ctx context.Context, runID int64, categories map[string]map[string]any) error
	UpsertAudienceAnalysis(ctx context.Context, runID int64, audience map[string]any, personas any) error
	InsertReport(ctx context.Context, runID int64, reportType, content string, metadata map[string]any) (int64, error)
}

// ReportWriter writes the run's report artifacts to disk and returns the
// path of the primary report file.
type ReportWriter interface {
	Write(state *model.RunState) (string, error)
}

// Engine runs the analysis pipeline for one community at a time. The
// graph topology is fixed and validated once, at construction.
type Engine struct {
	collector  Collector
	store      Store
	capability analyze.Capability
	writer     ReportWriter
	logger     *slog.Logger
	graph      *Graph
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine and validates its graph wiring. A wiring defect is
// a programming error and surfaces here, never at run time.
func New(collector Collector, store Store, capability analyze.Capability, writer ReportWriter, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		collector:  collector,
		store:      store,
		capability: capability,
		writer:     writer,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	g, err := e.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("engine: building graph: %w", err)
	}
	e.graph = g

	return e, nil
}

// buildGraph assembles the fixed pipeline topology.
func (e *Engine) buildGraph() (*Graph, error) {
	g := NewGraph(nodeInit, WithGraphLogger(e.logger))

	nodes := []struct {
		name string
		fn   NodeFunc
	}{
		{nodeInit, e.initNode},
		{nodeCheckCollection, passthroughNode},
		{nodeFetchPosts, e.fetchPostsNode},
		{nodeFetchComments, e.fetchCommentsNode},
		{nodeStoreToDB, e.storeToDBNode},
		{nodeLoadExisting, e.loadExistingNode},

		{nodeExtractScores, scriptNode(extractScores)},
		{nodeExtractFlairs, scriptNode(extractFlairs)},
		{nodeExtractTiming, scriptNode(extractTiming)},
		{nodeExtractTitles, scriptNode(extractTitles)},
		{nodeExtractEngagement, scriptNode(extractEngagement)},
		{nodeExtractAudience, scriptNode(extractAudience)},
		{nodeMergeExtraction, scriptNode(mergeExtraction)},

		{nodeCheckAI, passthroughNode},
		{nodeAnalyzeSentiment, e.analysisNode(model.CategorySentiment)},
		{nodeAnalyzePain, e.analysisNode(model.CategoryPainPoints)},
		{nodeAnalyzeTone, e.analysisNode(model.CategoryTone)},
		{nodeAnalyzePromotion, e.analysisNode(model.CategoryPromotion)},
		{nodeMergeAnalysis, scriptNode(mergeAnalysis)},

		{nodeGeneratePersonas, e.generatePersonasNode},
		{nodeGenerateInsights, e.generateInsightsNode},
		{nodeGenerateReport, e.generateReportNode},

		{nodeOutput, e.outputNode},
		{nodeFail, failNode},
	}

	for _, n := range nodes {
		if err := g.AddNode(n.name, n.fn); err != nil {
			return nil, err
		}
	}

	g.AddRouter(nodeInit, checkErrors, map[Label]string{
		LabelContinue: nodeCheckCollection,
		LabelAbort:    nodeFail,
	})
	g.AddRouter(nodeCheckCollection, shouldCollect, map[Label]string{
		LabelCollect:      nodeFetchPosts,
		LabelLoadExisting: nodeLoadExisting,
	})

	g.AddEdge(nodeFetchPosts, nodeFetchComments)
	g.AddEdge(nodeFetchComments, nodeStoreToDB)
	g.AddEdge(nodeStoreToDB, nodeExtractScores)
	g.AddEdge(nodeLoadExisting, nodeExtractScores)

	g.AddEdge(nodeExtractScores, nodeExtractFlairs)
	g.AddEdge(nodeExtractFlairs, nodeExtractTiming)
	g.AddEdge(nodeExtractTiming, nodeExtractTitles)
	g.AddEdge(nodeExtractTitles, nodeExtractEngagement)
	g.AddEdge(nodeExtractEngagement, nodeExtractAudience)
	g.AddEdge(nodeExtractAudience, nodeMergeExtraction)
	g.AddEdge(nodeMergeExtraction, nodeCheckAI)

	g.AddRouter(nodeCheckAI, shouldRunAI, map[Label]string{
		LabelAnalyze:      nodeAnalyzeSentiment,
		LabelSkipToOutput: nodeOutput,
	})

	g.AddEdge(nodeAnalyzeSentiment, nodeAnalyzePain)
	g.AddEdge(nodeAnalyzePain, nodeAnalyzeTone)
	g.AddEdge(nodeAnalyzeTone, nodeAnalyzePromotion)
	g.AddEdge(nodeAnalyzePromotion, nodeMergeAnalysis)

	g.AddEdge(nodeMergeAnalysis, nodeGeneratePersonas)
	g.AddEdge(nodeGeneratePersonas, nodeGenerateInsights)
	g.AddEdge(nodeGenerateInsights, nodeGenerateReport)
	g.AddEdge(nodeGenerateReport, nodeOutput)

	g.AddEdge(nodeOutput, End)
	g.AddEdge(nodeFail, End)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Run executes the full pipeline for one community and returns the final
// state. The returned error covers only engine-level defects and context
// cancellation; run-level failures are reported through the state.
func (e *Engine) Run(ctx context.Context, community string, opts ...model.RunOption) (*model.RunState, error) {
	state := model.NewRunState(community, opts...)

	e.logger.Info("starting analysis run",
		"run", state.ID,
		"community", community,
		"skip_collection", state.SkipCollection,
		"skip_ai", state.SkipAI,
	)

	if err := e.graph.Run(ctx, state); err != nil {
		return state, err
	}

	e.logger.Info("analysis run finished",
		"run", state.ID,
		"community", community,
		"status", state.Status,
		"posts", state.PostsCollected,
		"comments", state.CommentsCollected,
		"degraded_branches", len(state.Errors),
	)

	return state, nil
}

// passthroughNode anchors a router without changing the state.
func passthroughNode(context.Context, *model.RunState) model.Update {
	return model.Update{}
}

// scriptNode lifts a context-free script function into a NodeFunc.
func scriptNode(fn func(*model.RunState) model.Update) NodeFunc {
	return func(_ context.Context, s *model.RunState) model.Update {
		return fn(s)
	}
}

// checkErrors aborts the run when a fatal error is already set, or when
// collection finished with zero items.
func checkErrors(s *model.RunState) Label {
	if s.Failed() {
		return LabelAbort
	}
	if s.Phase == model.PhaseCollecting && s.PostsCollected == 0 {
		return LabelAbort
	}
	return LabelContinue
}

// shouldCollect chooses between fresh collection and a stored run.
func shouldCollect(s *model.RunState) Label {
	if s.SkipCollection || s.ExistingRunID != 0 {
		return LabelLoadExisting
	}
	return LabelCollect
}

// shouldRunAI gates the analysis stage: skipped when disabled by the
// caller or when there is nothing to analyze.
func shouldRunAI(s *model.RunState) Label {
	if s.SkipAI || len(s.Posts) == 0 {
		return LabelSkipToOutput
	}
	return LabelAnalyze
}
