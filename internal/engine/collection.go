package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/nao1215/redditlens/internal/model"
)

// initNode validates the run inputs and verifies the store is reachable.
// Failures here are fatal: the post-init router aborts the run.
func (e *Engine) initNode(ctx context.Context, s *model.RunState) model.Update {
	if s.Community == "" {
		return model.Update{
			Status: model.StatusPtr(model.StatusFailed),
			Err:    "no community name provided",
		}
	}

	if err := e.store.CheckConnection(ctx); err != nil {
		return model.Update{
			Status: model.StatusPtr(model.StatusFailed),
			Err:    fmt.Sprintf("store unreachable: %v", err),
		}
	}

	return model.Update{
		Status: model.StatusPtr(model.StatusRunning),
		Phase:  model.PhasePtr(model.PhaseInit),
	}
}

// fetchPostsNode collects posts across the configured sort strategies,
// orders them by score, and carves out the top subset for AI analysis.
func (e *Engine) fetchPostsNode(ctx context.Context, s *model.RunState) model.Update {
	cfg := s.Collection

	limitPerSort := cfg.PostsLimit / max(len(cfg.SortMethods), 1)
	if limitPerSort < minPostsPerSort {
		limitPerSort = minPostsPerSort
	}

	posts, err := e.collector.MultiSortPosts(ctx, s.Community, cfg.SortMethods, limitPerSort, cfg.TimeFilter)
	if err != nil {
		return model.Update{
			Phase:  model.PhasePtr(model.PhaseCollecting),
			Err:    fmt.Sprintf("failed to fetch posts: %v", err),
			Errors: []string{fmt.Sprintf("post fetch error: %v", err)},
		}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Score > posts[j].Score
	})
	if len(posts) > cfg.PostsLimit {
		posts = posts[:cfg.PostsLimit]
	}

	return model.Update{
		Phase:          model.PhasePtr(model.PhaseCollecting),
		Posts:          posts,
		TopPosts:       topN(posts, topPostsLimit),
		PostsCollected: model.IntPtr(len(posts)),
	}
}

// fetchCommentsNode collects comments for the top posts. Per-post failures
// are absorbed by the collector; only a batch-level failure is fatal.
func (e *Engine) fetchCommentsNode(ctx context.Context, s *model.RunState) model.Update {
	if len(s.TopPosts) == 0 {
		return model.Update{
			Comments:          []model.Comment{},
			TopComments:       []model.Comment{},
			CommentsCollected: model.IntPtr(0),
		}
	}

	comments, err := e.collector.CommentsForPosts(ctx, s.Community, s.TopPosts, s.Collection.CommentsPerPost)
	if err != nil {
		return model.Update{
			Err:               fmt.Sprintf("failed to fetch comments: %v", err),
			Errors:            []string{fmt.Sprintf("comment fetch error: %v", err)},
			Comments:          []model.Comment{},
			TopComments:       []model.Comment{},
			CommentsCollected: model.IntPtr(0),
		}
	}

	// The collector returns comments sorted by score.
	return model.Update{
		Comments:          comments,
		TopComments:       topN(comments, topCommentsLimit),
		CommentsCollected: model.IntPtr(len(comments)),
	}
}

// storeToDBNode persists the collected data: community record, collection
// run, posts, and comments. The collection run is finished exactly once,
// as completed on success or failed when a write breaks partway.
func (e *Engine) storeToDBNode(ctx context.Context, s *model.RunState) model.Update {
	info := model.CommunityInfo{Name: s.Community, DisplayName: "r/" + s.Community}
	if about, err := e.collector.CommunityAbout(ctx, s.Community); err == nil && about != nil {
		info = *about
	} else if err != nil {
		e.logger.Warn("community profile lookup failed, storing name only",
			"community", s.Community, "error", err)
	}

	communityID, err := e.store.GetOrCreateCommunity(ctx, info)
	if err != nil {
		return storeFailure("failed to store community", err)
	}
	info.ID = communityID

	runID, err := e.store.CreateCollectionRun(ctx, communityID)
	if err != nil {
		return storeFailure("failed to create collection run", err)
	}

	if err := e.store.InsertPosts(ctx, runID, communityID, s.Posts); err != nil {
		e.failRun(ctx, runID, s, err)
		return storeFailure("failed to store posts", err)
	}
	if err := e.store.InsertComments(ctx, runID, s.Comments); err != nil {
		e.failRun(ctx, runID, s, err)
		return storeFailure("failed to store comments", err)
	}

	if err := e.store.CompleteCollectionRun(ctx, runID, len(s.Posts), len(s.Comments), ""); err != nil {
		return storeFailure("failed to complete collection run", err)
	}

	return model.Update{
		CommunityID:   model.Int64Ptr(communityID),
		RunID:         model.Int64Ptr(runID),
		CommunityInfo: &info,
	}
}

// failRun finishes a collection run as failed after a partial write. Best
// effort: the original error is what the caller reports.
func (e *Engine) failRun(ctx context.Context, runID int64, s *model.RunState, cause error) {
	if err := e.store.CompleteCollectionRun(ctx, runID, len(s.Posts), len(s.Comments), cause.Error()); err != nil {
		e.logger.Warn("could not mark collection run failed", "run_id", runID, "error", err)
	}
}

func storeFailure(msg string, err error) model.Update {
	return model.Update{
		Err:    fmt.Sprintf("%s: %v", msg, err),
		Errors: []string{fmt.Sprintf("database store error: %v", err)},
	}
}

// loadExistingNode loads a stored collection run instead of collecting.
// A missing run or community is a fatal input error: the run ends failed.
func (e *Engine) loadExistingNode(ctx context.Context, s *model.RunState) model.Update {
	var (
		run *model.CollectionRun
		err error
	)

	if s.ExistingRunID != 0 {
		run, err = e.store.CollectionRunByID(ctx, s.ExistingRunID)
		if err != nil {
			return model.Update{Err: fmt.Sprintf("failed to load collection run %d: %v", s.ExistingRunID, err)}
		}
		if run == nil {
			return model.Update{Err: fmt.Sprintf("collection run %d not found", s.ExistingRunID)}
		}
	} else {
		run, err = e.store.LatestCollectionRun(ctx, s.Community)
		if err != nil {
			return model.Update{Err: fmt.Sprintf("failed to look up runs for %s: %v", s.Community, err)}
		}
		if run == nil {
			return model.Update{Err: fmt.Sprintf("no collection runs found for %s", s.Community)}
		}
	}

	info, err := e.store.CommunityByID(ctx, run.CommunityID)
	if err != nil {
		return model.Update{Err: fmt.Sprintf("failed to load community %d: %v", run.CommunityID, err)}
	}

	posts, err := e.store.PostsOfRun(ctx, run.ID)
	if err != nil {
		return model.Update{Err: fmt.Sprintf("failed to load posts of run %d: %v", run.ID, err)}
	}
	comments, err := e.store.CommentsOfRun(ctx, run.ID)
	if err != nil {
		return model.Update{Err: fmt.Sprintf("failed to load comments of run %d: %v", run.ID, err)}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Score > posts[j].Score
	})
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Score > comments[j].Score
	})

	return model.Update{
		Phase:             model.PhasePtr(model.PhaseExtracting),
		RunID:             model.Int64Ptr(run.ID),
		CommunityID:       model.Int64Ptr(run.CommunityID),
		CommunityInfo:     info,
		Posts:             posts,
		Comments:          comments,
		TopPosts:          topN(posts, topPostsLimit),
		TopComments:       topN(comments, topCommentsLimit),
		PostsCollected:    model.IntPtr(len(posts)),
		CommentsCollected: model.IntPtr(len(comments)),
	}
}

// outputNode persists whatever analysis the run produced, writes the
// report artifacts, and settles the final status. Save failures degrade
// the output; they never flip a completed run to failed.
func (e *Engine) outputNode(ctx context.Context, s *model.RunState) model.Update {
	update := model.Update{
		Phase: model.PhasePtr(model.PhaseDone),
	}

	if s.Failed() {
		update.Status = model.StatusPtr(model.StatusFailed)
		return update
	}

	update.Status = model.StatusPtr(model.StatusCompleted)

	if s.RunID != 0 {
		if err := e.saveAnalysis(ctx, s); err != nil {
			update.Errors = append(update.Errors, fmt.Sprintf("failed to save analysis: %v", err))
		}
	}

	if e.writer != nil {
		path, err := e.writer.Write(s)
		if err != nil {
			update.Errors = append(update.Errors, fmt.Sprintf("failed to write report: %v", err))
		} else {
			update.ReportPath = path
		}
	}

	return update
}

// saveAnalysis stores the extraction, analysis, audience, and report
// artifacts for the run. Each store call is its own transaction; an
// earlier committed write survives a later failure.
func (e *Engine) saveAnalysis(ctx context.Context, s *model.RunState) error {
	categories := make(map[string]map[string]any, len(s.Extraction)+len(s.Analysis))
	for k, v := range s.Extraction {
		if k != model.SummaryKey {
			categories[k] = v
		}
	}
	for k, v := range s.Analysis {
		if k != model.SummaryKey {
			categories[k] = v
		}
	}
	if len(categories) > 0 {
		if err := e.store.UpsertAnalysisResult(ctx, s.RunID, categories); err != nil {
			return err
		}
	}

	if audience, ok := s.Extraction[model.CategoryAudience]; ok && len(audience) > 0 {
		personas := s.Synthesis[model.SynthesisPersonas]
		if err := e.store.UpsertAudienceAnalysis(ctx, s.RunID, audience, personas); err != nil {
			return err
		}
	}

	if content, ok := s.Synthesis[model.SynthesisReport].(string); ok && content != "" {
		metadata := map[string]any{
			"run":       s.ID,
			"community": s.Community,
		}
		if _, err := e.store.InsertReport(ctx, s.RunID, "community_summary", content, metadata); err != nil {
			return err
		}
	}

	return nil
}

// failNode is the failure terminal.
func failNode(_ context.Context, _ *model.RunState) model.Update {
	return model.Update{
		Status: model.StatusPtr(model.StatusFailed),
		Phase:  model.PhasePtr(model.PhaseDone),
	}
}

// topN returns the first n elements without copying the backing array.
func topN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
