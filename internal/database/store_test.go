package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/redditlens/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// seedRun creates a community and an open collection run for it.
func seedRun(t *testing.T, db *Store, community string) (communityID, runID int64) {
	t.Helper()

	ctx := context.Background()

	communityID, err := db.GetOrCreateCommunity(ctx, model.CommunityInfo{
		Name:        community,
		DisplayName: "r/" + community,
	})
	if err != nil {
		t.Fatalf("failed to create community: %v", err)
	}

	runID, err = db.CreateCollectionRun(ctx, communityID)
	if err != nil {
		t.Fatalf("failed to create collection run: %v", err)
	}

	return communityID, runID
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, "redditlens.db")); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false requires existing database", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false

		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected an error for a missing database")
		}
	})
}

func TestStoreCheckConnection(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	if err := db.CheckConnection(context.Background()); err != nil {
		t.Errorf("CheckConnection() error = %v", err)
	}
}

func TestStoreGetOrCreateCommunity(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	id1, err := db.GetOrCreateCommunity(ctx, model.CommunityInfo{
		Name:        "golang",
		DisplayName: "r/golang",
		Description: "Go discussion",
		Subscribers: 250000,
	})
	if err != nil {
		t.Fatalf("GetOrCreateCommunity() error = %v", err)
	}

	// A name-only fallback (failed profile lookup) must not erase the
	// profile stored earlier.
	id2, err := db.GetOrCreateCommunity(ctx, model.CommunityInfo{Name: "golang", DisplayName: "r/golang"})
	if err != nil {
		t.Fatalf("GetOrCreateCommunity() second call error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("ids differ (%d, %d), want the same community", id1, id2)
	}

	info, err := db.CommunityByID(ctx, id1)
	if err != nil {
		t.Fatalf("CommunityByID() error = %v", err)
	}
	if info == nil {
		t.Fatal("CommunityByID() = nil, want the stored community")
	}
	if info.Description != "Go discussion" || info.Subscribers != 250000 {
		t.Errorf("profile = (%q, %d), want the first write preserved", info.Description, info.Subscribers)
	}

	// Fresh profile data overwrites the stored values.
	if _, err := db.GetOrCreateCommunity(ctx, model.CommunityInfo{
		Name:        "golang",
		DisplayName: "r/golang",
		Subscribers: 260000,
	}); err != nil {
		t.Fatalf("GetOrCreateCommunity() third call error = %v", err)
	}
	info, err = db.CommunityByID(ctx, id1)
	if err != nil {
		t.Fatalf("CommunityByID() error = %v", err)
	}
	if info.Subscribers != 260000 {
		t.Errorf("subscribers = %d, want the fresh count 260000", info.Subscribers)
	}
}

func TestStoreCommunityByIDUnknown(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	info, err := db.CommunityByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("CommunityByID() error = %v", err)
	}
	if info != nil {
		t.Errorf("CommunityByID() = %v, want nil for an unknown id", info)
	}
}

func TestStoreCollectionRunLifecycle(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	_, runID := seedRun(t, db, "golang")

	run, err := db.CollectionRunByID(ctx, runID)
	if err != nil {
		t.Fatalf("CollectionRunByID() error = %v", err)
	}
	if run == nil || run.Status != "running" {
		t.Fatalf("run = %v, want a running run", run)
	}
	if run.StartedAt.IsZero() {
		t.Error("StartedAt is zero, want the creation time recorded")
	}

	if err := db.CompleteCollectionRun(ctx, runID, 10, 50, ""); err != nil {
		t.Fatalf("CompleteCollectionRun() error = %v", err)
	}

	run, err = db.CollectionRunByID(ctx, runID)
	if err != nil {
		t.Fatalf("CollectionRunByID() error = %v", err)
	}
	if run.Status != "completed" {
		t.Errorf("Status = %q, want completed", run.Status)
	}
	if run.PostsCollected != 10 || run.CommentsCollected != 50 {
		t.Errorf("counts = (%d, %d), want (10, 50)", run.PostsCollected, run.CommentsCollected)
	}
	if run.CompletedAt.IsZero() {
		t.Error("CompletedAt is zero, want the completion time recorded")
	}
}

func TestStoreCompleteCollectionRunFailed(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	_, runID := seedRun(t, db, "golang")

	if err := db.CompleteCollectionRun(ctx, runID, 3, 0, "disk full"); err != nil {
		t.Fatalf("CompleteCollectionRun() error = %v", err)
	}

	run, err := db.CollectionRunByID(ctx, runID)
	if err != nil {
		t.Fatalf("CollectionRunByID() error = %v", err)
	}
	if run.Status != "failed" || run.ErrorMessage != "disk full" {
		t.Errorf("run = (%q, %q), want a failed run with the error kept", run.Status, run.ErrorMessage)
	}
}

func TestStoreLatestCollectionRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	communityID, first := seedRun(t, db, "golang")

	if err := db.CompleteCollectionRun(ctx, first, 5, 10, ""); err != nil {
		t.Fatalf("CompleteCollectionRun() error = %v", err)
	}

	second, err := db.CreateCollectionRun(ctx, communityID)
	if err != nil {
		t.Fatalf("CreateCollectionRun() error = %v", err)
	}
	if err := db.CompleteCollectionRun(ctx, second, 8, 20, ""); err != nil {
		t.Fatalf("CompleteCollectionRun() error = %v", err)
	}

	// A later failed run must not shadow the completed ones.
	third, err := db.CreateCollectionRun(ctx, communityID)
	if err != nil {
		t.Fatalf("CreateCollectionRun() error = %v", err)
	}
	if err := db.CompleteCollectionRun(ctx, third, 0, 0, "network down"); err != nil {
		t.Fatalf("CompleteCollectionRun() error = %v", err)
	}

	run, err := db.LatestCollectionRun(ctx, "golang")
	if err != nil {
		t.Fatalf("LatestCollectionRun() error = %v", err)
	}
	if run == nil {
		t.Fatal("LatestCollectionRun() = nil, want the newest completed run")
	}
	if run.ID != second {
		t.Errorf("run.ID = %d, want %d (newest completed)", run.ID, second)
	}

	missing, err := db.LatestCollectionRun(ctx, "nocommunity")
	if err != nil {
		t.Fatalf("LatestCollectionRun() error = %v", err)
	}
	if missing != nil {
		t.Errorf("LatestCollectionRun() = %v, want nil for an unknown community", missing)
	}
}

func TestStorePostsRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	communityID, runID := seedRun(t, db, "golang")

	posts := []model.Post{
		{
			RedditID:    "p1",
			Title:       "How to structure a service?",
			SelfText:    "Details inside.",
			Author:      "gopher1",
			Score:       42,
			UpvoteRatio: 0.97,
			NumComments: 7,
			Flair:       "help",
			IsSelf:      true,
			Permalink:   "/r/golang/comments/p1",
			CreatedUTC:  time.Date(2026, 8, 10, 14, 30, 0, 0, time.UTC),
		},
		{RedditID: "p2", Title: "Link post", Author: "gopher2", Score: 5},
	}

	if err := db.InsertPosts(ctx, runID, communityID, posts); err != nil {
		t.Fatalf("InsertPosts() error = %v", err)
	}

	got, err := db.PostsOfRun(ctx, runID)
	if err != nil {
		t.Fatalf("PostsOfRun() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d posts, want 2", len(got))
	}

	p := got[0]
	if p.RedditID != "p1" || p.Title != "How to structure a service?" || !p.IsSelf {
		t.Errorf("post = %+v, want the stored fields back", p)
	}
	if !p.CreatedUTC.Equal(time.Date(2026, 8, 10, 14, 30, 0, 0, time.UTC)) {
		t.Errorf("CreatedUTC = %v, want the stored time back", p.CreatedUTC)
	}
	if !got[1].CreatedUTC.IsZero() {
		t.Errorf("CreatedUTC = %v, want zero preserved for a missing timestamp", got[1].CreatedUTC)
	}

	// Re-inserting the same reddit_id in the same run updates in place.
	posts[0].Score = 100
	if err := db.InsertPosts(ctx, runID, communityID, posts[:1]); err != nil {
		t.Fatalf("InsertPosts() second call error = %v", err)
	}
	got, err = db.PostsOfRun(ctx, runID)
	if err != nil {
		t.Fatalf("PostsOfRun() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d posts after upsert, want 2", len(got))
	}
	if got[0].Score != 100 {
		t.Errorf("score = %d, want the upserted value 100", got[0].Score)
	}
}

func TestStoreCommentsRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	_, runID := seedRun(t, db, "golang")

	comments := []model.Comment{
		{RedditID: "c1", PostID: "p1", Author: "gopher3", Body: "Nice.", Score: 8, Depth: 0},
		{RedditID: "c2", PostID: "p1", ParentID: "c1", Author: "gopher1", Body: "Thanks!", Score: 2, Depth: 1, IsSubmitter: true},
	}

	if err := db.InsertComments(ctx, runID, comments); err != nil {
		t.Fatalf("InsertComments() error = %v", err)
	}

	got, err := db.CommentsOfRun(ctx, runID)
	if err != nil {
		t.Fatalf("CommentsOfRun() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d comments, want 2", len(got))
	}
	if got[1].ParentID != "c1" || !got[1].IsSubmitter || got[1].Depth != 1 {
		t.Errorf("comment = %+v, want tree fields preserved", got[1])
	}
	if got[0].ParentID != "" {
		t.Errorf("ParentID = %q, want empty for a top-level comment", got[0].ParentID)
	}
}

func TestStoreAnalysisResults(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	_, runID := seedRun(t, db, "golang")

	first := map[string]map[string]any{
		"sentiment_analysis":  {"overall_sentiment": "positive"},
		"pain_point_analysis": {"top_pain_points": []any{"slow builds"}},
	}
	if err := db.UpsertAnalysisResult(ctx, runID, first); err != nil {
		t.Fatalf("UpsertAnalysisResult() error = %v", err)
	}

	// Re-analysis overwrites only the supplied categories.
	second := map[string]map[string]any{
		"sentiment_analysis": {"overall_sentiment": "mixed"},
	}
	if err := db.UpsertAnalysisResult(ctx, runID, second); err != nil {
		t.Fatalf("UpsertAnalysisResult() second call error = %v", err)
	}

	got, err := db.AnalysisResults(ctx, runID)
	if err != nil {
		t.Fatalf("AnalysisResults() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d categories, want 2", len(got))
	}
	if got["sentiment_analysis"]["overall_sentiment"] != "mixed" {
		t.Errorf("sentiment = %v, want the overwritten value", got["sentiment_analysis"])
	}
	if _, ok := got["pain_point_analysis"]; !ok {
		t.Error("pain_point_analysis was lost by a partial re-analysis")
	}
}

func TestStoreAudienceAnalysis(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	_, runID := seedRun(t, db, "golang")

	audience := map[string]any{"skepticism_level": "medium"}
	personas := []any{map[string]any{"name": "The Learner"}}

	if err := db.UpsertAudienceAnalysis(ctx, runID, audience, personas); err != nil {
		t.Fatalf("UpsertAudienceAnalysis() error = %v", err)
	}

	// A second write without personas keeps the earlier personas.
	if err := db.UpsertAudienceAnalysis(ctx, runID, map[string]any{"skepticism_level": "high"}, nil); err != nil {
		t.Fatalf("UpsertAudienceAnalysis() second call error = %v", err)
	}

	var audienceJSON, personasJSON string
	err := db.db.QueryRowContext(ctx,
		`SELECT audience_json, COALESCE(personas_json, '') FROM audience_analyses WHERE run_id = ?`, runID,
	).Scan(&audienceJSON, &personasJSON)
	if err != nil {
		t.Fatalf("querying audience row: %v", err)
	}
	if personasJSON == "" {
		t.Error("personas were erased by a personas-free update")
	}
	if audienceJSON == "" || audienceJSON == "{}" {
		t.Errorf("audience_json = %q, want the updated profile", audienceJSON)
	}
}

func TestStoreReports(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	_, runID := seedRun(t, db, "golang")

	content, err := db.LatestReport(ctx, runID)
	if err != nil {
		t.Fatalf("LatestReport() error = %v", err)
	}
	if content != "" {
		t.Errorf("LatestReport() = %q, want empty before any report exists", content)
	}

	if _, err := db.InsertReport(ctx, runID, "community_summary", "# First", map[string]any{"community": "golang"}); err != nil {
		t.Fatalf("InsertReport() error = %v", err)
	}
	if _, err := db.InsertReport(ctx, runID, "community_summary", "# Second", nil); err != nil {
		t.Fatalf("InsertReport() second call error = %v", err)
	}

	content, err = db.LatestReport(ctx, runID)
	if err != nil {
		t.Fatalf("LatestReport() error = %v", err)
	}
	if content != "# Second" {
		t.Errorf("LatestReport() = %q, want the newest report", content)
	}

	reports, err := db.ReportsOfRun(ctx, runID)
	if err != nil {
		t.Fatalf("ReportsOfRun() error = %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("ReportsOfRun() returned %d reports, want 2", len(reports))
	}
	if reports[0].Content != "# Second" {
		t.Errorf("ReportsOfRun()[0].Content = %q, want the newest first", reports[0].Content)
	}
	if reports[1].Type != "community_summary" {
		t.Errorf("ReportsOfRun()[1].Type = %q, want community_summary", reports[1].Type)
	}
}

func TestStoreListCollectionRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	_, golangRun := seedRun(t, db, "golang")
	if err := db.CompleteCollectionRun(ctx, golangRun, 5, 10, ""); err != nil {
		t.Fatalf("CompleteCollectionRun() error = %v", err)
	}
	_, rustRun := seedRun(t, db, "rust")
	if err := db.CompleteCollectionRun(ctx, rustRun, 3, 6, ""); err != nil {
		t.Fatalf("CompleteCollectionRun() error = %v", err)
	}

	all, err := db.ListCollectionRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListCollectionRuns() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d runs, want 2", len(all))
	}

	filtered, err := db.ListCollectionRuns(ctx, "golang", 10)
	if err != nil {
		t.Fatalf("ListCollectionRuns() filtered error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].Community != "golang" {
		t.Errorf("filtered = %v, want one golang run", filtered)
	}
	if filtered[0].Run.PostsCollected != 5 {
		t.Errorf("PostsCollected = %d, want 5", filtered[0].Run.PostsCollected)
	}
}
