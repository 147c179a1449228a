package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/redditlens/internal/model"
)

// completedState builds a finished run with data in every section.
func completedState() *model.RunState {
	s := model.NewRunState("golang")
	s.Status = model.StatusCompleted
	s.Phase = model.PhaseDone
	s.PostsCollected = 3
	s.CommentsCollected = 5
	s.CommunityInfo = &model.CommunityInfo{Name: "golang", DisplayName: "r/golang", Subscribers: 250000}

	s.Extraction = map[string]map[string]any{
		model.SummaryKey: {
			"total_posts":       3,
			"total_comments":    5,
			"avg_post_score":    120.5,
			"avg_comment_score": 8.2,
			"unique_authors":    3,
		},
		model.CategoryScores: {
			"min": 10, "max": 300, "avg": 120.5, "median": 50.0,
			"buckets": map[string]int{"0-10": 1, "11-50": 1, "101-500": 1},
		},
		model.CategoryFlairs: {
			"flairs": map[string]any{
				"help": map[string]any{"count": 2, "percentage": 66.7, "avg_score": 30.0, "max_score": 50},
			},
			"no_flair_count": 1,
		},
		model.CategoryTiming: {
			"best_hour": map[string]any{"hour": "14:00", "avg_score": 200.0},
			"best_day":  map[string]any{"day": "Monday", "avg_score": 180.0},
		},
		model.CategoryTitles: {
			"avg_length": 42.5,
			"patterns": map[string]any{
				"question": map[string]any{"count": 2, "percentage": 66.7, "avg_score": 100.0},
				"sharing":  map[string]any{"count": 0, "percentage": 0.0, "avg_score": 0.0},
			},
		},
		model.CategoryEngagement: {
			"op_engagement": map[string]any{
				"posts_with_op_replies": 2, "op_engagement_rate": 66.7, "total_op_comments": 4,
			},
			"upvote_ratios": map[string]any{"avg_ratio": 0.92},
		},
		model.CategoryAudience: {
			"self_identifications": map[string]int{"backend developer": 2, "student": 1},
			"skill_levels":         map[string]any{"dominant": "beginner"},
			"budget_signals":       map[string]any{"profile": "price_sensitive"},
			"skepticism_level":     "medium",
		},
	}

	s.Analysis = map[string]map[string]any{
		model.SummaryKey: {
			"sentiment":          "positive",
			"pain_points_found":  4,
			"tone_formality":     "casual",
			"promotion_attitude": "hostile",
		},
		model.CategorySentiment: {"overall_sentiment": "positive"},
	}

	s.Synthesis = map[string]any{
		model.SynthesisPersonas: []any{
			map[string]any{"name": "The Learner", "description": "New to Go, asks structural questions."},
		},
		model.SynthesisInsights: []any{"help posts dominate the front page"},
		model.SynthesisReport:   "## AI Generated Section\n\nThe community skews toward learners.",
	}

	return s
}

func TestMarkdownWriterWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf, WithClock(func() time.Time {
		return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	}))

	n, err := w.Write(completedState())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n == 0 {
		t.Error("Write() reported zero bytes")
	}

	out := buf.String()
	wantFragments := []string{
		"# Community Analysis Report: r/golang",
		"2026-08-20 12:00:00 UTC",
		"## Collection Summary",
		"## Score Distribution",
		"pie",   // mermaid chart
		"14:00", // best hour
		"## Title Patterns",
		"question",
		"## Audience Profile",
		"backend developer (2)",
		"## AI Analysis",
		"positive",
		"The Learner",
		"help posts dominate the front page",
		"## AI Generated Section", // embedded verbatim
		"Report generated by",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(out, fragment) {
			t.Errorf("output missing %q", fragment)
		}
	}

	// A zero-count pattern stays out of the table.
	if strings.Contains(out, "sharing") {
		t.Error("output contains a zero-count title pattern row")
	}
	if strings.Contains(out, "Degraded Branches") {
		t.Error("output contains a degraded section for a clean run")
	}
}

func TestMarkdownWriterDegradedRun(t *testing.T) {
	t.Parallel()

	s := completedState()
	s.Errors = []string{"sentiment_analysis error: model unavailable"}
	s.Analysis[model.CategorySentiment] = map[string]any{"error": "model unavailable"}

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(s); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Degraded Branches") {
		t.Error("output missing the degraded branches section")
	}
	if !strings.Contains(out, "sentiment_analysis unavailable: model unavailable") {
		t.Error("output missing the per-category error marker")
	}
	if !strings.Contains(out, "1 pipeline branch(es) degraded") {
		t.Error("output missing the degradation warning")
	}
}

func TestMarkdownWriterFailedRun(t *testing.T) {
	t.Parallel()

	s := model.NewRunState("ghost")
	s.Status = model.StatusFailed
	s.Err = "no collection runs found for ghost"

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(s); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "The run failed: no collection runs found for ghost") {
		t.Error("output missing the failure alert")
	}
	if strings.Contains(out, "## Score Distribution") {
		t.Error("output contains data sections for a run with no data")
	}
}

func TestJSONWriterWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(completedState()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if doc["community"] != "golang" {
		t.Errorf("community = %v, want golang", doc["community"])
	}
	if doc["status"] != string(model.StatusCompleted) {
		t.Errorf("status = %v, want completed", doc["status"])
	}
	if _, ok := doc["extraction"]; !ok {
		t.Error("extraction results missing from the document")
	}
	// Raw collected records stay out of the artifact.
	if _, ok := doc["posts"]; ok {
		t.Error("document contains raw posts")
	}
}

func TestSimpleWriterWrite(t *testing.T) {
	t.Parallel()

	s := completedState()
	s.ReportPath = "output/golang.md"
	s.Errors = []string{"persona generation error: timeout"}

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(s); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, fragment := range []string{
		"Community Analysis: r/golang",
		"Posts:    3",
		"Sentiment:          positive",
		"Report: output/golang.md",
		"Degraded branches: 1",
		"persona generation error: timeout",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("output missing %q", fragment)
		}
	}
}

func TestFileWriterWrite(t *testing.T) {
	t.Parallel()

	s := completedState()
	s.OutputDir = filepath.Join(t.TempDir(), "reports")

	w := NewFileWriter(WithFileClock(func() time.Time {
		return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	}))

	path, err := w.Write(s)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	wantPath := filepath.Join(s.OutputDir, "golang_20260820_120000.md")
	if path != wantPath {
		t.Errorf("path = %q, want %q", path, wantPath)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(content), "# Community Analysis Report: r/golang") {
		t.Error("markdown report missing its header")
	}

	jsonPath := filepath.Join(s.OutputDir, "golang_20260820_120000.json")
	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("JSON artifact missing: %v", err)
	}
}

func TestFileWriterWithoutJSON(t *testing.T) {
	t.Parallel()

	s := completedState()
	s.OutputDir = t.TempDir()

	w := NewFileWriter(
		WithJSONArtifact(false),
		WithFileClock(func() time.Time {
			return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
		}),
	)

	if _, err := w.Write(s); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := os.ReadDir(s.OutputDir)
	if err != nil {
		t.Fatalf("reading output dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".md") {
		t.Errorf("output dir = %v, want only the markdown report", entries)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&first), NewJSONWriter(&second))

	if _, err := mw.Write(completedState()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if first.Len() == 0 || second.Len() == 0 {
		t.Error("one of the writers received no output")
	}
}

type failingWriter struct{}

func (failingWriter) Write(*model.RunState) (int, error) {
	return 0, errors.New("boom")
}

func TestMultiWriterStopsOnError(t *testing.T) {
	t.Parallel()

	var after bytes.Buffer
	mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))

	if _, err := mw.Write(completedState()); err == nil {
		t.Fatal("Write() error = nil, want the first writer's error")
	}
	if after.Len() != 0 {
		t.Error("later writer ran after an earlier failure")
	}
}
