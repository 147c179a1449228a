package analyze

import (
	"context"

	"github.com/nao1215/redditlens/internal/model"
)

// Bundle carries the data an analysis category may draw on. Categories
// ignore the fields they do not need: the sentiment categories read posts
// and comments, the synthesis categories read the accumulated analysis
// maps instead.
type Bundle struct {
	// Community is the profile of the community under analysis.
	Community *model.CommunityInfo

	// Posts and Comments are the collected content, already sorted by
	// score so prompt truncation keeps the highest-signal samples.
	Posts    []model.Post
	Comments []model.Comment

	// Extraction holds the statistical extraction results by category.
	Extraction map[string]map[string]any

	// Analysis holds the completed analysis results by category.
	Analysis map[string]map[string]any

	// Personas and Insights hold earlier synthesis stages for the
	// categories that build on them. Both are JSON-shaped values
	// (typically lists of objects) produced by prior categories.
	Personas any
	Insights any
}

// Result is the outcome of one analysis category. A failed category
// reports its error in Err rather than aborting the caller: downstream
// merging degrades gracefully around missing categories.
type Result struct {
	// Success reports whether Data holds a usable analysis.
	Success bool

	// Data is the structured analysis payload.
	Data map[string]any

	// Raw is the unparsed model output, kept for diagnostics.
	Raw string

	// Err describes the failure when Success is false.
	Err string
}

// Capability produces an analysis for one category. Implementations must
// not panic: failures are reported through the Result.
type Capability interface {
	Analyze(ctx context.Context, category string, bundle Bundle) Result
}
