package engine

import (
	"context"
	"fmt"

	"github.com/nao1215/redditlens/internal/analyze"
	"github.com/nao1215/redditlens/internal/model"
)

// analysisNode builds the AI analysis node for one category. A failed
// capability call degrades that category only: the error is recorded both
// in the category result and in the run's error list, and the walk
// continues to the sibling categories.
func (e *Engine) analysisNode(category string) NodeFunc {
	return func(ctx context.Context, s *model.RunState) model.Update {
		if len(s.TopPosts) == 0 {
			return analysisError(category, "no posts available for analysis", nil)
		}

		result := e.capability.Analyze(ctx, category, analyze.Bundle{
			Community: s.CommunityInfo,
			Posts:     s.TopPosts,
			Comments:  s.TopComments,
		})

		if !result.Success {
			return analysisError(category, result.Err, &result)
		}

		return model.Update{
			Analysis: map[string]map[string]any{category: result.Data},
		}
	}
}

// analysisError records a category failure without aborting the run.
func analysisError(category, errMsg string, result *analyze.Result) model.Update {
	data := map[string]any{"error": errMsg}
	if result != nil && result.Raw != "" {
		raw := result.Raw
		if len(raw) > 500 {
			raw = raw[:500]
		}
		data["raw_response"] = raw
	}

	return model.Update{
		Analysis: map[string]map[string]any{category: data},
		Errors:   []string{fmt.Sprintf("%s error: %s", category, errMsg)},
	}
}

// mergeAnalysis validates the analysis fan-out: absent categories get an
// explicit error marker, a derived summary records which categories
// degraded, and the run advances to synthesis. Partial analysis never
// aborts the run.
func mergeAnalysis(s *model.RunState) model.Update {
	merged := make(map[string]map[string]any, len(model.AnalysisCategories)+1)

	var errors []string
	for _, category := range model.AnalysisCategories {
		result, ok := s.Analysis[category]
		if !ok {
			merged[category] = map[string]any{"error": "analysis not performed"}
			errors = append(errors, fmt.Sprintf("%s: analysis not performed", category))
			continue
		}
		if errMsg, failed := result["error"].(string); failed && errMsg != "" {
			errors = append(errors, fmt.Sprintf("%s: %s", category, errMsg))
		}
	}

	merged[model.SummaryKey] = map[string]any{
		"sentiment":          nestedString(s.Analysis, model.CategorySentiment, "overall_sentiment"),
		"pain_points_found":  nestedLen(s.Analysis, model.CategoryPainPoints, "top_pain_points"),
		"tone_formality":     nestedString(s.Analysis, model.CategoryTone, "overall_tone", "formality"),
		"promotion_attitude": nestedString(s.Analysis, model.CategoryPromotion, "promotion_reception", "overall_attitude"),
		"analysis_complete":  len(errors) == 0,
		"errors":             errors,
	}

	return model.Update{
		Analysis: merged,
		Phase:    model.PhasePtr(model.PhaseSynthesizing),
	}
}

// nestedString digs path out of one analysis category, defaulting to
// "unknown" when any level is absent or not a string.
func nestedString(analysis map[string]map[string]any, category string, path ...string) string {
	var current any = analysis[category]
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return "unknown"
		}
		current = m[key]
	}
	if s, ok := current.(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// nestedLen counts the entries of a list-valued key in one category.
func nestedLen(analysis map[string]map[string]any, category, key string) int {
	result, ok := analysis[category]
	if !ok {
		return 0
	}
	if list, ok := result[key].([]any); ok {
		return len(list)
	}
	return 0
}
