package engine

import (
	"context"
	"fmt"

	"github.com/nao1215/redditlens/internal/analyze"
	"github.com/nao1215/redditlens/internal/model"
)

// The synthesis stage runs personas -> insights -> report, each stage
// consuming the previous ones. A failed stage leaves an explicit empty
// value so later stages and the output render degrade instead of failing.

func (e *Engine) generatePersonasNode(ctx context.Context, s *model.RunState) model.Update {
	result := e.capability.Analyze(ctx, model.SynthesisPersonas, analyze.Bundle{
		Community:  s.CommunityInfo,
		Extraction: s.Extraction,
		Analysis:   s.Analysis,
	})

	if !result.Success {
		return model.Update{
			Synthesis: map[string]any{model.SynthesisPersonas: []any{}},
			Errors:    []string{fmt.Sprintf("persona generation error: %s", result.Err)},
		}
	}

	personas, _ := result.Data["personas"].([]any)
	if personas == nil {
		personas = []any{}
	}

	return model.Update{
		Synthesis: map[string]any{model.SynthesisPersonas: personas},
	}
}

func (e *Engine) generateInsightsNode(ctx context.Context, s *model.RunState) model.Update {
	personas := s.Synthesis[model.SynthesisPersonas]

	result := e.capability.Analyze(ctx, model.SynthesisInsights, analyze.Bundle{
		Community:  s.CommunityInfo,
		Extraction: s.Extraction,
		Analysis:   s.Analysis,
		Personas:   personas,
	})

	if !result.Success {
		return model.Update{
			Synthesis: map[string]any{model.SynthesisInsights: []any{}},
			Errors:    []string{fmt.Sprintf("insight generation error: %s", result.Err)},
		}
	}

	insights, _ := result.Data["key_insights"].([]any)
	if insights == nil {
		insights = []any{}
	}

	synthesis := map[string]any{model.SynthesisInsights: insights}
	for _, key := range []string{"content_strategy", "risks"} {
		if v, ok := result.Data[key]; ok {
			synthesis[key] = v
		}
	}

	return model.Update{Synthesis: synthesis}
}

func (e *Engine) generateReportNode(ctx context.Context, s *model.RunState) model.Update {
	personas := s.Synthesis[model.SynthesisPersonas]
	insights := s.Synthesis[model.SynthesisInsights]

	result := e.capability.Analyze(ctx, model.SynthesisReport, analyze.Bundle{
		Community:  s.CommunityInfo,
		Extraction: s.Extraction,
		Analysis:   s.Analysis,
		Personas:   personas,
		Insights:   insights,
	})

	if !result.Success {
		return model.Update{
			Phase:     model.PhasePtr(model.PhaseOutputting),
			Synthesis: map[string]any{model.SynthesisReport: ""},
			Errors:    []string{fmt.Sprintf("report generation error: %s", result.Err)},
		}
	}

	content, _ := result.Data["markdown"].(string)

	return model.Update{
		Phase:     model.PhasePtr(model.PhaseOutputting),
		Synthesis: map[string]any{model.SynthesisReport: content},
	}
}
