package analyze

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/redditlens/internal/model"
)

// Prompt sample limits. Prompts carry only the highest-scored content to
// stay within the model's effective context.
const (
	maxPromptPosts    = 20
	maxPromptComments = 30
	maxSnippetLen     = 200
)

// buildPrompt renders the user prompt for a category. Unknown categories
// return an error so the caller can fail the category without invoking
// the model.
func buildPrompt(category string, b Bundle) (string, error) {
	switch category {
	case model.CategorySentiment:
		return sentimentPrompt(b), nil
	case model.CategoryPainPoints:
		return painPointPrompt(b), nil
	case model.CategoryTone:
		return tonePrompt(b), nil
	case model.CategoryPromotion:
		return promotionPrompt(b), nil
	case model.SynthesisPersonas:
		return personaPrompt(b), nil
	case model.SynthesisInsights:
		return insightPrompt(b), nil
	case model.SynthesisReport:
		return reportPrompt(b), nil
	default:
		return "", fmt.Errorf("analyze: unknown category %q", category)
	}
}

func communityLine(b Bundle) string {
	if b.Community == nil {
		return "an online community"
	}
	return fmt.Sprintf("%s (%d subscribers): %s",
		b.Community.DisplayName, b.Community.Subscribers, b.Community.Description)
}

func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func formatPosts(posts []model.Post) string {
	if len(posts) > maxPromptPosts {
		posts = posts[:maxPromptPosts]
	}

	var sb strings.Builder
	for i, p := range posts {
		flair := p.Flair
		if flair == "" {
			flair = "No flair"
		}
		fmt.Fprintf(&sb, "%d. [%s] %s (score: %d, comments: %d)\n", i+1, flair, p.Title, p.Score, p.NumComments)
		if body := snippet(p.SelfText, maxSnippetLen); body != "" {
			fmt.Fprintf(&sb, "   %s\n", body)
		}
	}
	return sb.String()
}

func formatComments(comments []model.Comment) string {
	if len(comments) > maxPromptComments {
		comments = comments[:maxPromptComments]
	}

	var sb strings.Builder
	for i, c := range comments {
		opTag := ""
		if c.IsSubmitter {
			opTag = " [OP]"
		}
		fmt.Fprintf(&sb, "%d.%s (score: %d) %s\n", i+1, opTag, c.Score, snippet(c.Body, maxSnippetLen))
	}
	return sb.String()
}

// formatJSON renders supporting analysis maps for synthesis prompts.
func formatJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func contentSections(b Bundle) string {
	return fmt.Sprintf("## Top Posts (by score):\n%s\n## Top Comments (by score):\n%s",
		formatPosts(b.Posts), formatComments(b.Comments))
}

func sentimentPrompt(b Bundle) string {
	return fmt.Sprintf(`Analyze the sentiment patterns in this Reddit community data.

Community: %s

%s
Provide your analysis as JSON with this structure:
{
  "overall_sentiment": "positive|negative|neutral|mixed",
  "sentiment_distribution": {"positive": <percentage>, "negative": <percentage>, "neutral": <percentage>},
  "emotional_undertones": [{"emotion": "<emotion>", "frequency": "high|medium|low", "examples": ["<example>"]}],
  "topic_sentiments": [{"topic": "<topic>", "sentiment": "<sentiment>", "notes": "<notes>"}],
  "key_observations": ["<observation>"],
  "sentiment_drivers": {"positive_drivers": ["<driver>"], "negative_drivers": ["<driver>"]}
}`, communityLine(b), contentSections(b))
}

func painPointPrompt(b Bundle) string {
	return fmt.Sprintf(`Identify the pain points users express in this Reddit community data.

Community: %s

%s
Provide your analysis as JSON with this structure:
{
  "pain_point_categories": [{"category": "<name>", "frequency": "high|medium|low", "intensity": "high|medium|low", "examples": ["<example from data>"], "underlying_need": "<what users actually need>"}],
  "top_pain_points": [{"pain_point": "<description>", "affected_users": "<who>", "current_workarounds": ["<workaround>"]}],
  "unmet_needs": ["<need>"],
  "opportunity_areas": ["<opportunity>"]
}`, communityLine(b), contentSections(b))
}

func tonePrompt(b Bundle) string {
	return fmt.Sprintf(`Analyze the tone and communication style of this Reddit community.

Community: %s

%s
Provide your analysis as JSON with this structure:
{
  "overall_tone": {"formality": "casual|informal|semi-formal|formal|academic", "friendliness": "hostile|cold|neutral|friendly|welcoming", "expertise_level": "beginner-friendly|intermediate|expert-level|mixed"},
  "communication_patterns": {"common_phrases": ["<phrase>"], "jargon_level": "none|low|medium|high", "humor_style": "<style>"},
  "writing_style_guide": {"dos": ["<do>"], "donts": ["<dont>"]},
  "example_voices": [{"style": "<style>", "sample": "<representative sample>"}]
}`, communityLine(b), contentSections(b))
}

func promotionPrompt(b Bundle) string {
	return fmt.Sprintf(`Analyze how this Reddit community receives promotional or self-promotional content.
Look for posts resembling launches, "my app", "my project", feedback requests, or sharing.

Community: %s

%s
Provide your analysis as JSON with this structure:
{
  "promotion_reception": {"overall_attitude": "welcomed|tolerated|skeptical|hostile", "best_performing_promo_type": "<type>", "worst_performing_promo_type": "<type>"},
  "successful_patterns": [{"pattern": "<what works>", "evidence": "<supporting example>"}],
  "failed_patterns": [{"pattern": "<what fails>", "evidence": "<supporting example>"}],
  "recommendations": ["<recommendation>"]
}`, communityLine(b), contentSections(b))
}

func personaPrompt(b Bundle) string {
	return fmt.Sprintf(`Generate audience personas for this Reddit community from the analysis below.

Community: %s

## Extraction statistics:
%s

## Analysis results:
%s

Provide your output as JSON with this structure:
{
  "personas": [{
    "name": "<memorable persona name>",
    "tagline": "<one line description>",
    "background": {"profession": "<job/role>", "experience_level": "beginner|intermediate|advanced|expert", "company_type": "startup|enterprise|freelance|student|hobbyist"},
    "goals": ["<goal>"],
    "frustrations": ["<frustration>"],
    "content_preferences": ["<preference>"]
  }],
  "persona_coverage": "<how much of the community these personas represent>"
}`, communityLine(b), formatJSON(b.Extraction), formatJSON(b.Analysis))
}

func insightPrompt(b Bundle) string {
	return fmt.Sprintf(`Synthesize actionable insights for engaging with this Reddit community.

Community: %s

## Analysis results:
%s

## Personas:
%s

Provide your output as JSON with this structure:
{
  "key_insights": [{"insight": "<title>", "description": "<explanation>", "evidence": ["<data point>"], "impact": "high|medium|low", "actionability": "immediate|short_term|long_term"}],
  "content_strategy": {"recommended_topics": ["<topic>"], "recommended_formats": ["<format>"], "timing_recommendations": ["<timing>"]},
  "risks": ["<risk>"]
}`, communityLine(b), formatJSON(b.Analysis), formatJSON(b.Personas))
}

func reportPrompt(b Bundle) string {
	return fmt.Sprintf(`Write a comprehensive community analysis report in Markdown.

Community: %s

## Extraction statistics:
%s

## Analysis results:
%s

## Personas:
%s

## Insights:
%s

Respond with the Markdown report only, no JSON wrapper. Structure it with
an executive summary, community profile, audience, sentiment and tone,
pain points and opportunities, promotion guidance, and recommended next
steps.`, communityLine(b),
		formatJSON(b.Extraction), formatJSON(b.Analysis),
		formatJSON(b.Personas), formatJSON(b.Insights))
}
