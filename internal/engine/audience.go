package engine

import (
	"regexp"
	"strings"

	"github.com/nao1215/redditlens/internal/model"
)

// titlePatterns detect recurring title shapes. Used by extractTitles.
var titlePatterns = map[string]*regexp.Regexp{
	"question":      regexp.MustCompile(`\?`),
	"exclamation":   regexp.MustCompile(`!`),
	"all_caps_word": regexp.MustCompile(`\b[A-Z]{2,}\b`),
	"number":        regexp.MustCompile(`\d+`),
	"brackets":      regexp.MustCompile(`[\[\]()]`),
	"how_to":        regexp.MustCompile(`(?i)how\s+to`),
	"asking_help":   regexp.MustCompile(`(?i)(help|please|need|looking for)`),
	"sharing":       regexp.MustCompile(`(?i)(i made|i built|i created|just finished|check out)`),
	"meta":          regexp.MustCompile(`(?i)(meta|announcement|mod|rule)`),
}

// Audience extraction patterns. Each group feeds one facet of the
// audience profile; categories tag what a match means, not what matched.
var (
	selfIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)i(?:'m| am) an? (\w+(?:\s+\w+)?)`),
		regexp.MustCompile(`(?i)as an? (\w+(?:\s+\w+)?)`),
		regexp.MustCompile(`(?i)i work as an? (\w+(?:\s+\w+)?)`),
	}

	skillPatterns = map[string]*regexp.Regexp{
		"beginner":     regexp.MustCompile(`(?i)\b(beginner|newbie|noob|just started|new to)\b`),
		"intermediate": regexp.MustCompile(`(?i)\b(intermediate|some experience|learning)\b`),
		"advanced":     regexp.MustCompile(`(?i)\b(advanced|experienced|senior|expert|professional)\b`),
		"experienced":  regexp.MustCompile(`(?i)\b(years? of experience|been doing this for)\b`),
	}

	goalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:want|trying|looking) to (\w+(?:\s+\w+){0,3})`),
		regexp.MustCompile(`(?i)my goal is to (\w+(?:\s+\w+){0,3})`),
		regexp.MustCompile(`(?i)i need to (\w+(?:\s+\w+){0,3})`),
	}

	toolPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(ChatGPT|GPT-4|GPT-3|Claude|Gemini|Copilot|Midjourney|DALL-E|Stable Diffusion)\b`),
		regexp.MustCompile(`(?i)\b(Python|JavaScript|TypeScript|React|Node\.js|Django|Flask)\b`),
		regexp.MustCompile(`(?i)\b(VS Code|Cursor|Notion|Obsidian|Slack|Discord)\b`),
	}

	budgetPatterns = map[string]*regexp.Regexp{
		"low_budget":      regexp.MustCompile(`(?i)\b(free|no budget|can't afford|cheap|affordable)\b`),
		"has_budget":      regexp.MustCompile(`(?i)\b(paid|premium|subscription|willing to pay|budget of)\b`),
		"specific_amount": regexp.MustCompile(`\$\d+(?:,\d+)?(?:\.\d+)?`),
		"business":        regexp.MustCompile(`(?i)\b(enterprise|business|company|team)\b`),
	}

	painPatterns = map[string]*regexp.Regexp{
		"frustration": regexp.MustCompile(`(?i)\b(frustrated|frustrating|annoying|annoyed|hate)\b`),
		"difficulty":  regexp.MustCompile(`(?i)\b(struggling|struggle|difficult|hard|challenging)\b`),
		"confusion":   regexp.MustCompile(`(?i)\b(confused|confusing|don't understand|unclear)\b`),
		"time":        regexp.MustCompile(`(?i)\b(slow|sluggish|takes too long|time-consuming)\b`),
		"cost":        regexp.MustCompile(`(?i)\b(expensive|costly|pricey|overpriced)\b`),
	}
)

// selfIDStopwords excludes captures too generic to identify anyone.
var selfIDStopwords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {},
}

// extractAudience profiles the audience with regex pattern matching over
// all collected text: self-identifications, skill levels, goals, tools,
// budget signals, and pain-point keywords.
func extractAudience(s *model.RunState) model.Update {
	texts := make([]string, 0, len(s.Posts)*2+len(s.Comments))
	for _, p := range s.Posts {
		texts = append(texts, p.Title, p.SelfText)
	}
	for _, c := range s.Comments {
		texts = append(texts, c.Body)
	}
	combined := strings.Join(texts, " ")

	selfIDs := make(map[string]int)
	for _, text := range texts {
		for _, re := range selfIDPatterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				id := strings.ToLower(strings.TrimSpace(m[1]))
				if len(id) <= 2 {
					continue
				}
				if _, stop := selfIDStopwords[id]; stop {
					continue
				}
				selfIDs[id]++
			}
		}
	}

	skills := countByCategory(combined, skillPatterns)
	dominantSkill := "unknown"
	if top := dominantKey(skills); top != "" {
		dominantSkill = top
	}

	var goals []string
	for _, re := range goalPatterns {
		for _, m := range re.FindAllStringSubmatch(combined, -1) {
			goals = append(goals, m[1])
			if len(goals) == 20 {
				break
			}
		}
		if len(goals) == 20 {
			break
		}
	}

	tools := make(map[string]int)
	for _, re := range toolPatterns {
		for _, m := range re.FindAllString(combined, -1) {
			tools[m]++
		}
	}

	budget := countByCategory(combined, budgetPatterns)
	budgetProfile := "mixed"
	lowBudget := budget["low_budget"]
	hasBudget := budget["has_budget"] + budget["business"]
	switch {
	case hasBudget > lowBudget:
		budgetProfile = "willing_to_pay"
	case lowBudget > hasBudget:
		budgetProfile = "price_sensitive"
	}

	pain := countByCategory(combined, painPatterns)
	totalPain := 0
	for _, n := range pain {
		totalPain += n
	}

	// Frequent frustration language reads as a skeptical audience.
	frustrationRatio := float64(pain["frustration"]) / float64(max(totalPain, 1))
	skepticism := "low"
	switch {
	case frustrationRatio > 0.3:
		skepticism = "very_high"
	case frustrationRatio > 0.2:
		skepticism = "high"
	case frustrationRatio > 0.1:
		skepticism = "medium"
	}

	return extractionResult(model.CategoryAudience, map[string]any{
		"self_identifications": topCounts(selfIDs, 20),
		"skill_levels": map[string]any{
			"distribution": skills,
			"dominant":     dominantSkill,
		},
		"goals_sample":   goals,
		"tools_mentioned": topCounts(tools, 20),
		"budget_signals": map[string]any{
			"distribution": budget,
			"profile":      budgetProfile,
		},
		"pain_points": map[string]any{
			"distribution":   pain,
			"total_mentions": totalPain,
		},
		"skepticism_level": skepticism,
		"analysis_stats": map[string]any{
			"posts_analyzed":    len(s.Posts),
			"comments_analyzed": len(s.Comments),
			"total_text_length": len(combined),
		},
	})
}

func countByCategory(text string, patterns map[string]*regexp.Regexp) map[string]int {
	counts := make(map[string]int, len(patterns))
	for category, re := range patterns {
		if n := len(re.FindAllStringIndex(text, -1)); n > 0 {
			counts[category] = n
		}
	}
	return counts
}

func dominantKey(counts map[string]int) string {
	best, bestCount := "", 0
	for k, v := range counts {
		if v > bestCount || (v == bestCount && best != "" && k < best) {
			best, bestCount = k, v
		}
	}
	return best
}
