package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/redditlens/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// now supplies the generation timestamp; overridable for tests.
	now func() time.Time
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithClock sets the clock used for the generation timestamp.
func WithClock(now func() time.Time) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.now = now
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full run report in Markdown format.
func (w *MarkdownWriter) Write(state *model.RunState) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, state)
	w.writeCollectionSummary(md, state)
	w.writeScores(md, state)
	w.writeFlairs(md, state)
	w.writeTiming(md, state)
	w.writeTitles(md, state)
	w.writeEngagement(md, state)
	w.writeAudience(md, state)
	w.writeAnalysis(md, state)
	w.writeSynthesis(md, state)
	w.writeDegradedBranches(md, state)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, state *model.RunState) {
	md.H1("Community Analysis Report: r/" + state.Community)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Community", "`r/" + state.Community + "`"},
			{"Generated", w.now().UTC().Format("2006-01-02 15:04:05 MST")},
			{"Posts Collected", strconv.Itoa(state.PostsCollected)},
			{"Comments Collected", strconv.Itoa(state.CommentsCollected)},
			{"Status", statusText(state)},
		},
	})
	md.PlainText("")

	switch {
	case state.Failed():
		md.Cautionf("The run failed: %s", state.Err)
	case len(state.Errors) > 0:
		md.Warningf("%d pipeline branch(es) degraded; the affected sections carry partial or no data.", len(state.Errors))
	default:
		md.Tip("All pipeline stages completed without errors.")
	}
	md.PlainText("")
}

// statusText returns the status text based on run state.
func statusText(state *model.RunState) string {
	switch {
	case state.Failed():
		return "❌ Failed - " + state.Err
	case len(state.Errors) > 0:
		return "⚠️ Completed (degraded)"
	default:
		return "✅ Completed"
	}
}

// writeCollectionSummary writes the aggregate collection statistics.
func (w *MarkdownWriter) writeCollectionSummary(md *markdown.Markdown, state *model.RunState) {
	summary := state.Extraction[model.SummaryKey]
	if summary == nil {
		return
	}

	md.H2("Collection Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Posts", strconv.Itoa(asInt(summary["total_posts"]))},
			{"Total Comments", strconv.Itoa(asInt(summary["total_comments"]))},
			{"Average Post Score", formatFloat(asFloat(summary["avg_post_score"]))},
			{"Average Comment Score", formatFloat(asFloat(summary["avg_comment_score"]))},
			{"Unique Authors", strconv.Itoa(asInt(summary["unique_authors"]))},
		},
	})
	md.PlainText("")
}

// writeScores writes the score distribution section with a pie chart.
func (w *MarkdownWriter) writeScores(md *markdown.Markdown, state *model.RunState) {
	scores := state.Extraction[model.CategoryScores]
	if len(scores) == 0 {
		return
	}

	md.H2("Score Distribution")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Statistic", "Value"},
		Rows: [][]string{
			{"Minimum", strconv.Itoa(asInt(scores["min"]))},
			{"Maximum", strconv.Itoa(asInt(scores["max"]))},
			{"Average", formatFloat(asFloat(scores["avg"]))},
			{"Median", formatFloat(asFloat(scores["median"]))},
		},
	})
	md.PlainText("")

	buckets := intMap(scores["buckets"])
	if len(buckets) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Post Score Distribution"),
		piechart.WithShowData(true),
	)
	for _, bucket := range []string{"0-10", "11-50", "51-100", "101-500", "501-1000", "1000+"} {
		if n := buckets[bucket]; n > 0 {
			chart.LabelAndIntValue(bucket, uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFlairs writes the flair usage section.
func (w *MarkdownWriter) writeFlairs(md *markdown.Markdown, state *model.RunState) {
	flairData := state.Extraction[model.CategoryFlairs]
	flairs := subMap(flairData, "flairs")
	if len(flairs) == 0 {
		return
	}

	md.H2("Flair Usage")
	md.PlainText("")

	names := make([]string, 0, len(flairs))
	for name := range flairs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return asInt(subMap(flairs, names[i])["count"]) > asInt(subMap(flairs, names[j])["count"])
	})

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		stats := subMap(flairs, name)
		rows = append(rows, []string{
			truncateString(name, 40),
			strconv.Itoa(asInt(stats["count"])),
			formatFloat(asFloat(stats["percentage"])) + "%",
			formatFloat(asFloat(stats["avg_score"])),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Flair", "Posts", "Share", "Avg Score"},
		Rows:   rows,
	})
	md.PlainTextf("Posts without flair: %d", asInt(flairData["no_flair_count"]))
	md.PlainText("")
}

// writeTiming writes the best posting slots.
func (w *MarkdownWriter) writeTiming(md *markdown.Markdown, state *model.RunState) {
	timing := state.Extraction[model.CategoryTiming]
	if len(timing) == 0 {
		return
	}

	bestHour := subMap(timing, "best_hour")
	bestDay := subMap(timing, "best_day")
	if bestHour == nil && bestDay == nil {
		return
	}

	md.H2("Posting Times")
	md.PlainText("")

	var lines []string
	if bestHour != nil {
		lines = append(lines, fmt.Sprintf("Best hour (UTC): **%s** with an average score of %s",
			asString(bestHour["hour"]), formatFloat(asFloat(bestHour["avg_score"]))))
	}
	if bestDay != nil {
		lines = append(lines, fmt.Sprintf("Best day: **%s** with an average score of %s",
			asString(bestDay["day"]), formatFloat(asFloat(bestDay["avg_score"]))))
	}
	md.BulletList(lines...)
	md.PlainText("")
}

// writeTitles writes the title pattern statistics.
func (w *MarkdownWriter) writeTitles(md *markdown.Markdown, state *model.RunState) {
	titles := state.Extraction[model.CategoryTitles]
	patterns := subMap(titles, "patterns")
	if len(patterns) == 0 {
		return
	}

	md.H2("Title Patterns")
	md.PlainText("")

	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := asInt(subMap(patterns, names[i])["count"]), asInt(subMap(patterns, names[j])["count"])
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		stats := subMap(patterns, name)
		if asInt(stats["count"]) == 0 {
			continue
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(asInt(stats["count"])),
			formatFloat(asFloat(stats["percentage"])) + "%",
			formatFloat(asFloat(stats["avg_score"])),
		})
	}
	if len(rows) == 0 {
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Pattern", "Posts", "Share", "Avg Score"},
		Rows:   rows,
	})
	md.PlainTextf("Average title length: %s characters", formatFloat(asFloat(titles["avg_length"])))
	md.PlainText("")
}

// writeEngagement writes OP participation and vote quality.
func (w *MarkdownWriter) writeEngagement(md *markdown.Markdown, state *model.RunState) {
	engagement := state.Extraction[model.CategoryEngagement]
	op := subMap(engagement, "op_engagement")
	ratios := subMap(engagement, "upvote_ratios")
	if op == nil && ratios == nil {
		return
	}

	md.H2("Engagement")
	md.PlainText("")

	var lines []string
	if op != nil {
		lines = append(lines,
			fmt.Sprintf("OP replied in %d post(s) (%s%% of posts)",
				asInt(op["posts_with_op_replies"]), formatFloat(asFloat(op["op_engagement_rate"]))),
			fmt.Sprintf("Total OP comments: %d", asInt(op["total_op_comments"])),
		)
	}
	if ratios != nil {
		lines = append(lines, fmt.Sprintf("Average upvote ratio: %s", formatFloat(asFloat(ratios["avg_ratio"]))))
	}
	md.BulletList(lines...)
	md.PlainText("")
}

// writeAudience writes the regex-derived audience profile.
func (w *MarkdownWriter) writeAudience(md *markdown.Markdown, state *model.RunState) {
	audience := state.Extraction[model.CategoryAudience]
	if len(audience) == 0 {
		return
	}

	md.H2("Audience Profile")
	md.PlainText("")

	var lines []string
	if skills := subMap(audience, "skill_levels"); skills != nil {
		lines = append(lines, "Dominant skill level: **"+asString(skills["dominant"])+"**")
	}
	if budget := subMap(audience, "budget_signals"); budget != nil {
		lines = append(lines, "Budget profile: **"+asString(budget["profile"])+"**")
	}
	if level := asString(audience["skepticism_level"]); level != "" {
		lines = append(lines, "Skepticism level: **"+level+"**")
	}
	md.BulletList(lines...)
	md.PlainText("")

	if selfIDs := intMap(audience["self_identifications"]); len(selfIDs) > 0 {
		md.PlainText("Self-identifications found in the collected text:")
		md.PlainText("")
		md.BulletList(topCountLines(selfIDs, 10)...)
		md.PlainText("")
	}
}

// writeAnalysis writes the AI analysis summary and per-category errors.
func (w *MarkdownWriter) writeAnalysis(md *markdown.Markdown, state *model.RunState) {
	if len(state.Analysis) == 0 {
		return
	}

	md.H2("AI Analysis")
	md.PlainText("")

	if summary := state.Analysis[model.SummaryKey]; summary != nil {
		md.Table(markdown.TableSet{
			Header: []string{"Aspect", "Result"},
			Rows: [][]string{
				{"Overall Sentiment", asString(summary["sentiment"])},
				{"Pain Points Found", strconv.Itoa(asInt(summary["pain_points_found"]))},
				{"Tone Formality", asString(summary["tone_formality"])},
				{"Promotion Attitude", asString(summary["promotion_attitude"])},
			},
		})
		md.PlainText("")
	}

	for _, category := range model.AnalysisCategories {
		result := state.Analysis[category]
		if result == nil {
			continue
		}
		if errMsg := asString(result["error"]); errMsg != "" {
			md.Warningf("%s unavailable: %s", category, errMsg)
		}
	}
	md.PlainText("")
}

// writeSynthesis writes personas, insights, and the generated report body.
func (w *MarkdownWriter) writeSynthesis(md *markdown.Markdown, state *model.RunState) {
	if personas, ok := state.Synthesis[model.SynthesisPersonas].([]any); ok && len(personas) > 0 {
		md.H2("Personas")
		md.PlainText("")

		var lines []string
		for _, p := range personas {
			persona, ok := p.(map[string]any)
			if !ok {
				continue
			}
			name := asString(persona["name"])
			if name == "" {
				continue
			}
			if desc := asString(persona["description"]); desc != "" {
				lines = append(lines, "**"+name+"**: "+truncateString(desc, 200))
			} else {
				lines = append(lines, "**"+name+"**")
			}
		}
		md.BulletList(lines...)
		md.PlainText("")
	}

	if insights, ok := state.Synthesis[model.SynthesisInsights].([]any); ok && len(insights) > 0 {
		md.H2("Key Insights")
		md.PlainText("")

		var lines []string
		for _, i := range insights {
			if s, ok := i.(string); ok {
				lines = append(lines, s)
				continue
			}
			if m, ok := i.(map[string]any); ok {
				if s := asString(m["insight"]); s != "" {
					lines = append(lines, s)
				}
			}
		}
		md.BulletList(lines...)
		md.PlainText("")
	}

	if content, ok := state.Synthesis[model.SynthesisReport].(string); ok && content != "" {
		md.H2("Generated Analysis")
		md.PlainText("")
		// Embedded verbatim: the content is already Markdown.
		md.PlainText(content)
		md.PlainText("")
	}
}

// writeDegradedBranches lists every error the run accumulated.
func (w *MarkdownWriter) writeDegradedBranches(md *markdown.Markdown, state *model.RunState) {
	if len(state.Errors) == 0 {
		return
	}

	md.H2("Degraded Branches")
	md.PlainText("")

	lines := make([]string, len(state.Errors))
	for i, msg := range state.Errors {
		lines[i] = truncateString(msg, 200)
	}
	md.BulletList(lines...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [RedditLens](https://github.com/nao1215/redditlens)*")
}

// formatFloat renders a float without trailing zero noise.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// intMap normalizes counter maps, which arrive as map[string]int from the
// extraction nodes or map[string]any after a JSON round trip.
func intMap(v any) map[string]int {
	switch m := v.(type) {
	case map[string]int:
		return m
	case map[string]any:
		out := make(map[string]int, len(m))
		for k, val := range m {
			out[k] = asInt(val)
		}
		return out
	}
	return nil
}

// topCountLines renders the n highest counts as "value (count)" lines.
func topCountLines(counts map[string]int, n int) []string {
	type kv struct {
		k string
		v int
	}
	pairs := make([]kv, 0, len(counts))
	for k, v := range counts {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].v != pairs[j].v {
			return pairs[i].v > pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}

	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = fmt.Sprintf("%s (%d)", p.k, p.v)
	}
	return lines
}
