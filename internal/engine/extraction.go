package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/nao1215/redditlens/internal/model"
)

// The extraction nodes are script nodes: pure statistics over the
// collected records, no AI involved. Each writes only its own category
// key; the merge node fills gaps and derives the summary.

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

func meanInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// extractScores computes the score distribution of the collected posts:
// min/max/avg/median, fixed buckets, and percentiles.
func extractScores(s *model.RunState) model.Update {
	if len(s.Posts) == 0 {
		return extractionResult(model.CategoryScores, map[string]any{
			"min": 0, "max": 0, "avg": 0.0, "median": 0.0,
			"total_posts": 0,
			"buckets":     map[string]int{},
		})
	}

	scores := make([]int, len(s.Posts))
	for i, p := range s.Posts {
		scores[i] = p.Score
	}
	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)

	n := len(sorted)
	var median float64
	if n%2 == 1 {
		median = float64(sorted[n/2])
	} else {
		median = float64(sorted[n/2-1]+sorted[n/2]) / 2
	}

	buckets := map[string]int{
		"0-10": 0, "11-50": 0, "51-100": 0, "101-500": 0, "501-1000": 0, "1000+": 0,
	}
	for _, score := range scores {
		switch {
		case score <= 10:
			buckets["0-10"]++
		case score <= 50:
			buckets["11-50"]++
		case score <= 100:
			buckets["51-100"]++
		case score <= 500:
			buckets["101-500"]++
		case score <= 1000:
			buckets["501-1000"]++
		default:
			buckets["1000+"]++
		}
	}

	pick := func(frac float64, minSamples int, fallback int) float64 {
		if n > minSamples {
			return float64(sorted[int(float64(n)*frac)])
		}
		return float64(fallback)
	}

	percentiles := map[string]float64{
		"p10": pick(0.10, 10, sorted[0]),
		"p25": pick(0.25, 4, sorted[0]),
		"p50": median,
		"p75": pick(0.75, 4, sorted[n-1]),
		"p90": pick(0.90, 10, sorted[n-1]),
		"p99": pick(0.99, 100, sorted[n-1]),
	}

	return extractionResult(model.CategoryScores, map[string]any{
		"min":         sorted[0],
		"max":         sorted[n-1],
		"avg":         round2(meanInt(scores)),
		"median":      median,
		"total_posts": n,
		"buckets":     buckets,
		"percentiles": percentiles,
	})
}

// extractFlairs counts flair usage and per-flair score statistics.
func extractFlairs(s *model.RunState) model.Update {
	if len(s.Posts) == 0 {
		return extractionResult(model.CategoryFlairs, map[string]any{
			"flairs":        map[string]any{},
			"no_flair_count": 0,
			"total_posts":   0,
			"unique_flairs": 0,
		})
	}

	flairScores := make(map[string][]int)
	noFlair := 0
	for _, p := range s.Posts {
		if p.Flair == "" {
			noFlair++
			continue
		}
		flairScores[p.Flair] = append(flairScores[p.Flair], p.Score)
	}

	flairStats := make(map[string]any, len(flairScores))
	for flair, scores := range flairScores {
		maxScore := 0
		for _, sc := range scores {
			if sc > maxScore {
				maxScore = sc
			}
		}
		flairStats[flair] = map[string]any{
			"count":      len(scores),
			"percentage": percentage(len(scores), len(s.Posts)),
			"avg_score":  round2(meanInt(scores)),
			"max_score":  maxScore,
		}
	}

	return extractionResult(model.CategoryFlairs, map[string]any{
		"flairs":              flairStats,
		"no_flair_count":      noFlair,
		"no_flair_percentage": percentage(noFlair, len(s.Posts)),
		"total_posts":         len(s.Posts),
		"unique_flairs":       len(flairStats),
	})
}

var weekdayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// extractTiming analyses posting times by hour and weekday, and picks the
// best slot among those with at least three samples.
func extractTiming(s *model.RunState) model.Update {
	if len(s.Posts) == 0 {
		return extractionResult(model.CategoryTiming, map[string]any{
			"by_hour": map[string]any{}, "by_day": map[string]any{},
			"best_hour": nil, "best_day": nil,
		})
	}

	hourScores := make(map[int][]int)
	dayScores := make(map[int][]int)
	for _, p := range s.Posts {
		if p.CreatedUTC.IsZero() {
			continue
		}
		t := p.CreatedUTC.UTC()
		hourScores[t.Hour()] = append(hourScores[t.Hour()], p.Score)
		dayScores[int(t.Weekday())] = append(dayScores[int(t.Weekday())], p.Score)
	}

	const minSamplesForBest = 3

	byHour := make(map[string]any, 24)
	var bestHour string
	bestHourScore := 0.0
	for hour := 0; hour < 24; hour++ {
		key := fmt.Sprintf("%02d:00", hour)
		scores := hourScores[hour]
		avg := round2(meanInt(scores))
		byHour[key] = map[string]any{
			"count":      len(scores),
			"avg_score":  avg,
			"percentage": percentage(len(scores), len(s.Posts)),
		}
		if len(scores) >= minSamplesForBest && avg > bestHourScore {
			bestHour, bestHourScore = key, avg
		}
	}

	byDay := make(map[string]any, 7)
	var bestDay string
	bestDayScore := 0.0
	for day := 0; day < 7; day++ {
		name := weekdayNames[day]
		scores := dayScores[day]
		avg := round2(meanInt(scores))
		byDay[name] = map[string]any{
			"count":      len(scores),
			"avg_score":  avg,
			"percentage": percentage(len(scores), len(s.Posts)),
		}
		if len(scores) >= minSamplesForBest && avg > bestDayScore {
			bestDay, bestDayScore = name, avg
		}
	}

	result := map[string]any{
		"by_hour":              byHour,
		"by_day":               byDay,
		"best_hour":            nil,
		"best_day":             nil,
		"total_posts_analyzed": len(s.Posts),
	}
	if bestHour != "" {
		result["best_hour"] = map[string]any{"hour": bestHour, "avg_score": bestHourScore}
	}
	if bestDay != "" {
		result["best_day"] = map[string]any{"day": bestDay, "avg_score": bestDayScore}
	}

	return extractionResult(model.CategoryTiming, result)
}

// extractTitles analyses title length, punctuation patterns, and common
// starting words, each with the average score of the matching posts.
func extractTitles(s *model.RunState) model.Update {
	if len(s.Posts) == 0 {
		return extractionResult(model.CategoryTitles, map[string]any{
			"avg_length": 0.0, "patterns": map[string]any{}, "top_starting_words": map[string]int{},
		})
	}

	patternStats := make(map[string]any, len(titlePatterns))
	for name, re := range titlePatterns {
		var scores []int
		for _, p := range s.Posts {
			if re.MatchString(p.Title) {
				scores = append(scores, p.Score)
			}
		}
		patternStats[name] = map[string]any{
			"count":      len(scores),
			"percentage": percentage(len(scores), len(s.Posts)),
			"avg_score":  round2(meanInt(scores)),
		}
	}

	type bucket struct {
		name   string
		limit  int
		scores []int
	}
	lengthBuckets := []bucket{
		{name: "short (0-50)", limit: 50},
		{name: "medium (51-100)", limit: 100},
		{name: "long (101-150)", limit: 150},
		{name: "very_long (150+)", limit: math.MaxInt},
	}

	var lengths, wordCounts []int
	startWords := make(map[string]int)
	minLen, maxLen := math.MaxInt, 0

	for _, p := range s.Posts {
		length := len(p.Title)
		lengths = append(lengths, length)
		wordCounts = append(wordCounts, len(strings.Fields(p.Title)))
		if length < minLen {
			minLen = length
		}
		if length > maxLen {
			maxLen = length
		}

		for i := range lengthBuckets {
			if length <= lengthBuckets[i].limit {
				lengthBuckets[i].scores = append(lengthBuckets[i].scores, p.Score)
				break
			}
		}

		if words := strings.Fields(p.Title); len(words) > 0 {
			startWords[strings.ToLower(words[0])]++
		}
	}

	lengthStats := make(map[string]any, len(lengthBuckets))
	for _, b := range lengthBuckets {
		lengthStats[b.name] = map[string]any{
			"count":      len(b.scores),
			"percentage": percentage(len(b.scores), len(s.Posts)),
			"avg_score":  round2(meanInt(b.scores)),
		}
	}

	return extractionResult(model.CategoryTitles, map[string]any{
		"avg_length":          round1(meanInt(lengths)),
		"avg_word_count":      round1(meanInt(wordCounts)),
		"min_length":          minLen,
		"max_length":          maxLen,
		"patterns":            patternStats,
		"length_distribution": lengthStats,
		"top_starting_words":  topCounts(startWords, 10),
		"total_posts":         len(s.Posts),
	})
}

// extractEngagement analyses OP participation, upvote ratios, and post
// formats as one category.
func extractEngagement(s *model.RunState) model.Update {
	if len(s.Posts) == 0 {
		return extractionResult(model.CategoryEngagement, map[string]any{
			"op_engagement": map[string]any{}, "upvote_ratios": map[string]any{}, "post_formats": map[string]any{},
		})
	}

	var opScores []int
	postsWithOPReply := make(map[string]struct{})
	for _, c := range s.Comments {
		if c.IsSubmitter {
			opScores = append(opScores, c.Score)
			postsWithOPReply[c.PostID] = struct{}{}
		}
	}

	opEngagement := map[string]any{
		"total_op_comments":     len(opScores),
		"posts_with_op_replies": len(postsWithOPReply),
		"op_engagement_rate":    percentage(len(postsWithOPReply), len(s.Posts)),
		"avg_op_comment_score":  round2(meanInt(opScores)),
	}

	type ratioBucket struct {
		name   string
		limit  float64
		scores []int
	}
	ratioBuckets := []ratioBucket{
		{name: "controversial (0.5-0.6)", limit: 0.6},
		{name: "mixed (0.6-0.7)", limit: 0.7},
		{name: "positive (0.7-0.8)", limit: 0.8},
		{name: "well_received (0.8-0.9)", limit: 0.9},
		{name: "excellent (0.9+)", limit: math.Inf(1)},
	}

	var ratioSum float64
	ratioCount := 0
	for _, p := range s.Posts {
		ratio := p.UpvoteRatio
		if ratio == 0 {
			ratio = 0.5
		} else {
			ratioSum += ratio
			ratioCount++
		}
		for i := range ratioBuckets {
			if ratio < ratioBuckets[i].limit {
				ratioBuckets[i].scores = append(ratioBuckets[i].scores, p.Score)
				break
			}
		}
	}

	ratioStats := make(map[string]any, len(ratioBuckets))
	for _, b := range ratioBuckets {
		ratioStats[b.name] = map[string]any{
			"count":      len(b.scores),
			"percentage": percentage(len(b.scores), len(s.Posts)),
			"avg_score":  round2(meanInt(b.scores)),
		}
	}

	avgRatio := 0.0
	if ratioCount > 0 {
		avgRatio = math.Round(ratioSum/float64(ratioCount)*1000) / 1000
	}

	upvoteRatios := map[string]any{
		"avg_ratio":          avgRatio,
		"ratio_distribution": ratioStats,
	}

	var selfScores, linkScores, videoScores []int
	for _, p := range s.Posts {
		if p.IsSelf {
			selfScores = append(selfScores, p.Score)
		} else {
			linkScores = append(linkScores, p.Score)
		}
		if p.IsVideo {
			videoScores = append(videoScores, p.Score)
		}
	}

	formatStats := func(scores []int) map[string]any {
		return map[string]any{
			"count":      len(scores),
			"percentage": percentage(len(scores), len(s.Posts)),
			"avg_score":  round2(meanInt(scores)),
		}
	}

	postFormats := map[string]any{
		"self_posts":  formatStats(selfScores),
		"link_posts":  formatStats(linkScores),
		"video_posts": formatStats(videoScores),
	}

	return extractionResult(model.CategoryEngagement, map[string]any{
		"op_engagement": opEngagement,
		"upvote_ratios": upvoteRatios,
		"post_formats":  postFormats,
	})
}

// mergeExtraction validates the extraction fan-out. Missing categories are
// filled with explicit empty defaults, a derived summary is recorded, and
// the run advances to the analysis phase. Partial extraction never aborts
// the run.
func mergeExtraction(s *model.RunState) model.Update {
	merged := make(map[string]map[string]any, len(model.ExtractionCategories)+1)

	missing := 0
	for _, category := range model.ExtractionCategories {
		if _, ok := s.Extraction[category]; !ok {
			merged[category] = map[string]any{}
			missing++
		}
	}

	postScores := make([]int, len(s.Posts))
	authors := make(map[string]struct{})
	for i, p := range s.Posts {
		postScores[i] = p.Score
		if p.Author != "" && p.Author != "[deleted]" {
			authors[p.Author] = struct{}{}
		}
	}
	commentScores := make([]int, len(s.Comments))
	for i, c := range s.Comments {
		commentScores[i] = c.Score
	}

	merged[model.SummaryKey] = map[string]any{
		"total_posts":         len(s.Posts),
		"total_comments":      len(s.Comments),
		"avg_post_score":      round2(meanInt(postScores)),
		"avg_comment_score":   round2(meanInt(commentScores)),
		"unique_authors":      len(authors),
		"extraction_complete": missing == 0,
	}

	return model.Update{
		Extraction: merged,
		Phase:      model.PhasePtr(model.PhaseAnalyzing),
	}
}

// extractionResult wraps one category's payload into an update.
func extractionResult(category string, data map[string]any) model.Update {
	return model.Update{
		Extraction: map[string]map[string]any{category: data},
	}
}

// topCounts keeps the n highest counts of a counter map.
func topCounts(counts map[string]int, n int) map[string]int {
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
	top := make(map[string]int, len(pairs))
	for _, p := range pairs {
		top[p.k] = p.v
	}
	return top
}
