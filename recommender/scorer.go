package recommender

import (
	"sort"
	"time"

	"paperbot/config"
	"paperbot/types"
)

// Options tunes one scoring pass. The zero value gives the standard daily
// pass: 7-day lookback, clock = now.
type Options struct {
	Lookback time.Duration
	Now      time.Time
}

func (o Options) lookback() time.Duration {
	if o.Lookback > 0 {
		return o.Lookback
	}
	return config.DailyLookback
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now
}

// ScoreAndRank filters the candidate pool for one user, scores each surviving
// paper, and returns candidates sorted descending by overall score. Papers in
// alreadyRecommended are skipped entirely. Ties keep input order. The function
// mutates nothing; callers truncate to the user's daily limit and persist.
func ScoreAndRank(candidates []*types.Paper, userTopics []string, prefs *types.UserPreference, alreadyRecommended map[string]struct{}, opts Options) []types.ScoredCandidate {
	cutoff := opts.now().Add(-opts.lookback())

	scored := make([]types.ScoredCandidate, 0, len(candidates))
	for _, paper := range candidates {
		if paper == nil {
			continue
		}
		if _, done := alreadyRecommended[paper.ID]; done {
			continue
		}
		if !eligible(paper, prefs, cutoff) {
			continue
		}

		relevance := relevanceScore(paper, userTopics)
		preference := preferenceScore(paper, prefs)
		overall := relevance*config.RelevanceWeight +
			paper.NoveltyScore*config.NoveltyWeight +
			paper.HotScore*config.HotWeight +
			preference*config.PreferenceWeight

		scored = append(scored, types.ScoredCandidate{
			Paper:          paper,
			RelevanceScore: relevance,
			NoveltyScore:   paper.NoveltyScore,
			HotScore:       paper.HotScore,
			OverallScore:   overall,
			Reason:         buildReason(relevance, paper.NoveltyScore, paper.HotScore),
			Topics:         append([]string(nil), paper.Topics...),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].OverallScore > scored[j].OverallScore
	})
	return scored
}

// eligible applies the pre-scoring candidate filter
func eligible(paper *types.Paper, prefs *types.UserPreference, cutoff time.Time) bool {
	if paper.Published.Before(cutoff) {
		return false
	}
	if len(prefs.PreferredCategories) > 0 && !prefs.PrefersCategory(paper.PrimaryCategory) {
		return false
	}
	if prefs.ExcludesCategory(paper.PrimaryCategory) {
		return false
	}
	if paper.NoveltyScore < prefs.MinNoveltyScore {
		return false
	}
	if paper.HotScore < prefs.MinHotScore {
		return false
	}
	return true
}

// relevanceScore measures topic overlap between the user and the paper on a
// 0-10 scale. A user with no topics gets the neutral default; an untagged
// paper gets a fixed low score regardless of the user's topics.
func relevanceScore(paper *types.Paper, userTopics []string) float64 {
	if len(userTopics) == 0 {
		return config.DefaultRelevance
	}
	if len(paper.Topics) == 0 {
		return config.UntaggedRelevance
	}

	paperTopics := make(map[string]struct{}, len(paper.Topics))
	for _, t := range paper.Topics {
		paperTopics[t] = struct{}{}
	}

	overlap := 0
	seen := make(map[string]struct{}, len(userTopics))
	for _, t := range userTopics {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := paperTopics[t]; ok {
			overlap++
		}
	}

	relevance := float64(overlap) / float64(len(seen)) * 10
	if relevance > 10.0 {
		relevance = 10.0
	}
	return relevance
}

// preferenceScore starts neutral and shifts by category preference. Both
// adjustments apply when a category is somehow preferred and excluded at once.
func preferenceScore(paper *types.Paper, prefs *types.UserPreference) float64 {
	score := 5.0
	if prefs.PrefersCategory(paper.PrimaryCategory) {
		score += 2.0
	}
	if prefs.ExcludesCategory(paper.PrimaryCategory) {
		score -= 3.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// buildReason assembles the human-readable rationale from fixed phrases
func buildReason(relevance, novelty, hot float64) string {
	var reasons []string

	if relevance > 7 {
		reasons = append(reasons, "highly relevant to your interests")
	}

	if novelty > 8 {
		reasons = append(reasons, "highly novel research")
	} else if novelty > 6 {
		reasons = append(reasons, "innovative approach")
	}

	if hot > 50 {
		reasons = append(reasons, "trending in the research community")
	} else if hot > 20 {
		reasons = append(reasons, "gaining attention")
	}

	if len(reasons) == 0 {
		return "Based on your research interests"
	}

	out := "Recommended because it's " + reasons[0]
	for _, r := range reasons[1:] {
		out += ", " + r
	}
	return out
}
