package trends

import (
	"paperbot/types"
)

// platformDivisors normalize raw engagement to each platform's typical
// magnitude before summing
var platformDivisors = map[string]float64{
	"x":           1000,
	"reddit":      500,
	"huggingface": 10000,
	"zhihu":       100,
}

// fallbackNormalized is the per-mention contribution for platforms without a
// known divisor
const fallbackNormalized = 0.5

// HotScore merges per-platform mention lists into one 0-100 hot score.
// Each mention contributes min(engagement/divisor, 1.0), an unrecognized
// platform contributes the 0.5 fallback, and the unweighted sum is scaled by
// 100 and capped. Volume across platforms deliberately outweighs single
// high-engagement mentions. An empty mention set yields 0.0.
func HotScore(mentionsByPlatform map[string][]types.Mention) float64 {
	var sum float64
	for platform, mentions := range mentionsByPlatform {
		divisor, known := platformDivisors[platform]
		for _, m := range mentions {
			if !known {
				sum += fallbackNormalized
				continue
			}
			normalized := m.EngagementScore / divisor
			if normalized > 1.0 {
				normalized = 1.0
			}
			sum += normalized
		}
	}

	score := sum * 100
	if score > 100.0 {
		score = 100.0
	}
	return score
}

// GroupByPlatform buckets a flat mention list by its platform tag
func GroupByPlatform(mentions []types.Mention) map[string][]types.Mention {
	if len(mentions) == 0 {
		return nil
	}
	grouped := make(map[string][]types.Mention)
	for _, m := range mentions {
		grouped[m.Platform] = append(grouped[m.Platform], m)
	}
	return grouped
}
