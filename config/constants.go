package config

import "time"

// Scoring Constants
const (
	// RelevanceWeight applies to the topic-overlap sub-score (0-10 scale)
	RelevanceWeight = 0.4

	// NoveltyWeight applies to the LLM novelty sub-score (0-10 scale)
	NoveltyWeight = 0.2

	// HotWeight applies to the social hot sub-score at its native 0-100 scale
	HotWeight = 0.3

	// PreferenceWeight applies to the category-preference sub-score (0-10 scale)
	PreferenceWeight = 0.1

	// DefaultRelevance is used when the user has no topics of interest
	DefaultRelevance = 5.0

	// UntaggedRelevance is used when the paper carries no topic tags
	UntaggedRelevance = 3.0
)

// User Preference Defaults
const (
	// DefaultMinNoveltyScore filters out papers below this novelty rating
	DefaultMinNoveltyScore = 5.0

	// DefaultMinHotScore filters out papers below this social attention level
	DefaultMinHotScore = 10.0

	// DefaultMaxDailyRecommendations caps one day's recommendations per user
	DefaultMaxDailyRecommendations = 10

	// DefaultEmailTime is when daily digests are sent (HH:MM)
	DefaultEmailTime = "09:00"

	// DefaultTimezone for digest scheduling
	DefaultTimezone = "UTC"
)

// DefaultPreferredCategories are assigned to new users
var DefaultPreferredCategories = []string{"cs.AI", "cs.LG", "cs.CL"}

// Paper Signal Defaults
const (
	// DefaultNoveltyScore is assumed when LLM analysis is unavailable
	DefaultNoveltyScore = 5.0

	// DefaultHotScore is assumed when no social mentions were collected
	DefaultHotScore = 0.0
)

// Crawl Constants
const (
	// DailyLookback is the publish-date window for daily recommendation passes
	DailyLookback = 7 * 24 * time.Hour

	// TrendingLookback is the shorter window for trending crawls
	TrendingLookback = 3 * 24 * time.Hour

	// MaxCrawlResults caps one arXiv query
	MaxCrawlResults = 100

	// CandidatePoolLimit caps the papers considered in one scoring pass
	CandidatePoolLimit = 200
)

// DefaultCategories are searched when a crawl specifies none
var DefaultCategories = []string{"cs.AI", "cs.LG", "cs.CL", "cs.CV", "cs.CY"}

// Clustering Constants
const (
	// DefaultClusterCount is the target cluster count for an analysis pass
	DefaultClusterCount = 5

	// ClusterKeywordCount is how many keywords describe one cluster
	ClusterKeywordCount = 5

	// EmergingMatchThreshold is the Jaccard keyword similarity above which a
	// current cluster is considered the same topic as a historical one
	EmergingMatchThreshold = 0.3

	// EmergingGrowthThreshold is the minimum relative size increase for a
	// matched topic to be reported as growing
	EmergingGrowthThreshold = 0.1
)

// Schedule Constants (cron specs, UTC)
const (
	// DailyCrawlSpec runs the full crawl + recommendation pass every day at 09:00
	DailyCrawlSpec = "0 9 * * *"

	// TrendingCrawlSpec runs the lighter trending crawl every day at 12:00
	TrendingCrawlSpec = "0 12 * * *"

	// WeeklyDigestSpec sends weekly digests on Monday at 08:00
	WeeklyDigestSpec = "0 8 * * 1"
)

// SchedulerLocation is the timezone all cron specs are evaluated in
func SchedulerLocation() *time.Location { return time.UTC }
