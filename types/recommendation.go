package types

import "time"

// UserPreference holds one user's recommendation thresholds and digest settings
type UserPreference struct {
	UserID                  string   `json:"user_id"`
	MinNoveltyScore         float64  `json:"min_novelty_score"`
	MinHotScore             float64  `json:"min_hot_score"`
	MaxDailyRecommendations int      `json:"max_daily_recommendations"`
	PreferredCategories     []string `json:"preferred_categories,omitempty"`
	ExcludedCategories      []string `json:"excluded_categories,omitempty"`
	DailyDigest             bool     `json:"daily_digest"`
	WeeklyDigest            bool     `json:"weekly_digest"`
	EmailTime               string   `json:"email_time"` // HH:MM
	Timezone                string   `json:"timezone"`
}

// PrefersCategory reports whether cat is in the preferred set (empty set prefers nothing)
func (p *UserPreference) PrefersCategory(cat string) bool {
	return containsString(p.PreferredCategories, cat)
}

// ExcludesCategory reports whether cat is in the excluded set
func (p *UserPreference) ExcludesCategory(cat string) bool {
	return containsString(p.ExcludedCategories, cat)
}

// User is a registered recipient of recommendations. Topics lists the names
// of the research topics the user follows.
type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Username           string    `json:"username"`
	Active             bool      `json:"active"`
	EmailNotifications bool      `json:"email_notifications"`
	Topics             []string  `json:"topics,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// ScoredCandidate is one scored paper in a recommendation pass, before persistence
type ScoredCandidate struct {
	Paper          *Paper   `json:"paper"`
	RelevanceScore float64  `json:"relevance_score"`
	NoveltyScore   float64  `json:"novelty_score"`
	HotScore       float64  `json:"hot_score"`
	OverallScore   float64  `json:"overall_score"`
	Reason         string   `json:"reason"`
	Topics         []string `json:"topics,omitempty"`
}

// Recommendation is a persisted recommendation of one paper to one user.
// At most one exists per (user, paper) pair; scores never change after creation.
type Recommendation struct {
	UserID         string    `json:"user_id"`
	PaperID        string    `json:"paper_id"`
	RelevanceScore float64   `json:"relevance_score"`
	NoveltyScore   float64   `json:"novelty_score"`
	HotScore       float64   `json:"hot_score"`
	OverallScore   float64   `json:"overall_score"`
	Reason         string    `json:"reason"`
	Topics         []string  `json:"topics,omitempty"`
	Read           bool      `json:"read"`
	Bookmarked     bool      `json:"bookmarked"`
	Emailed        bool      `json:"emailed"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClusterSnapshot is the persisted summary of one past cluster, kept for
// emerging-topic comparison against future analysis passes
type ClusterSnapshot struct {
	Keywords    []string  `json:"keywords"`
	Size        int       `json:"size"`
	AvgNovelty  float64   `json:"avg_novelty"`
	AvgHotScore float64   `json:"avg_hot_score"`
	TakenAt     time.Time `json:"taken_at"`
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
