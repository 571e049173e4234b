package kafka

import (
	"time"

	"paperbot/types"
)

// Topic names for the recommendation pipeline
const (
	TopicPapersCrawled   = "papers.crawled"
	TopicPapersEnriched  = "papers.enriched"
	TopicRecommendations = "recommendations.generated"
)

// PaperEvent announces a batch of papers entering or leaving a pipeline stage
type PaperEvent struct {
	Stage     string         `json:"stage"` // "crawled" or "enriched"
	Papers    []*types.Paper `json:"papers"`
	Topics    []string       `json:"topics,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// RecommendationEvent announces freshly persisted recommendations for one user
type RecommendationEvent struct {
	UserID    string                 `json:"user_id"`
	Count     int                    `json:"count"`
	PaperIDs  []string               `json:"paper_ids"`
	Top       *types.ScoredCandidate `json:"top,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
