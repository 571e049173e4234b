package types

import "time"

// Mention is a single social-media reference to a paper or topic
type Mention struct {
	Platform        string    `json:"platform"` // "x", "reddit", "huggingface", "zhihu"
	Content         string    `json:"content,omitempty"`
	Author          string    `json:"author,omitempty"`
	URL             string    `json:"url,omitempty"`
	EngagementScore float64   `json:"engagement_score"`
	PaperMentions   []string  `json:"paper_mentions,omitempty"` // arXiv IDs found in the content
	TopicKeywords   []string  `json:"topic_keywords,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
