package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Paper represents an enriched arXiv paper with all recommendation signals
type Paper struct {
	ID              string    `json:"id"` // arXiv ID, e.g. "2405.01234"
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract"`
	Authors         []string  `json:"authors,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	PrimaryCategory string    `json:"primary_category"`
	Published       time.Time `json:"published"`
	Updated         time.Time `json:"updated,omitempty"`
	PDFURL          string    `json:"pdf_url,omitempty"`
	EntryURL        string    `json:"entry_url,omitempty"`

	// Enrichment signals. NoveltyScore is 0-10, HotScore 0-100.
	NoveltyScore float64  `json:"novelty_score"`
	HotScore     float64  `json:"hot_score"`
	Topics       []string `json:"topics,omitempty"`

	Analysis *PaperAnalysis `json:"analysis,omitempty"`

	FetchedAt       time.Time `json:"fetched_at"`
	EnrichmentError string    `json:"enrichment_error,omitempty"`
}

// Text returns the concatenated title and abstract used for embeddings
func (p *Paper) Text() string {
	return p.Title + " " + p.Abstract
}

// HasTopic reports whether the paper is tagged with the given topic name
func (p *Paper) HasTopic(name string) bool {
	for _, t := range p.Topics {
		if t == name {
			return true
		}
	}
	return false
}

// PaperAnalysis is the structured result of one LLM analysis request
type PaperAnalysis struct {
	Topic         string   `json:"topic"`
	Contributions []string `json:"contributions,omitempty"`
	NoveltyScore  float64  `json:"novelty_score"`
	Keywords      []string `json:"keywords,omitempty"`
	Applications  []string `json:"applications,omitempty"`
	RelatedAreas  []string `json:"related_areas,omitempty"`
	Provider      string   `json:"provider,omitempty"`
	Model         string   `json:"model,omitempty"`
}

// Topic is a monitored research topic
type Topic struct {
	Name       string    `json:"name"`
	Keywords   []string  `json:"keywords,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// GenerateID creates a short, stable ID by hashing the provided string input
func GenerateID(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}
