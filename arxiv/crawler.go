package arxiv

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"paperbot/config"
	"paperbot/types"
)

const defaultEndpoint = "http://export.arxiv.org/api/query"

// Crawler fetches papers from the arXiv Atom API
type Crawler struct {
	parser   *gofeed.Parser
	endpoint string
}

// NewCrawler creates a crawler against the public arXiv API
func NewCrawler() *Crawler {
	return &Crawler{parser: gofeed.NewParser(), endpoint: defaultEndpoint}
}

// SearchPapers retrieves papers matching any of the topics within the given
// categories, newest first, stopping at the first paper older than daysBack.
// Empty categories fall back to the default monitored set.
func (c *Crawler) SearchPapers(ctx context.Context, topics []string, categories []string, maxResults, daysBack int) ([]*types.Paper, error) {
	if maxResults <= 0 {
		maxResults = config.MaxCrawlResults
	}
	if daysBack <= 0 {
		daysBack = int(config.DailyLookback / (24 * time.Hour))
	}
	if len(categories) == 0 {
		categories = config.DefaultCategories
	}

	params := url.Values{}
	params.Set("search_query", buildQuery(topics, categories))
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	feed, err := c.parser.ParseURLWithContext(c.endpoint+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch arxiv feed: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack)

	papers := make([]*types.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		paper := paperFromEntry(item)
		if paper == nil {
			continue
		}
		// Results are sorted by submission date, so the first stale entry
		// ends the scan
		if paper.Published.Before(cutoff) {
			break
		}
		papers = append(papers, paper)
	}

	log.Printf("Found %d papers for topics: %v", len(papers), topics)
	return papers, nil
}

// TrendingPaper pairs a paper with its recency/relevance trending score
type TrendingPaper struct {
	Paper          *types.Paper `json:"paper"`
	TrendingScore  float64      `json:"trending_score"`
	RecencyScore   float64      `json:"recency_score"`
	RelevanceScore float64      `json:"relevance_score"`
	DaysSincePub   int          `json:"days_since_pub"`
}

// GetTrendingPapers searches a short window and ranks results by a blend of
// recency and topic-keyword relevance, descending.
func (c *Crawler) GetTrendingPapers(ctx context.Context, topics []string, daysBack int, minScore float64) ([]TrendingPaper, error) {
	if daysBack <= 0 {
		daysBack = int(config.TrendingLookback / (24 * time.Hour))
	}

	papers, err := c.SearchPapers(ctx, topics, nil, config.MaxCrawlResults, daysBack)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	trending := make([]TrendingPaper, 0, len(papers))
	for _, paper := range papers {
		daysSince := int(now.Sub(paper.Published).Hours() / 24)

		recency := 1 - float64(daysSince)/float64(daysBack)
		if recency < 0 {
			recency = 0
		}

		relevance := topicRelevance(paper, topics)
		score := recency*0.7 + relevance*0.3
		if score < minScore {
			continue
		}

		trending = append(trending, TrendingPaper{
			Paper:          paper,
			TrendingScore:  score,
			RecencyScore:   recency,
			RelevanceScore: relevance,
			DaysSincePub:   daysSince,
		})
	}

	sort.SliceStable(trending, func(i, j int) bool {
		return trending[i].TrendingScore > trending[j].TrendingScore
	})
	return trending, nil
}

// buildQuery assembles the arXiv search expression:
// ("topic a" OR "topic b") AND (cat:cs.AI OR cat:cs.LG)
func buildQuery(topics, categories []string) string {
	quoted := make([]string, len(topics))
	for i, t := range topics {
		quoted[i] = `"` + t + `"`
	}

	cats := make([]string, len(categories))
	for i, c := range categories {
		cats[i] = "cat:" + c
	}

	switch {
	case len(quoted) == 0:
		return "(" + strings.Join(cats, " OR ") + ")"
	case len(cats) == 0:
		return "(" + strings.Join(quoted, " OR ") + ")"
	default:
		return "(" + strings.Join(quoted, " OR ") + ") AND (" + strings.Join(cats, " OR ") + ")"
	}
}

// topicRelevance counts topic matches weighted toward the title: 3 points for
// a title hit, 1 for an abstract hit, averaged over topics and capped at 3.0
func topicRelevance(paper *types.Paper, topics []string) float64 {
	if len(topics) == 0 {
		return 0
	}

	title := strings.ToLower(paper.Title)
	abstract := strings.ToLower(paper.Abstract)

	matches := 0
	for _, topic := range topics {
		t := strings.ToLower(topic)
		if strings.Contains(title, t) {
			matches += 3
		}
		if strings.Contains(abstract, t) {
			matches += 1
		}
	}

	relevance := float64(matches) / float64(len(topics))
	if relevance > 3.0 {
		relevance = 3.0
	}
	return relevance
}

// paperFromEntry maps one Atom entry to a Paper
func paperFromEntry(item *gofeed.Item) *types.Paper {
	if item == nil || item.Title == "" {
		return nil
	}

	// Entry ids look like http://arxiv.org/abs/2401.12345v1
	id := item.GUID
	if id == "" {
		id = item.Link
	}
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}

	var published, updated time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		updated = item.UpdatedParsed.UTC()
	}

	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	categories := make([]string, len(item.Categories))
	copy(categories, item.Categories)

	primary := primaryCategory(item)
	if primary == "" && len(categories) > 0 {
		primary = categories[0]
	}

	pdfURL := ""
	if id != "" {
		pdfURL = "https://arxiv.org/pdf/" + id
	}

	return &types.Paper{
		ID:              id,
		Title:           strings.Join(strings.Fields(item.Title), " "),
		Abstract:        strings.TrimSpace(item.Description),
		Authors:         authors,
		Categories:      categories,
		PrimaryCategory: primary,
		Published:       published,
		Updated:         updated,
		PDFURL:          pdfURL,
		EntryURL:        item.Link,
		FetchedAt:       time.Now().UTC(),
	}
}

// primaryCategory reads the arxiv:primary_category extension element
func primaryCategory(item *gofeed.Item) string {
	exts, ok := item.Extensions["arxiv"]
	if !ok {
		return ""
	}
	for _, ext := range exts["primary_category"] {
		if term, ok := ext.Attrs["term"]; ok {
			return term
		}
	}
	return ""
}
