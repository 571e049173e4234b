package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"paperbot/types"
)

const (
	sourceTimeout = 30 * time.Second
	userAgent     = "paperbot/1.0 (research paper trend collector)"
)

// arxivIDPattern matches modern arXiv identifiers like 2401.12345
var arxivIDPattern = regexp.MustCompile(`\b\d{4}\.\d{4,5}\b`)

// Source searches one social platform for mentions of a query term
type Source interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Mention, error)
}

// NewDefaultSources returns every source that is usable with the current
// environment. Reddit and Hugging Face need no credentials; X requires
// X_BEARER_TOKEN.
func NewDefaultSources() []Source {
	sources := []Source{
		&RedditSource{},
		&HuggingFaceSource{},
	}
	if token := os.Getenv("X_BEARER_TOKEN"); token != "" {
		sources = append(sources, &XSource{bearerToken: token})
	}
	return sources
}

// extractPaperIDs pulls arXiv identifiers out of free-form post text
func extractPaperIDs(text string) []string {
	matches := arxivIDPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		ids = append(ids, m)
	}
	return ids
}

func doJSONRequest(ctx context.Context, req *http.Request, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, sourceTimeout)
	defer cancel()
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// XSource searches recent posts via the X API v2
// Endpoint: GET https://api.x.com/2/tweets/search/recent
type XSource struct {
	bearerToken string
	endpoint    string
}

func (x *XSource) Name() string { return "x" }

func (x *XSource) Search(ctx context.Context, query string, limit int) ([]types.Mention, error) {
	endpoint := x.endpoint
	if endpoint == "" {
		endpoint = "https://api.x.com/2/tweets/search/recent"
	}

	if limit < 10 {
		limit = 10 // API minimum for max_results
	}
	if limit > 100 {
		limit = 100
	}

	params := url.Values{}
	params.Set("query", query+" -is:retweet")
	params.Set("max_results", fmt.Sprintf("%d", limit))
	params.Set("tweet.fields", "public_metrics,created_at,author_id")

	req, err := http.NewRequest(http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+x.bearerToken)

	var parsed struct {
		Data []struct {
			ID            string `json:"id"`
			Text          string `json:"text"`
			AuthorID      string `json:"author_id"`
			CreatedAt     string `json:"created_at"`
			PublicMetrics struct {
				RetweetCount int `json:"retweet_count"`
				ReplyCount   int `json:"reply_count"`
				LikeCount    int `json:"like_count"`
				QuoteCount   int `json:"quote_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := doJSONRequest(ctx, req, &parsed); err != nil {
		return nil, fmt.Errorf("x search failed: %w", err)
	}

	mentions := make([]types.Mention, 0, len(parsed.Data))
	for _, post := range parsed.Data {
		pm := post.PublicMetrics
		timestamp, _ := time.Parse(time.RFC3339, post.CreatedAt)
		mentions = append(mentions, types.Mention{
			Platform:        "x",
			Content:         post.Text,
			Author:          post.AuthorID,
			URL:             "https://x.com/i/status/" + post.ID,
			EngagementScore: float64(pm.LikeCount + pm.RetweetCount + pm.QuoteCount + pm.ReplyCount),
			PaperMentions:   extractPaperIDs(post.Text),
			Timestamp:       timestamp,
		})
	}
	return mentions, nil
}

// RedditSource searches public posts via Reddit's unauthenticated JSON API
// Endpoint: GET https://www.reddit.com/search.json
type RedditSource struct {
	endpoint string
}

func (r *RedditSource) Name() string { return "reddit" }

func (r *RedditSource) Search(ctx context.Context, query string, limit int) ([]types.Mention, error) {
	endpoint := r.endpoint
	if endpoint == "" {
		endpoint = "https://www.reddit.com/search.json"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "new")
	params.Set("t", "week")
	params.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequest(http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data struct {
			Children []struct {
				Data struct {
					Title       string  `json:"title"`
					Selftext    string  `json:"selftext"`
					Author      string  `json:"author"`
					Permalink   string  `json:"permalink"`
					URL         string  `json:"url"`
					Score       int     `json:"score"`
					NumComments int     `json:"num_comments"`
					CreatedUTC  float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := doJSONRequest(ctx, req, &parsed); err != nil {
		return nil, fmt.Errorf("reddit search failed: %w", err)
	}

	mentions := make([]types.Mention, 0, len(parsed.Data.Children))
	for _, child := range parsed.Data.Children {
		post := child.Data
		text := post.Title + " " + post.Selftext + " " + post.URL
		mentions = append(mentions, types.Mention{
			Platform:        "reddit",
			Content:         post.Title,
			Author:          post.Author,
			URL:             "https://www.reddit.com" + post.Permalink,
			EngagementScore: float64(post.Score + post.NumComments),
			PaperMentions:   extractPaperIDs(text),
			Timestamp:       time.Unix(int64(post.CreatedUTC), 0).UTC(),
		})
	}
	return mentions, nil
}

// HuggingFaceSource treats model/dataset activity as a mention signal.
// A paper implemented by popular models is getting practitioner attention
// even when nobody is posting about it.
// Endpoint: GET https://huggingface.co/api/models
type HuggingFaceSource struct {
	endpoint string
}

func (h *HuggingFaceSource) Name() string { return "huggingface" }

func (h *HuggingFaceSource) Search(ctx context.Context, query string, limit int) ([]types.Mention, error) {
	endpoint := h.endpoint
	if endpoint == "" {
		endpoint = "https://huggingface.co/api/models"
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("sort", "downloads")
	params.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequest(http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var parsed []struct {
		ModelID   string   `json:"modelId"`
		Downloads int      `json:"downloads"`
		Likes     int      `json:"likes"`
		Tags      []string `json:"tags"`
	}
	if err := doJSONRequest(ctx, req, &parsed); err != nil {
		return nil, fmt.Errorf("huggingface search failed: %w", err)
	}

	mentions := make([]types.Mention, 0, len(parsed))
	for _, model := range parsed {
		// arXiv papers are linked via tags like "arxiv:2401.12345"
		var paperIDs []string
		for _, tag := range model.Tags {
			if id, ok := strings.CutPrefix(tag, "arxiv:"); ok {
				paperIDs = append(paperIDs, id)
			}
		}
		mentions = append(mentions, types.Mention{
			Platform:        "huggingface",
			Content:         model.ModelID,
			URL:             "https://huggingface.co/" + model.ModelID,
			EngagementScore: float64(model.Downloads + model.Likes),
			PaperMentions:   paperIDs,
			Timestamp:       time.Now().UTC(),
		})
	}
	return mentions, nil
}
