package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"paperbot/types"
)

// APIClient is a thin HTTP client for the recommendation API
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Recommendations fetches the user's recommendation list
func (c *APIClient) Recommendations(userID string) ([]*types.Recommendation, error) {
	resp, err := c.client.Get(c.baseURL + "/users/" + url.PathEscape(userID) + "/recommendations")
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Recommendations []*types.Recommendation `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return parsed.Recommendations, nil
}

// Paper fetches one paper by its arXiv identifier
func (c *APIClient) Paper(paperID string) (*types.Paper, error) {
	resp, err := c.client.Get(c.baseURL + "/papers/" + url.PathEscape(paperID))
	if err != nil {
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var paper types.Paper
	if err := json.NewDecoder(resp.Body).Decode(&paper); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &paper, nil
}

// MarkRead marks one recommendation as read
func (c *APIClient) MarkRead(userID, paperID string) error {
	return c.post("/users/"+url.PathEscape(userID)+"/recommendations/"+url.PathEscape(paperID)+"/read",
		[]byte("{}"), http.StatusOK)
}

// ToggleBookmark sets the bookmark flag on one recommendation
func (c *APIClient) ToggleBookmark(userID, paperID string, bookmarked bool) error {
	body, _ := json.Marshal(map[string]bool{"bookmarked": bookmarked})
	return c.post("/users/"+url.PathEscape(userID)+"/recommendations/"+url.PathEscape(paperID)+"/bookmark",
		body, http.StatusOK)
}

// TriggerDailyRun asks the server to run the crawl and scoring pass now
func (c *APIClient) TriggerDailyRun() error {
	return c.post("/admin/run/daily", []byte("{}"), http.StatusAccepted)
}

func (c *APIClient) post(path string, body []byte, wantStatus int) error {
	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
