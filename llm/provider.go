package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"paperbot/types"
)

const requestTimeout = 30 * time.Second

// Provider analyzes one paper and returns structured insights
type Provider interface {
	Name() string
	Model() string
	AnalyzePaper(ctx context.Context, title, abstract string) (*types.PaperAnalysis, error)
}

const analysisPrompt = `Analyze this academic paper:

Title: %s
Abstract: %s

Please provide:
1. Main topic/research area
2. Key contributions
3. Novelty score (1-10)
4. Technical keywords (5-8 terms)
5. Potential applications
6. Related research areas

Format as JSON with keys: topic, contributions, novelty_score, keywords, applications, related_areas`

// ChatProvider calls an OpenAI-compatible chat completions endpoint.
// DeepSeek, Kimi, Seed and GLM all expose this API shape.
type ChatProvider struct {
	name    string
	apiKey  string
	baseURL string
	model   string
}

// NewDeepSeek creates a provider for the DeepSeek API
func NewDeepSeek(apiKey string) *ChatProvider {
	return &ChatProvider{name: "deepseek", apiKey: apiKey, baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat"}
}

// NewKimi creates a provider for the Kimi (Moonshot) API
func NewKimi(apiKey string) *ChatProvider {
	return &ChatProvider{name: "kimi", apiKey: apiKey, baseURL: "https://api.moonshot.cn/v1", model: "moonshot-v1-8k"}
}

// NewSeed creates a provider for the Seed API
func NewSeed(apiKey string) *ChatProvider {
	return &ChatProvider{name: "seed", apiKey: apiKey, baseURL: "https://api.seed.tencent.com/v1", model: "seed-v1"}
}

// NewGLM creates a provider for the GLM (Zhipu) API
func NewGLM(apiKey string) *ChatProvider {
	return &ChatProvider{name: "glm", apiKey: apiKey, baseURL: "https://open.bigmodel.cn/api/paas/v4", model: "glm-4"}
}

func (p *ChatProvider) Name() string  { return p.name }
func (p *ChatProvider) Model() string { return p.model }

func (p *ChatProvider) AnalyzePaper(ctx context.Context, title, abstract string) (*types.PaperAnalysis, error) {
	payload := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": fmt.Sprintf(analysisPrompt, title, abstract)},
		},
		"temperature": 0.3,
		"max_tokens":  1000,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("%s error: status %d: %v", p.name, resp.StatusCode, body)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", p.name)
	}

	analysis, err := ParseAnalysis(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%s returned unparseable analysis: %w", p.name, err)
	}
	analysis.Provider = p.name
	analysis.Model = p.model
	return analysis, nil
}

// ParseAnalysis extracts a PaperAnalysis from raw model output. Models wrap
// JSON in markdown fences or prose more often than not, so the parser looks
// for the outermost JSON object rather than decoding the content directly.
func ParseAnalysis(content string) (*types.PaperAnalysis, error) {
	raw := strings.TrimSpace(content)
	if fenced, ok := strings.CutPrefix(raw, "```json"); ok {
		raw = fenced
	} else if fenced, ok := strings.CutPrefix(raw, "```"); ok {
		raw = fenced
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in model output")
	}

	// Contributions come back as either a list or one prose string
	var loose struct {
		Topic         string          `json:"topic"`
		Contributions json.RawMessage `json:"contributions"`
		NoveltyScore  float64         `json:"novelty_score"`
		Keywords      []string        `json:"keywords"`
		Applications  json.RawMessage `json:"applications"`
		RelatedAreas  []string        `json:"related_areas"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &loose); err != nil {
		return nil, err
	}

	analysis := &types.PaperAnalysis{
		Topic:         loose.Topic,
		Contributions: stringOrList(loose.Contributions),
		NoveltyScore:  clampNovelty(loose.NoveltyScore),
		Keywords:      loose.Keywords,
		Applications:  stringOrList(loose.Applications),
		RelatedAreas:  loose.RelatedAreas,
	}
	return analysis, nil
}

func stringOrList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

func clampNovelty(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
