package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"paperbot/types"
)

// Manager fans paper analysis out over the configured providers, falling back
// down the list when one fails
type Manager struct {
	providers []Provider
}

// NewManager creates a manager over an explicit provider list
func NewManager(providers ...Provider) *Manager {
	return &Manager{providers: providers}
}

// NewManagerFromEnv builds a manager from whichever provider API keys are set.
// Order fixes fallback priority.
func NewManagerFromEnv() *Manager {
	var providers []Provider
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		providers = append(providers, NewDeepSeek(key))
	}
	if key := os.Getenv("KIMI_API_KEY"); key != "" {
		providers = append(providers, NewKimi(key))
	}
	if key := os.Getenv("SEED_API_KEY"); key != "" {
		providers = append(providers, NewSeed(key))
	}
	if key := os.Getenv("GLM_API_KEY"); key != "" {
		providers = append(providers, NewGLM(key))
	}
	return &Manager{providers: providers}
}

// Available reports the names of configured providers in fallback order
func (m *Manager) Available() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// AnalyzePaper runs the analysis on the first provider that succeeds. Every
// provider failing is an error; the caller decides whether to apply default
// scores or skip the paper.
func (m *Manager) AnalyzePaper(ctx context.Context, title, abstract string) (*types.PaperAnalysis, error) {
	if len(m.providers) == 0 {
		return nil, errors.New("no llm providers configured")
	}

	var lastErr error
	for _, provider := range m.providers {
		analysis, err := provider.AnalyzePaper(ctx, title, abstract)
		if err != nil {
			log.Printf("Analysis via %s failed: %v", provider.Name(), err)
			lastErr = err
			continue
		}
		return analysis, nil
	}
	return nil, fmt.Errorf("all llm providers failed: %w", lastErr)
}

// AnalyzeWith runs the analysis on one named provider
func (m *Manager) AnalyzeWith(ctx context.Context, name, title, abstract string) (*types.PaperAnalysis, error) {
	for _, provider := range m.providers {
		if provider.Name() == name {
			return provider.AnalyzePaper(ctx, title, abstract)
		}
	}
	return nil, fmt.Errorf("provider %s not available", name)
}
