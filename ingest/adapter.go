package ingest

import (
	"context"
	"log"
	"strings"
	"time"

	"paperbot/config"
	"paperbot/llm"
	"paperbot/trends"
	"paperbot/types"
)

// Analyzer produces structured insights for one paper
type Analyzer interface {
	AnalyzePaper(ctx context.Context, title, abstract string) (*types.PaperAnalysis, error)
}

// MentionCollector gathers per-platform social mentions for one paper
type MentionCollector interface {
	CollectForPaper(ctx context.Context, paper *types.Paper) map[string][]types.Mention
}

// Adapter turns raw crawl results into fully enriched paper signals.
// Both collaborators are optional; missing ones leave default scores in place.
type Adapter struct {
	analyzer  Analyzer
	collector MentionCollector
}

// NewAdapter creates an adapter with explicit collaborators (either may be nil)
func NewAdapter(analyzer Analyzer, collector MentionCollector) *Adapter {
	return &Adapter{analyzer: analyzer, collector: collector}
}

// NewDefaultAdapter wires the adapter from the environment: LLM providers from
// their API keys, social sources from theirs
func NewDefaultAdapter() *Adapter {
	var analyzer Analyzer
	if manager := llm.NewManagerFromEnv(); len(manager.Available()) > 0 {
		analyzer = manager
	}

	var collector MentionCollector
	if sources := trends.NewDefaultSources(); len(sources) > 0 {
		collector = trends.NewCollector(sources, false)
	}
	return NewAdapter(analyzer, collector)
}

// Normalize fills in the canonical defaults on a raw paper record: novelty
// 5.0 when no analysis backs it, hot score left at 0.0, primary category from
// the category list, deduplicated topic tags. Returns false for records too
// malformed to use (no id or title).
func Normalize(paper *types.Paper) bool {
	if paper == nil || paper.ID == "" || strings.TrimSpace(paper.Title) == "" {
		return false
	}

	paper.Title = strings.Join(strings.Fields(paper.Title), " ")
	paper.Abstract = strings.TrimSpace(paper.Abstract)

	if paper.PrimaryCategory == "" && len(paper.Categories) > 0 {
		paper.PrimaryCategory = paper.Categories[0]
	}
	if paper.Analysis == nil && paper.NoveltyScore == 0 {
		paper.NoveltyScore = config.DefaultNoveltyScore
	}
	if paper.HotScore < 0 {
		paper.HotScore = config.DefaultHotScore
	}
	if paper.FetchedAt.IsZero() {
		paper.FetchedAt = time.Now().UTC()
	}

	paper.Topics = dedupe(paper.Topics)
	return true
}

// EnrichAll normalizes and enriches every paper in the batch. A failing
// analysis or mention collection never aborts the batch: the paper keeps its
// defaults, records the error, and processing continues.
func (a *Adapter) EnrichAll(ctx context.Context, papers []*types.Paper) []*types.Paper {
	enriched := make([]*types.Paper, 0, len(papers))
	for _, paper := range papers {
		if !Normalize(paper) {
			log.Printf("Skipping malformed paper record: %+v", paper)
			continue
		}
		a.enrich(ctx, paper)
		enriched = append(enriched, paper)
	}
	return enriched
}

// enrich attaches LLM analysis and a social hot score to one paper
func (a *Adapter) enrich(ctx context.Context, paper *types.Paper) {
	if a.analyzer != nil && paper.Analysis == nil {
		analysis, err := a.analyzer.AnalyzePaper(ctx, paper.Title, paper.Abstract)
		if err != nil {
			paper.EnrichmentError = err.Error()
			log.Printf("Analysis failed for %s, keeping defaults: %v", paper.ID, err)
		} else {
			paper.Analysis = analysis
			paper.NoveltyScore = analysis.NoveltyScore
			if analysis.Topic != "" && !paper.HasTopic(analysis.Topic) {
				paper.Topics = append(paper.Topics, analysis.Topic)
			}
		}
	}

	if a.collector != nil {
		grouped := a.collector.CollectForPaper(ctx, paper)
		paper.HotScore = trends.HotScore(grouped)
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
