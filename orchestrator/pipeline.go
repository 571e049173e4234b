package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"paperbot/archive"
	"paperbot/clustering"
	"paperbot/config"
	"paperbot/kafka"
	"paperbot/recommender"
	"paperbot/store"
	"paperbot/types"
)

// Crawler fetches papers from the upstream paper source
type Crawler interface {
	SearchPapers(ctx context.Context, topics, categories []string, maxResults, daysBack int) ([]*types.Paper, error)
}

// Enricher normalizes and enriches a crawl batch
type Enricher interface {
	EnrichAll(ctx context.Context, papers []*types.Paper) []*types.Paper
}

// Clusterer groups papers into topic clusters
type Clusterer interface {
	Cluster(ctx context.Context, papers []*types.Paper, targetK int, method clustering.Method) ([]*clustering.PaperCluster, error)
}

// Pipeline runs the end-to-end recommendation cycle: crawl, enrich, cluster,
// score per user, persist and deliver
type Pipeline struct {
	crawler   Crawler
	enricher  Enricher
	clusterer Clusterer
	store     store.Store
	producer  *kafka.Producer
	archive   *archive.Archive
	topics    []string
}

// Config wires a pipeline. Clusterer, producer and archive are optional.
type Config struct {
	Crawler   Crawler
	Enricher  Enricher
	Clusterer Clusterer
	Store     store.Store
	Producer  *kafka.Producer
	Archive   *archive.Archive
	Topics    []string
}

// New creates a pipeline
func New(cfg Config) (*Pipeline, error) {
	if cfg.Crawler == nil || cfg.Store == nil {
		return nil, fmt.Errorf("pipeline requires a crawler and a store")
	}
	return &Pipeline{
		crawler:   cfg.Crawler,
		enricher:  cfg.Enricher,
		clusterer: cfg.Clusterer,
		store:     cfg.Store,
		producer:  cfg.Producer,
		archive:   cfg.Archive,
		topics:    cfg.Topics,
	}, nil
}

// RunDaily executes one full daily cycle
func (p *Pipeline) RunDaily(ctx context.Context) error {
	log.Println("=== Daily recommendation cycle ===")

	papers, err := p.crawlAndStore(ctx, "daily", int(config.DailyLookback/(24*time.Hour)))
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		log.Println("No new papers, skipping scoring")
		return nil
	}

	p.analyzeTopics(ctx, papers)
	return p.scoreAllUsers(ctx, papers)
}

// RunTrending refreshes hot signals over a short window without generating
// recommendations
func (p *Pipeline) RunTrending(ctx context.Context) error {
	log.Println("=== Trending refresh cycle ===")

	_, err := p.crawlAndStore(ctx, "trending", int(config.TrendingLookback/(24*time.Hour)))
	return err
}

// crawlAndStore fetches, enriches and persists one batch
func (p *Pipeline) crawlAndStore(ctx context.Context, label string, daysBack int) ([]*types.Paper, error) {
	papers, err := p.crawler.SearchPapers(ctx, p.topics, nil, config.MaxCrawlResults, daysBack)
	if err != nil {
		return nil, fmt.Errorf("crawl failed: %w", err)
	}
	log.Printf("Crawled %d papers", len(papers))

	if err := p.producer.Publish(kafka.TopicPapersCrawled, label, kafka.PaperEvent{
		Stage:     "crawled",
		Papers:    papers,
		Topics:    p.topics,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		log.Printf("Failed to publish crawl event: %v", err)
	}

	if p.enricher != nil {
		papers = p.enricher.EnrichAll(ctx, papers)
	}

	saved := 0
	for _, paper := range papers {
		if err := p.store.SavePaper(ctx, paper); err != nil {
			log.Printf("Failed to save paper %s: %v", paper.ID, err)
			continue
		}
		saved++
	}
	log.Printf("Saved %d/%d papers", saved, len(papers))

	if err := p.archive.ArchivePapers(ctx, label, papers); err != nil {
		log.Printf("Failed to archive batch: %v", err)
	}

	if err := p.producer.Publish(kafka.TopicPapersEnriched, label, kafka.PaperEvent{
		Stage:     "enriched",
		Papers:    papers,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		log.Printf("Failed to publish enriched event: %v", err)
	}
	return papers, nil
}

// analyzeTopics clusters the batch, detects emerging topics against stored
// history and appends the new snapshots. Clustering problems never fail the
// cycle; scoring proceeds without fresh cluster data.
func (p *Pipeline) analyzeTopics(ctx context.Context, papers []*types.Paper) {
	if p.clusterer == nil {
		return
	}

	clusters, err := p.clusterer.Cluster(ctx, papers, config.DefaultClusterCount, clustering.MethodPartition)
	if err != nil {
		log.Printf("Clustering failed, continuing without topic analysis: %v", err)
		return
	}

	historical, err := p.store.RecentClusterSnapshots(ctx, time.Now().UTC().Add(-30*24*time.Hour))
	if err != nil {
		log.Printf("Failed to load cluster history: %v", err)
	}

	emerging := clustering.DetectEmergingTopics(clusters, historical, 0)
	for _, topic := range emerging {
		log.Printf("Emerging topic (%s): %v, size %d", topic.Type, topic.Keywords, topic.Size)
	}

	now := time.Now().UTC()
	snapshots := make([]types.ClusterSnapshot, 0, len(clusters))
	for _, cluster := range clusters {
		snapshot := cluster.Snapshot()
		snapshot.TakenAt = now
		snapshots = append(snapshots, snapshot)
	}
	if err := p.store.SaveClusterSnapshots(ctx, snapshots); err != nil {
		log.Printf("Failed to save cluster snapshots: %v", err)
	}
}

// scoreAllUsers runs an independent scoring pass per active user. Passes
// share the read-only candidate snapshot and nothing else, so one user's
// failure never affects another's.
func (p *Pipeline) scoreAllUsers(ctx context.Context, candidates []*types.Paper) error {
	users, err := p.store.ActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		if err := p.scoreUser(ctx, user, candidates); err != nil {
			log.Printf("Scoring failed for user %s: %v", user.ID, err)
		}
	}
	return nil
}

func (p *Pipeline) scoreUser(ctx context.Context, user *types.User, candidates []*types.Paper) error {
	prefs, err := p.store.GetPreferences(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	already, err := p.store.RecommendedPaperIDs(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load recommendation history: %w", err)
	}

	ranked := recommender.ScoreAndRank(candidates, user.Topics, prefs, already, recommender.Options{})
	if len(ranked) > prefs.MaxDailyRecommendations {
		ranked = ranked[:prefs.MaxDailyRecommendations]
	}

	created := make([]string, 0, len(ranked))
	var top *types.ScoredCandidate
	for i := range ranked {
		sc := ranked[i]
		ok, err := p.store.SaveRecommendation(ctx, &types.Recommendation{
			UserID:         user.ID,
			PaperID:        sc.Paper.ID,
			RelevanceScore: sc.RelevanceScore,
			NoveltyScore:   sc.NoveltyScore,
			HotScore:       sc.HotScore,
			OverallScore:   sc.OverallScore,
			Reason:         sc.Reason,
			Topics:         sc.Topics,
			CreatedAt:      time.Now().UTC(),
		})
		if err != nil {
			log.Printf("Failed to save recommendation %s/%s: %v", user.ID, sc.Paper.ID, err)
			continue
		}
		if ok {
			created = append(created, sc.Paper.ID)
			if top == nil {
				top = &ranked[i]
			}
		}
	}

	log.Printf("✓ %d recommendations for user %s", len(created), user.ID)

	if len(created) > 0 {
		if err := p.producer.Publish(kafka.TopicRecommendations, user.ID, kafka.RecommendationEvent{
			UserID:    user.ID,
			Count:     len(created),
			PaperIDs:  created,
			Top:       top,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			log.Printf("Failed to publish recommendation event: %v", err)
		}
	}
	return nil
}
