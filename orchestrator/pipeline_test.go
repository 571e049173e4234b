package orchestrator

import (
	"context"
	"testing"
	"time"

	"paperbot/store"
	"paperbot/types"
)

type fakeCrawler struct {
	papers []*types.Paper
	err    error
	calls  int
}

func (f *fakeCrawler) SearchPapers(_ context.Context, _, _ []string, _, _ int) ([]*types.Paper, error) {
	f.calls++
	return f.papers, f.err
}

type fakeEnricher struct{}

func (fakeEnricher) EnrichAll(_ context.Context, papers []*types.Paper) []*types.Paper {
	for _, p := range papers {
		if p.NoveltyScore == 0 {
			p.NoveltyScore = 5.0
		}
	}
	return papers
}

func seedActiveUser(t *testing.T, st store.Store, id string, topics ...string) {
	t.Helper()
	if err := st.SaveUser(context.Background(), &types.User{
		ID:     id,
		Email:  id + "@example.com",
		Active: true,
		Topics: topics,
	}); err != nil {
		t.Fatalf("save user: %v", err)
	}
}

func freshPaper(id string, novelty, hot float64, topics ...string) *types.Paper {
	return &types.Paper{
		ID:              id,
		Title:           "paper " + id,
		PrimaryCategory: "cs.AI",
		Published:       time.Now().UTC().Add(-2 * time.Hour),
		NoveltyScore:    novelty,
		HotScore:        hot,
		Topics:          topics,
	}
}

func TestRunDailyCreatesRecommendations(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedActiveUser(t, st, "alice", "llm")

	crawler := &fakeCrawler{papers: []*types.Paper{
		freshPaper("2401.1", 9, 60, "llm"),
		freshPaper("2401.2", 7, 30, "llm"),
		freshPaper("2401.3", 2, 5, "llm"), // below default thresholds
	}}

	pipeline, err := New(Config{Crawler: crawler, Enricher: fakeEnricher{}, Store: st})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	if err := pipeline.RunDaily(ctx); err != nil {
		t.Fatalf("daily run failed: %v", err)
	}

	recs, _ := st.UserRecommendations(ctx, "alice", 0)
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.PaperID == "2401.3" {
			t.Fatal("below-threshold paper was recommended")
		}
	}

	// Papers are persisted for later lookups
	if _, err := st.GetPaper(ctx, "2401.1"); err != nil {
		t.Fatalf("crawled paper not stored: %v", err)
	}
}

func TestRunDailyIsIdempotentAcrossRuns(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedActiveUser(t, st, "alice", "llm")

	crawler := &fakeCrawler{papers: []*types.Paper{freshPaper("2401.4", 9, 60, "llm")}}
	pipeline, _ := New(Config{Crawler: crawler, Enricher: fakeEnricher{}, Store: st})

	if err := pipeline.RunDaily(ctx); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := pipeline.RunDaily(ctx); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	recs, _ := st.UserRecommendations(ctx, "alice", 0)
	if len(recs) != 1 {
		t.Fatalf("re-run duplicated recommendations: got %d", len(recs))
	}
}

func TestRunDailyRespectsDailyLimit(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedActiveUser(t, st, "alice", "llm")

	prefs, _ := st.GetPreferences(ctx, "alice")
	prefs.MaxDailyRecommendations = 2
	st.SavePreferences(ctx, prefs)

	var papers []*types.Paper
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		papers = append(papers, freshPaper("2401."+id, 9, 60, "llm"))
	}
	pipeline, _ := New(Config{Crawler: &fakeCrawler{papers: papers}, Store: st})

	if err := pipeline.RunDaily(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	recs, _ := st.UserRecommendations(ctx, "alice", 0)
	if len(recs) != 2 {
		t.Fatalf("daily limit not applied: got %d", len(recs))
	}
}

func TestRunDailyEmptyCrawlSkipsScoring(t *testing.T) {
	st := store.NewMemory()
	seedActiveUser(t, st, "alice", "llm")

	pipeline, _ := New(Config{Crawler: &fakeCrawler{}, Store: st})
	if err := pipeline.RunDaily(context.Background()); err != nil {
		t.Fatalf("empty crawl should not fail: %v", err)
	}

	recs, _ := st.UserRecommendations(context.Background(), "alice", 0)
	if len(recs) != 0 {
		t.Fatalf("unexpected recommendations: %d", len(recs))
	}
}

func TestScoringIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedActiveUser(t, st, "alice", "llm")
	seedActiveUser(t, st, "bob", "robotics")

	// Alice excludes the paper's category; bob accepts everything
	alicePrefs, _ := st.GetPreferences(ctx, "alice")
	alicePrefs.PreferredCategories = nil
	alicePrefs.ExcludedCategories = []string{"cs.AI"}
	st.SavePreferences(ctx, alicePrefs)

	crawler := &fakeCrawler{papers: []*types.Paper{freshPaper("2401.9", 9, 60, "robotics")}}
	pipeline, _ := New(Config{Crawler: crawler, Store: st})

	if err := pipeline.RunDaily(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	aliceRecs, _ := st.UserRecommendations(ctx, "alice", 0)
	bobRecs, _ := st.UserRecommendations(ctx, "bob", 0)
	if len(aliceRecs) != 0 {
		t.Fatalf("excluded category recommended to alice: %d", len(aliceRecs))
	}
	if len(bobRecs) != 1 {
		t.Fatalf("expected 1 recommendation for bob, got %d", len(bobRecs))
	}
}
