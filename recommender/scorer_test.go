package recommender

import (
	"strings"
	"testing"
	"time"

	"paperbot/types"
)

func recentPaper(id string, novelty, hot float64, topics ...string) *types.Paper {
	return &types.Paper{
		ID:              id,
		Title:           "paper " + id,
		PrimaryCategory: "cs.AI",
		Published:       time.Now().UTC().Add(-24 * time.Hour),
		NoveltyScore:    novelty,
		HotScore:        hot,
		Topics:          topics,
	}
}

func openPrefs() *types.UserPreference {
	return &types.UserPreference{
		MinNoveltyScore:         0,
		MinHotScore:             0,
		MaxDailyRecommendations: 10,
	}
}

func TestScoreAndRankWeightedOverallScore(t *testing.T) {
	// 4 of 5 user topics overlap: relevance 8.0
	userTopics := []string{"llm", "agents", "rag", "alignment", "robotics"}
	paper := recentPaper("p1", 9, 60, "llm", "agents", "rag", "alignment")

	scored := ScoreAndRank([]*types.Paper{paper}, userTopics, openPrefs(), nil, Options{})
	if len(scored) != 1 {
		t.Fatalf("expected 1 scored candidate, got %d", len(scored))
	}

	sc := scored[0]
	if sc.RelevanceScore != 8.0 {
		t.Fatalf("expected relevance 8.0, got %f", sc.RelevanceScore)
	}
	// 8*0.4 + 9*0.2 + 60*0.3 + 5*0.1; hot enters at its native 0-100 scale
	if sc.OverallScore != 23.5 {
		t.Fatalf("expected overall 23.5, got %f", sc.OverallScore)
	}

	for _, phrase := range []string{
		"highly relevant to your interests",
		"highly novel research",
		"trending in the research community",
	} {
		if !strings.Contains(sc.Reason, phrase) {
			t.Fatalf("reason %q missing phrase %q", sc.Reason, phrase)
		}
	}
	if !strings.HasPrefix(sc.Reason, "Recommended because it's ") {
		t.Fatalf("unexpected reason format: %q", sc.Reason)
	}
}

func TestScoreAndRankNeutralRelevanceDefaults(t *testing.T) {
	tagged := recentPaper("tagged", 5, 0, "llm")
	untagged := recentPaper("untagged", 5, 0)

	scored := ScoreAndRank([]*types.Paper{tagged, untagged}, nil, openPrefs(), nil, Options{})
	if len(scored) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(scored))
	}
	// With no user topics every candidate gets the neutral 5.0
	for _, sc := range scored {
		if sc.RelevanceScore != 5.0 {
			t.Fatalf("%s: expected relevance 5.0, got %f", sc.Paper.ID, sc.RelevanceScore)
		}
	}

	// With user topics an untagged paper drops to the fixed 3.0
	scored = ScoreAndRank([]*types.Paper{untagged}, []string{"llm"}, openPrefs(), nil, Options{})
	if scored[0].RelevanceScore != 3.0 {
		t.Fatalf("expected relevance 3.0 for untagged paper, got %f", scored[0].RelevanceScore)
	}
}

func TestScoreAndRankSkipsAlreadyRecommended(t *testing.T) {
	papers := []*types.Paper{
		recentPaper("old", 9, 90, "llm"),
		recentPaper("new", 5, 10, "llm"),
	}
	already := map[string]struct{}{"old": {}}

	scored := ScoreAndRank(papers, []string{"llm"}, openPrefs(), already, Options{})
	if len(scored) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(scored))
	}
	if scored[0].Paper.ID != "new" {
		t.Fatalf("already-recommended paper not skipped: got %s", scored[0].Paper.ID)
	}
}

func TestScoreAndRankCandidateFilter(t *testing.T) {
	now := time.Now().UTC()
	prefs := &types.UserPreference{
		MinNoveltyScore:     5.0,
		MinHotScore:         10.0,
		PreferredCategories: []string{"cs.AI"},
		ExcludedCategories:  []string{"cs.CR"},
	}

	stale := recentPaper("stale", 9, 90)
	stale.Published = now.Add(-10 * 24 * time.Hour)

	wrongCat := recentPaper("wrongcat", 9, 90)
	wrongCat.PrimaryCategory = "math.CO"

	excluded := recentPaper("excluded", 9, 90)
	excluded.PrimaryCategory = "cs.CR"

	dull := recentPaper("dull", 4.9, 90)
	cold := recentPaper("cold", 9, 9.9)
	good := recentPaper("good", 5.0, 10.0)

	scored := ScoreAndRank(
		[]*types.Paper{stale, wrongCat, excluded, dull, cold, good},
		nil, prefs, nil, Options{Now: now},
	)
	if len(scored) != 1 || scored[0].Paper.ID != "good" {
		ids := make([]string, len(scored))
		for i, sc := range scored {
			ids[i] = sc.Paper.ID
		}
		t.Fatalf("expected only the threshold-meeting paper, got %v", ids)
	}
}

func TestScoreAndRankExcludedBeatsPreferredFilter(t *testing.T) {
	// A category listed on both sides is filtered out, and were it scored, both
	// preference adjustments would apply
	prefs := &types.UserPreference{
		PreferredCategories: []string{"cs.AI"},
		ExcludedCategories:  []string{"cs.AI"},
	}
	paper := recentPaper("both", 9, 90)

	if scored := ScoreAndRank([]*types.Paper{paper}, nil, prefs, nil, Options{}); len(scored) != 0 {
		t.Fatalf("expected contradictory category filtered out, got %d", len(scored))
	}

	if got := preferenceScore(paper, prefs); got != 4.0 {
		t.Fatalf("expected both adjustments applied (5+2-3), got %f", got)
	}
}

func TestPreferenceScoreExcludedCategoryPenalty(t *testing.T) {
	paper := recentPaper("p", 5, 0)
	paper.PrimaryCategory = "cs.CR"
	prefs := &types.UserPreference{ExcludedCategories: []string{"cs.CR"}}

	if got := preferenceScore(paper, prefs); got != 2.0 {
		t.Fatalf("expected 2.0, got %f", got)
	}
}

func TestScoreAndRankStableDescendingOrder(t *testing.T) {
	papers := []*types.Paper{
		recentPaper("a", 5, 30, "llm"),
		recentPaper("b", 5, 30, "llm"), // identical scores, must keep input order
		recentPaper("top", 9, 90, "llm"),
	}

	scored := ScoreAndRank(papers, []string{"llm"}, openPrefs(), nil, Options{})
	if len(scored) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(scored))
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].OverallScore > scored[i-1].OverallScore {
			t.Fatal("output not sorted descending by overall score")
		}
	}
	if scored[0].Paper.ID != "top" {
		t.Fatalf("expected highest scorer first, got %s", scored[0].Paper.ID)
	}
	if scored[1].Paper.ID != "a" || scored[2].Paper.ID != "b" {
		t.Fatalf("tie did not keep input order: %s, %s", scored[1].Paper.ID, scored[2].Paper.ID)
	}
}

func TestScoreAndRankIdempotent(t *testing.T) {
	papers := []*types.Paper{
		recentPaper("a", 7, 40, "llm", "agents"),
		recentPaper("b", 6, 25, "rag"),
		recentPaper("c", 9, 80),
	}
	userTopics := []string{"llm", "rag"}
	already := map[string]struct{}{"c": {}}

	first := ScoreAndRank(papers, userTopics, openPrefs(), already, Options{})
	second := ScoreAndRank(papers, userTopics, openPrefs(), already, Options{})

	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Paper.ID != second[i].Paper.ID || first[i].OverallScore != second[i].OverallScore {
			t.Fatalf("pass results differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestBuildReasonFallback(t *testing.T) {
	if got := buildReason(5, 5, 5); got != "Based on your research interests" {
		t.Fatalf("unexpected fallback reason: %q", got)
	}

	got := buildReason(8, 7, 30)
	want := "Recommended because it's highly relevant to your interests, innovative approach, gaining attention"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
