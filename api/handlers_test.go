package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"paperbot/store"
	"paperbot/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	srv := httptest.NewServer(NewServer(st, nil).NewRouter())
	t.Cleanup(srv.Close)
	return srv, st
}

func seedPaperAndRec(t *testing.T, st *store.Memory, userID, paperID string) {
	t.Helper()
	ctx := context.Background()
	if err := st.SavePaper(ctx, &types.Paper{
		ID:              paperID,
		Title:           "Test Paper " + paperID,
		PrimaryCategory: "cs.AI",
		Published:       time.Now().UTC().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("save paper: %v", err)
	}
	created, err := st.SaveRecommendation(ctx, &types.Recommendation{
		UserID:       userID,
		PaperID:      paperID,
		OverallScore: 20,
		Reason:       "Based on your research interests",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil || !created {
		t.Fatalf("save recommendation: created=%v err=%v", created, err)
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	if code := getJSON(t, srv.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGetPaperNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	if code := getJSON(t, srv.URL+"/papers/2401.99999", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestRecentPapersFiltersByWindow(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	st.SavePaper(ctx, &types.Paper{
		ID: "2401.1", Title: "fresh", Published: time.Now().UTC().Add(-24 * time.Hour),
	})
	st.SavePaper(ctx, &types.Paper{
		ID: "2312.1", Title: "stale", Published: time.Now().UTC().Add(-30 * 24 * time.Hour),
	})

	var body struct {
		Count  int            `json:"count"`
		Papers []*types.Paper `json:"papers"`
	}
	if code := getJSON(t, srv.URL+"/papers/recent?days=7", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Count != 1 || len(body.Papers) != 1 || body.Papers[0].ID != "2401.1" {
		t.Fatalf("unexpected papers: %+v", body)
	}
}

func TestRecentPapersRejectsBadDays(t *testing.T) {
	srv, _ := newTestServer(t)

	if code := getJSON(t, srv.URL+"/papers/recent?days=soon", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if code := getJSON(t, srv.URL+"/papers/recent?days=-1", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative days, got %d", code)
	}
}

func TestListRecommendations(t *testing.T) {
	srv, st := newTestServer(t)
	seedPaperAndRec(t, st, "alice", "2401.1")
	seedPaperAndRec(t, st, "alice", "2401.2")

	var body struct {
		Count           int                     `json:"count"`
		Recommendations []*types.Recommendation `json:"recommendations"`
	}
	if code := getJSON(t, srv.URL+"/users/alice/recommendations", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Count != 2 {
		t.Fatalf("expected 2 recommendations, got %d", body.Count)
	}
}

func TestMarkReadFlow(t *testing.T) {
	srv, st := newTestServer(t)
	seedPaperAndRec(t, st, "alice", "2401.1")

	resp, err := http.Post(srv.URL+"/users/alice/recommendations/2401.1/read", "application/json", nil)
	if err != nil {
		t.Fatalf("POST read: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	recs, _ := st.UserRecommendations(context.Background(), "alice", 0)
	if len(recs) != 1 || !recs[0].Read {
		t.Fatalf("recommendation not marked read: %+v", recs)
	}
}

func TestMarkReadUnknownRecommendation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/users/alice/recommendations/2401.1/read", "application/json", nil)
	if err != nil {
		t.Fatalf("POST read: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestBookmarkRequiresBoolBody(t *testing.T) {
	srv, st := newTestServer(t)
	seedPaperAndRec(t, st, "alice", "2401.1")

	resp, err := http.Post(srv.URL+"/users/alice/recommendations/2401.1/bookmark",
		"application/json", bytes.NewBufferString(`{}`))
	if err != nil {
		t.Fatalf("POST bookmark: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without bookmarked field, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/users/alice/recommendations/2401.1/bookmark",
		"application/json", bytes.NewBufferString(`{"bookmarked":true}`))
	if err != nil {
		t.Fatalf("POST bookmark: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	recs, _ := st.UserRecommendations(context.Background(), "alice", 0)
	if len(recs) != 1 || !recs[0].Bookmarked {
		t.Fatalf("recommendation not bookmarked: %+v", recs)
	}
}

func TestGetPreferencesCreatesDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	var prefs types.UserPreference
	if code := getJSON(t, srv.URL+"/users/alice/preferences", &prefs); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if prefs.UserID != "alice" {
		t.Fatalf("unexpected user id %q", prefs.UserID)
	}
	if prefs.MinNoveltyScore != 5.0 || prefs.MinHotScore != 10.0 || prefs.MaxDailyRecommendations != 10 {
		t.Fatalf("unexpected defaults: %+v", prefs)
	}
}

func TestPutPreferencesRoundTrip(t *testing.T) {
	srv, st := newTestServer(t)

	payload := `{"min_novelty_score":7,"min_hot_score":40,"max_daily_recommendations":5,"preferred_categories":["cs.RO"]}`
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/users/alice/preferences",
		bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT preferences: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	prefs, err := st.GetPreferences(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if prefs.MinNoveltyScore != 7 || prefs.MinHotScore != 40 || prefs.MaxDailyRecommendations != 5 {
		t.Fatalf("preferences not saved: %+v", prefs)
	}
	if len(prefs.PreferredCategories) != 1 || prefs.PreferredCategories[0] != "cs.RO" {
		t.Fatalf("preferred categories not saved: %+v", prefs.PreferredCategories)
	}
}

func TestPutPreferencesRejectsOutOfRangeThresholds(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/users/alice/preferences",
		bytes.NewBufferString(`{"min_novelty_score":11}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT preferences: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTrendingPapersRankedByHotScore(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	st.SavePaper(ctx, &types.Paper{
		ID: "2401.1", Title: "warm", HotScore: 30, Published: time.Now().UTC().Add(-time.Hour),
	})
	st.SavePaper(ctx, &types.Paper{
		ID: "2401.2", Title: "hot", HotScore: 80, Published: time.Now().UTC().Add(-2 * time.Hour),
	})

	var body struct {
		Papers []*types.Paper `json:"papers"`
	}
	if code := getJSON(t, srv.URL+"/papers/trending", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(body.Papers) != 2 || body.Papers[0].ID != "2401.2" {
		t.Fatalf("papers not ranked by hot score: %+v", body.Papers)
	}
}

func TestTopicsRoundTrip(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	if code := getJSON(t, srv.URL+"/users/alice/topics", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", code)
	}

	st.SaveUser(ctx, &types.User{ID: "alice", Email: "alice@example.com", Active: true})

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/users/alice/topics",
		bytes.NewBufferString(`{"topics":["llm","robotics"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT topics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Topics []string `json:"topics"`
	}
	if code := getJSON(t, srv.URL+"/users/alice/topics", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(body.Topics) != 2 || body.Topics[0] != "llm" {
		t.Fatalf("topics not saved: %+v", body.Topics)
	}

	user, _ := st.GetUser(ctx, "alice")
	if len(user.Topics) != 2 {
		t.Fatalf("user topics not persisted: %+v", user.Topics)
	}
}

func TestClusterHistory(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	st.SaveClusterSnapshots(ctx, []types.ClusterSnapshot{
		{Keywords: []string{"diffusion", "sampling"}, Size: 8, TakenAt: time.Now().UTC()},
	})

	var body struct {
		Count    int                     `json:"count"`
		Clusters []types.ClusterSnapshot `json:"clusters"`
	}
	if code := getJSON(t, srv.URL+"/clusters/history", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Count != 1 || len(body.Clusters) != 1 {
		t.Fatalf("unexpected cluster history: %+v", body)
	}
}

func TestAdminRoutesAbsentWithoutPipeline(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/admin/run/daily", "application/json", nil)
	if err != nil {
		t.Fatalf("POST admin: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without a pipeline, got %d", resp.StatusCode)
	}
}
