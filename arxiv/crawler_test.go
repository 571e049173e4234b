package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paperbot/types"
)

const atomEntry = `
	<entry>
		<id>http://arxiv.org/abs/%s</id>
		<updated>%s</updated>
		<published>%s</published>
		<title>%s</title>
		<summary>%s</summary>
		<author><name>Jane Doe</name></author>
		<arxiv:primary_category xmlns:arxiv="http://arxiv.org/schemas/atom" term="cs.AI"/>
		<category term="cs.AI"/>
		<category term="cs.LG"/>
		<link href="http://arxiv.org/abs/%s" rel="alternate" type="text/html"/>
	</entry>`

func atomFeed(entries ...string) string {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
	<feed xmlns="http://www.w3.org/2005/Atom">
		<title>ArXiv Query Results</title>`
	for _, e := range entries {
		feed += e
	}
	return feed + "</feed>"
}

func entry(id, title, summary string, published time.Time) string {
	ts := published.Format(time.RFC3339)
	return fmt.Sprintf(atomEntry, id, ts, ts, title, summary, id)
}

func testCrawler(endpoint string) *Crawler {
	c := NewCrawler()
	c.endpoint = endpoint
	return c
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, body)
	}))
}

func TestSearchPapersParsesEntries(t *testing.T) {
	now := time.Now().UTC()
	server := feedServer(t, atomFeed(
		entry("2401.11111v1", "Sparse   Attention\n  Models", "We study sparse attention.", now.Add(-24*time.Hour)),
	))
	defer server.Close()

	crawler := testCrawler(server.URL)
	papers, err := crawler.SearchPapers(context.Background(), []string{"attention"}, nil, 10, 7)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}

	p := papers[0]
	if p.ID != "2401.11111v1" {
		t.Fatalf("unexpected id: %s", p.ID)
	}
	if p.Title != "Sparse Attention Models" {
		t.Fatalf("title whitespace not normalized: %q", p.Title)
	}
	if p.PrimaryCategory != "cs.AI" {
		t.Fatalf("unexpected primary category: %s", p.PrimaryCategory)
	}
	if len(p.Categories) != 2 {
		t.Fatalf("unexpected categories: %v", p.Categories)
	}
	if len(p.Authors) != 1 || p.Authors[0] != "Jane Doe" {
		t.Fatalf("unexpected authors: %v", p.Authors)
	}
	if p.PDFURL != "https://arxiv.org/pdf/2401.11111v1" {
		t.Fatalf("unexpected pdf url: %s", p.PDFURL)
	}
}

func TestSearchPapersStopsAtStaleEntries(t *testing.T) {
	now := time.Now().UTC()
	server := feedServer(t, atomFeed(
		entry("2401.00001v1", "Fresh paper", "Recent work.", now.Add(-24*time.Hour)),
		entry("2312.00001v1", "Stale paper", "Old work.", now.Add(-30*24*time.Hour)),
		entry("2401.00002v1", "Unreachable paper", "Should never be scanned.", now),
	))
	defer server.Close()

	crawler := testCrawler(server.URL)
	papers, err := crawler.SearchPapers(context.Background(), []string{"paper"}, nil, 10, 7)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(papers) != 1 || papers[0].ID != "2401.00001v1" {
		t.Fatalf("expected scan to stop at first stale entry, got %d papers", len(papers))
	}
}

func TestBuildQuery(t *testing.T) {
	got := buildQuery([]string{"large language models", "agents"}, []string{"cs.AI", "cs.CL"})
	want := `("large language models" OR "agents") AND (cat:cs.AI OR cat:cs.CL)`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if got := buildQuery(nil, []string{"cs.AI"}); got != "(cat:cs.AI)" {
		t.Fatalf("unexpected category-only query: %s", got)
	}
	if got := buildQuery([]string{"rag"}, nil); got != `("rag")` {
		t.Fatalf("unexpected topic-only query: %s", got)
	}
}

func TestTopicRelevanceWeightsTitleOverAbstract(t *testing.T) {
	paper := &types.Paper{
		Title:    "Diffusion models for video",
		Abstract: "We apply diffusion models and transformers to video generation.",
	}

	// Title hit (3) plus abstract hit (1) over one topic, capped at 3
	if got := topicRelevance(paper, []string{"diffusion"}); got != 3.0 {
		t.Fatalf("expected capped 3.0, got %f", got)
	}

	// Abstract-only hit scores 1 point over two topics
	if got := topicRelevance(paper, []string{"transformers", "robotics"}); got != 0.5 {
		t.Fatalf("expected 0.5, got %f", got)
	}

	if got := topicRelevance(paper, nil); got != 0 {
		t.Fatalf("expected 0 for no topics, got %f", got)
	}
}

func TestGetTrendingPapersOrdering(t *testing.T) {
	now := time.Now().UTC()
	server := feedServer(t, atomFeed(
		entry("2401.00010v1", "Unrelated work", "Nothing matching here.", now.Add(-12*time.Hour)),
		entry("2401.00011v1", "agents in the wild", "A study of agents.", now.Add(-12*time.Hour)),
	))
	defer server.Close()

	crawler := testCrawler(server.URL)
	trending, err := crawler.GetTrendingPapers(context.Background(), []string{"agents"}, 3, 0)
	if err != nil {
		t.Fatalf("trending failed: %v", err)
	}
	if len(trending) != 2 {
		t.Fatalf("expected 2 trending papers, got %d", len(trending))
	}
	if trending[0].Paper.ID != "2401.00011v1" {
		t.Fatalf("expected matching paper ranked first, got %s", trending[0].Paper.ID)
	}
	if trending[0].TrendingScore <= trending[1].TrendingScore {
		t.Fatal("trending scores not descending")
	}
}
