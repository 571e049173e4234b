package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"paperbot/store"
	"paperbot/types"
)

type fakeSender struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (f *fakeSender) Send(to, subject string, htmlBody []byte) error {
	if f.fail {
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: string(htmlBody)})
	return nil
}

func seedUser(t *testing.T, st store.Store, id string, daily bool) {
	t.Helper()
	ctx := context.Background()
	if err := st.SaveUser(ctx, &types.User{
		ID:                 id,
		Email:              id + "@example.com",
		Username:           id,
		Active:             true,
		EmailNotifications: true,
	}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	prefs, _ := st.GetPreferences(ctx, id)
	prefs.DailyDigest = daily
	if err := st.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("save prefs: %v", err)
	}
}

func TestRenderDigestEscapesAndFormats(t *testing.T) {
	body, err := RenderDigest("Daily Research Digest", "Fresh papers:", []DigestItem{
		{Title: "Attention <is> All You Need", Score: 23.456, Reason: "trending", URL: "https://arxiv.org/abs/1706.03762"},
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	html := string(body)
	if !strings.Contains(html, "Attention &lt;is&gt; All You Need") {
		t.Fatal("title not HTML-escaped")
	}
	if !strings.Contains(html, "Score: 23.5") {
		t.Fatal("score not formatted to one decimal")
	}
	if !strings.Contains(html, `href="https://arxiv.org/abs/1706.03762"`) {
		t.Fatal("link missing")
	}
}

func TestSendDailyDigests(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sender := &fakeSender{}
	svc := NewService(st, sender, nil)

	seedUser(t, st, "alice", true)
	st.SavePaper(ctx, &types.Paper{
		ID:        "2401.1",
		Title:     "Fresh paper",
		EntryURL:  "https://arxiv.org/abs/2401.1",
		Published: time.Now().UTC(),
	})
	st.SaveRecommendation(ctx, &types.Recommendation{
		UserID: "alice", PaperID: "2401.1", OverallScore: 21, Reason: "gaining attention",
		CreatedAt: time.Now().UTC(),
	})

	if err := svc.SendDailyDigests(ctx); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(sender.sent))
	}

	mail := sender.sent[0]
	if mail.to != "alice@example.com" {
		t.Fatalf("unexpected recipient: %s", mail.to)
	}
	if mail.subject != "Daily Research Digest - 1 New Papers" {
		t.Fatalf("unexpected subject: %s", mail.subject)
	}
	if !strings.Contains(mail.body, "Fresh paper") {
		t.Fatal("digest body missing paper title")
	}

	// Sending again produces nothing: the recommendation is marked emailed
	if err := svc.SendDailyDigests(ctx); err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("emailed recommendation re-sent: %d digests", len(sender.sent))
	}
}

func TestSendDailyDigestsSkipsOptedOutUsers(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sender := &fakeSender{}
	svc := NewService(st, sender, nil)

	seedUser(t, st, "nodigest", false)
	st.SaveRecommendation(ctx, &types.Recommendation{
		UserID: "nodigest", PaperID: "2401.2", CreatedAt: time.Now().UTC(),
	})

	if err := svc.SendDailyDigests(ctx); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("opted-out user received a digest")
	}
}

func TestSendDigestFailureKeepsRecommendationsPending(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sender := &fakeSender{fail: true}
	svc := NewService(st, sender, nil)

	seedUser(t, st, "bob", true)
	st.SaveRecommendation(ctx, &types.Recommendation{
		UserID: "bob", PaperID: "2401.3", CreatedAt: time.Now().UTC(),
	})

	if err := svc.SendDailyDigests(ctx); err != nil {
		t.Fatalf("run should not fail on per-user errors: %v", err)
	}

	pending, _ := st.UnemailedRecommendations(ctx, "bob", time.Now().UTC().Add(-time.Hour))
	if len(pending) != 1 {
		t.Fatal("failed send must leave the recommendation unmarked")
	}
}
