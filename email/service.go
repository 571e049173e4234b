package email

import (
	"context"
	"fmt"
	"log"
	"time"

	"paperbot/archive"
	"paperbot/config"
	"paperbot/store"
	"paperbot/types"
)

// Service assembles and sends recommendation digests
type Service struct {
	store   store.Store
	sender  Sender
	archive *archive.Archive
}

// NewService creates a digest service. The archive may be nil.
func NewService(st store.Store, sender Sender, arch *archive.Archive) *Service {
	return &Service{store: st, sender: sender, archive: arch}
}

// SendDailyDigests mails every opted-in user their unsent recommendations
// from the last day. Per-user failures are logged and do not stop the run.
func (s *Service) SendDailyDigests(ctx context.Context) error {
	return s.sendDigests(ctx, "daily", 24*time.Hour)
}

// SendWeeklyDigests mails weekly-digest subscribers the past week's unsent
// recommendations
func (s *Service) SendWeeklyDigests(ctx context.Context) error {
	return s.sendDigests(ctx, "weekly", config.DailyLookback)
}

func (s *Service) sendDigests(ctx context.Context, kind string, window time.Duration) error {
	if s.sender == nil {
		log.Println("Email sender not configured, skipping digests")
		return nil
	}

	users, err := s.store.ActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	sent := 0
	for _, user := range users {
		if !user.EmailNotifications || user.Email == "" {
			continue
		}

		prefs, err := s.store.GetPreferences(ctx, user.ID)
		if err != nil {
			log.Printf("Failed to load preferences for %s: %v", user.ID, err)
			continue
		}
		if kind == "daily" && !prefs.DailyDigest {
			continue
		}
		if kind == "weekly" && !prefs.WeeklyDigest {
			continue
		}

		if err := s.sendUserDigest(ctx, user, kind, window); err != nil {
			log.Printf("Failed to send %s digest to %s: %v", kind, user.Email, err)
			continue
		}
		sent++
	}

	log.Printf("Sent %d %s digests", sent, kind)
	return nil
}

func (s *Service) sendUserDigest(ctx context.Context, user *types.User, kind string, window time.Duration) error {
	since := time.Now().UTC().Add(-window)
	recs, err := s.store.UnemailedRecommendations(ctx, user.ID, since)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	items := itemsFromRecommendations(recs, func(paperID string) *types.Paper {
		paper, err := s.store.GetPaper(ctx, paperID)
		if err != nil {
			return nil
		}
		return paper
	})

	title := "Daily Research Digest"
	if kind == "weekly" {
		title = "Weekly Research Digest"
	}
	subject := fmt.Sprintf("%s - %d New Papers", title, len(recs))

	body, err := RenderDigest(title, "Here are the latest papers that match your interests:", items)
	if err != nil {
		return err
	}

	if err := s.sender.Send(user.Email, subject, body); err != nil {
		return err
	}

	paperIDs := make([]string, len(recs))
	for i, rec := range recs {
		paperIDs[i] = rec.PaperID
	}
	if err := s.store.MarkEmailed(ctx, user.ID, paperIDs); err != nil {
		return fmt.Errorf("digest sent but not marked: %w", err)
	}

	if err := s.archive.ArchiveDigest(ctx, user.ID, body); err != nil {
		log.Printf("Failed to archive digest for %s: %v", user.ID, err)
	}
	return nil
}
