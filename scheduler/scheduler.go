package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"paperbot/config"
)

// Jobs are the periodic entry points the scheduler drives
type Jobs struct {
	Daily    func(ctx context.Context) error
	Trending func(ctx context.Context) error
	Weekly   func(ctx context.Context) error
}

// Scheduler runs the crawl and digest cycles on fixed cron schedules:
// the daily cycle at 09:00, a trending refresh at 12:00 and the weekly
// digest on Monday mornings, all UTC.
type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
}

// New creates a scheduler with all configured jobs registered
func New(jobs Jobs) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithLocation(config.SchedulerLocation())),
		jobs: jobs,
	}

	entries := []struct {
		spec string
		name string
		run  func(ctx context.Context) error
	}{
		{config.DailyCrawlSpec, "daily cycle", jobs.Daily},
		{config.TrendingCrawlSpec, "trending refresh", jobs.Trending},
		{config.WeeklyDigestSpec, "weekly digest", jobs.Weekly},
	}

	for _, entry := range entries {
		if entry.run == nil {
			continue
		}
		run := entry.run
		name := entry.name
		if _, err := s.cron.AddFunc(entry.spec, func() {
			log.Printf("Starting scheduled %s", name)
			if err := run(context.Background()); err != nil {
				log.Printf("Scheduled %s failed: %v", name, err)
				return
			}
			log.Printf("✓ Scheduled %s finished", name)
		}); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", name, err)
		}
	}
	return s, nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("✅ Scheduler started")
}

// Stop waits for running jobs and shuts the scheduler down
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}
