package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// Sweeper runs the periodic maintenance jobs: assignment reminders and
// expiry, scheduled-challenge activation and spam-guard cleanup.
type Sweeper struct {
	tracker   *AssignmentTracker
	catalog   *CatalogService
	guard     *SpamGuard
	scheduler gocron.Scheduler
}

func NewSweeper(tracker *AssignmentTracker, catalog *CatalogService, guard *SpamGuard, clock clockwork.Clock) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Sweeper{
		tracker:   tracker,
		catalog:   catalog,
		guard:     guard,
		scheduler: scheduler,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Sweeper) Start() error {
	// Every 5 minutes: reminders and expiry
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := s.tracker.Tick(ctx); err != nil {
				log.Printf("[Sweeper] assignment tick: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("register assignment job: %w", err)
	}

	// Every minute: activate due scheduled challenges
	_, err = s.scheduler.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			n, err := s.catalog.ActivateScheduled(ctx)
			if err != nil {
				log.Printf("[Sweeper] activate scheduled challenges: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Sweeper] activated %d scheduled challenge(s)", n)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("register activation job: %w", err)
	}

	// Every 10 minutes: drop idle spam-guard buckets
	_, err = s.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			s.guard.Cleanup(30 * time.Minute)
		}),
	)
	if err != nil {
		return fmt.Errorf("register cleanup job: %w", err)
	}

	s.scheduler.Start()
	return nil
}

func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}
