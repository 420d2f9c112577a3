package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/store"
)

// CatalogService is the admin surface over the challenge catalog.
type CatalogService struct {
	challenges store.ChallengeStore
	clock      clockwork.Clock
}

func NewCatalogService(challenges store.ChallengeStore, clock clockwork.Clock) *CatalogService {
	return &CatalogService{challenges: challenges, clock: clock}
}

// Create adds a challenge to the catalog. A future scheduled_for makes it
// scheduled; the sweeper activates it when the time comes.
func (s *CatalogService) Create(ctx context.Context, createdBy int64, req *challenge.CreateRequest) (*challenge.Challenge, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("challenge text is required")
	}
	if !challenge.ValidCategory(req.CategoryID) {
		return nil, fmt.Errorf("unknown category %q", req.CategoryID)
	}

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = challenge.DefaultCapacity
	}

	now := s.clock.Now()
	c := &challenge.Challenge{
		ID:          uuid.New(),
		CategoryID:  req.CategoryID,
		Text:        req.Text,
		Description: req.Description,
		Capacity:    capacity,
		ReservedBy:  []int64{},
		Status:      challenge.StatusActive,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}
	if req.ScheduledFor != nil && req.ScheduledFor.After(now) {
		c.Status = challenge.StatusScheduled
		c.ScheduledFor = req.ScheduledFor
	}

	if err := s.challenges.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return c, nil
}

// Archive retires a challenge from the draw pool. Assignments already in
// flight keep running to their own terminal state.
func (s *CatalogService) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.challenges.Archive(ctx, id); err != nil {
		return fmt.Errorf("archive challenge %s: %w", id, err)
	}
	return nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	return s.challenges.Get(ctx, id)
}

// ActivateScheduled flips due scheduled challenges to active. The sweeper
// calls this every few minutes.
func (s *CatalogService) ActivateScheduled(ctx context.Context) (int, error) {
	return s.challenges.ActivateScheduled(ctx, s.clock.Now())
}
