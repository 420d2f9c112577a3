package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/assignment"
	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store"
)

// reserveAttempts bounds how many candidate challenges a single draw tries
// before giving up with ErrNoCapacity. Losing a conditional append to a
// concurrent draw is normal, not an error.
const reserveAttempts = 3

// SlotAllocator hands out challenges. A draw reserves a capacity slot and
// creates the user's single active assignment; both writes are conditional
// in the store, so concurrent draws can never oversubscribe a challenge or
// give one user two assignments.
type SlotAllocator struct {
	challenges  store.ChallengeStore
	assignments store.AssignmentStore
	clock       clockwork.Clock
	notifier    Notifier
}

func NewSlotAllocator(challenges store.ChallengeStore, assignments store.AssignmentStore, clock clockwork.Clock, notifier Notifier) *SlotAllocator {
	return &SlotAllocator{
		challenges:  challenges,
		assignments: assignments,
		clock:       clock,
		notifier:    notifier,
	}
}

// Reserve draws a random challenge with free capacity from the category and
// assigns it to the user for the standard completion window.
func (s *SlotAllocator) Reserve(ctx context.Context, userID int64, categoryID string) (*challenge.Challenge, *assignment.Assignment, error) {
	if !challenge.ValidCategory(categoryID) {
		return nil, nil, fmt.Errorf("unknown category %q", categoryID)
	}

	// Fast path: refuse before touching capacity when the user already
	// holds an assignment. The conditional Create below still guards the
	// race where two draws from the same user interleave.
	if _, err := s.assignments.ActiveByUser(ctx, userID); err == nil {
		return nil, nil, ErrAlreadyAssigned
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("check active assignment: %w", err)
	}

	candidates, err := s.challenges.ListOpen(ctx, categoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("list open challenges: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil, ErrNoCapacity
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	attempts := reserveAttempts
	if len(candidates) < attempts {
		attempts = len(candidates)
	}

	for _, c := range candidates[:attempts] {
		reserved, err := s.challenges.ReserveSlot(ctx, c.ID, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("reserve slot on challenge %s: %w", c.ID, err)
		}
		if !reserved {
			// Snapshot was stale: the challenge filled up (or this user
			// already holds a slot on it) between list and append.
			reservationConflicts.Inc()
			continue
		}

		now := s.clock.Now()
		a := &assignment.Assignment{
			ID:          uuid.New(),
			UserID:      userID,
			ChallengeID: c.ID,
			State:       assignment.StateActive,
			StartedAt:   now,
			ExpiresAt:   now.Add(assignment.DefaultWindow),
		}
		if err := s.assignments.Create(ctx, a); err != nil {
			// Undo the reservation, then report the conflict. Release is
			// idempotent so a failure here leaves at worst a slot the
			// sweeper's expiry path will never double-free.
			if relErr := s.challenges.ReleaseSlot(ctx, c.ID, userID); relErr != nil {
				return nil, nil, fmt.Errorf("release slot after failed assignment: %w", relErr)
			}
			if errors.Is(err, store.ErrConflict) {
				return nil, nil, ErrAlreadyAssigned
			}
			return nil, nil, fmt.Errorf("create assignment: %w", err)
		}

		assignmentsCreated.Inc()
		s.notifier.Notify(ctx, userID, notification.KindChallengeAssigned, map[string]any{
			"hours":        int(assignment.DefaultWindow.Hours()),
			"challenge_id": c.ID.String(),
		})
		return c, a, nil
	}

	return nil, nil, ErrNoCapacity
}

// Release frees the user's slot on a challenge. Releasing a slot the user
// does not hold is a no-op.
func (s *SlotAllocator) Release(ctx context.Context, challengeID uuid.UUID, userID int64) error {
	if err := s.challenges.ReleaseSlot(ctx, challengeID, userID); err != nil {
		return fmt.Errorf("release slot on challenge %s: %w", challengeID, err)
	}
	return nil
}
