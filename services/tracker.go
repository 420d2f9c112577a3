package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/assignment"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store"
)

// releaseRetries bounds how often a slot release is retried before the
// failure is logged and given up. Release is idempotent, so retrying after
// a transient store error is always safe.
const releaseRetries = 5

// AssignmentTracker walks active assignments, sends the two deadline
// reminders and expires overdue assignments. The reminder flags and the
// terminal transition are conditional store writes, so overlapping ticks
// and racing skips stay at-most-once.
type AssignmentTracker struct {
	assignments store.AssignmentStore
	challenges  store.ChallengeStore
	clock       clockwork.Clock
	notifier    Notifier
}

func NewAssignmentTracker(assignments store.AssignmentStore, challenges store.ChallengeStore, clock clockwork.Clock, notifier Notifier) *AssignmentTracker {
	return &AssignmentTracker{
		assignments: assignments,
		challenges:  challenges,
		clock:       clock,
		notifier:    notifier,
	}
}

// Tick processes every active assignment once: reminders at half of the
// window and at five sixths of it, expiry once the deadline passes.
func (t *AssignmentTracker) Tick(ctx context.Context) error {
	now := t.clock.Now()

	active, err := t.assignments.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active assignments: %w", err)
	}

	for _, a := range active {
		if !now.Before(a.ExpiresAt) {
			t.expire(ctx, a, now)
			continue
		}

		window := a.Window()
		elapsed := now.Sub(a.StartedAt)

		switch {
		case !a.SecondReminderSent && elapsed >= window*5/6:
			t.remind(ctx, a, assignment.TierSecond, now)
		case !a.FirstReminderSent && elapsed >= window/2:
			t.remind(ctx, a, assignment.TierFirst, now)
		}
	}
	return nil
}

func (t *AssignmentTracker) remind(ctx context.Context, a *assignment.Assignment, tier assignment.ReminderTier, now time.Time) {
	sent, err := t.assignments.MarkReminded(ctx, a.ID, tier)
	if err != nil {
		log.Printf("Mark reminder %s on assignment %s: %v", tier, a.ID, err)
		return
	}
	if !sent {
		// Another tick, or a concurrent submit, got there first.
		return
	}

	remindersSent.WithLabelValues(string(tier)).Inc()
	t.notifier.Notify(ctx, a.UserID, notification.KindAssignmentReminder, map[string]any{
		"remaining":     a.Remaining(now).Round(time.Minute).String(),
		"assignment_id": a.ID.String(),
	})
}

func (t *AssignmentTracker) expire(ctx context.Context, a *assignment.Assignment, now time.Time) {
	terminated, err := t.assignments.Terminate(ctx, a.ID, assignment.ReasonExpired, now)
	if err != nil {
		log.Printf("Expire assignment %s: %v", a.ID, err)
		return
	}
	if !terminated {
		// A submit or skip won the race; nothing to free.
		return
	}

	assignmentsTerminated.WithLabelValues(string(assignment.ReasonExpired)).Inc()
	t.releaseWithRetry(ctx, a.ChallengeID, a.UserID)
	t.notifier.Notify(ctx, a.UserID, notification.KindAssignmentExpired, map[string]any{
		"assignment_id": a.ID.String(),
	})
}

// Skip voluntarily ends the user's active assignment and frees its slot.
func (t *AssignmentTracker) Skip(ctx context.Context, userID int64) error {
	a, err := t.assignments.ActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoActiveAssignment
		}
		return fmt.Errorf("load active assignment: %w", err)
	}

	now := t.clock.Now()
	terminated, err := t.assignments.Terminate(ctx, a.ID, assignment.ReasonSkipped, now)
	if err != nil {
		return fmt.Errorf("terminate assignment %s: %w", a.ID, err)
	}
	if !terminated {
		// Lost to the sweeper's expiry or a concurrent submit.
		return ErrNoActiveAssignment
	}

	assignmentsTerminated.WithLabelValues(string(assignment.ReasonSkipped)).Inc()
	t.releaseWithRetry(ctx, a.ChallengeID, userID)
	t.notifier.Notify(ctx, userID, notification.KindAssignmentSkipped, map[string]any{
		"assignment_id": a.ID.String(),
	})
	return nil
}

// releaseWithRetry frees a challenge slot after its assignment terminated.
// The release must eventually happen or the slot leaks, so transient store
// failures are retried; the terminal state is never rolled back.
func (t *AssignmentTracker) releaseWithRetry(ctx context.Context, challengeID uuid.UUID, userID int64) {
	var err error
	for attempt := 0; attempt < releaseRetries; attempt++ {
		if attempt > 0 {
			slotReleaseRetries.Inc()
			t.clock.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}
		if err = t.challenges.ReleaseSlot(ctx, challengeID, userID); err == nil {
			return
		}
	}
	log.Printf("Slot release failed for challenge %s user %d after %d attempts: %v",
		challengeID, userID, releaseRetries, err)
}
