package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asertelegram/Sparkaph/internal/notification"
)

func TestTrackerReminderTiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 5)
	if _, _, err := f.allocator.Reserve(ctx, 1, "sport"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	// Before the halfway mark: nothing.
	f.clock.Advance(5 * time.Hour)
	if err := f.tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := f.notifier.count(1, notification.KindAssignmentReminder); got != 0 {
		t.Fatalf("reminders after 5h = %d, want 0", got)
	}

	// Past 6h: first reminder, exactly once even over repeated ticks.
	f.clock.Advance(90 * time.Minute)
	for i := 0; i < 3; i++ {
		if err := f.tracker.Tick(ctx); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if got := f.notifier.count(1, notification.KindAssignmentReminder); got != 1 {
		t.Fatalf("reminders after 6.5h = %d, want 1", got)
	}

	// Past 10h: second reminder.
	f.clock.Advance(4 * time.Hour)
	for i := 0; i < 3; i++ {
		if err := f.tracker.Tick(ctx); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if got := f.notifier.count(1, notification.KindAssignmentReminder); got != 2 {
		t.Fatalf("reminders after 10.5h = %d, want 2", got)
	}
}

func TestTrackerExpiryFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	c := f.addChallenge(t, "sport", 5)
	if _, _, err := f.allocator.Reserve(ctx, 1, "sport"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	f.clock.Advance(13 * time.Hour)
	if err := f.tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if _, err := f.mem.Assignments().ActiveByUser(ctx, 1); err == nil {
		t.Error("assignment still active after expiry")
	}
	stored, err := f.mem.Challenges().Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get challenge: %v", err)
	}
	if len(stored.ReservedBy) != 0 {
		t.Errorf("slot not freed: reserved_by = %v", stored.ReservedBy)
	}
	if got := f.notifier.count(1, notification.KindAssignmentExpired); got != 1 {
		t.Errorf("expiry notifications = %d, want 1", got)
	}

	// A second tick over the same terminal assignment changes nothing.
	if err := f.tracker.Tick(ctx); err != nil {
		t.Fatalf("second Tick: %v", err)
	}
	if got := f.notifier.count(1, notification.KindAssignmentExpired); got != 1 {
		t.Errorf("expiry notifications after re-tick = %d, want 1", got)
	}
}

func TestTrackerExpiryAllowsNewDraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 1)

	if _, _, err := f.allocator.Reserve(ctx, 1, "sport"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	f.clock.Advance(13 * time.Hour)
	if err := f.tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// Capacity 1 challenge must be drawable again after the expiry.
	if _, _, err := f.allocator.Reserve(ctx, 1, "sport"); err != nil {
		t.Fatalf("Reserve after expiry: %v", err)
	}
}

func TestSkip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	c := f.addChallenge(t, "sport", 5)
	if _, _, err := f.allocator.Reserve(ctx, 1, "sport"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := f.tracker.Skip(ctx, 1); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	stored, err := f.mem.Challenges().Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get challenge: %v", err)
	}
	if len(stored.ReservedBy) != 0 {
		t.Errorf("slot not freed after skip: %v", stored.ReservedBy)
	}

	// Second skip finds nothing to end.
	if err := f.tracker.Skip(ctx, 1); !errors.Is(err, ErrNoActiveAssignment) {
		t.Fatalf("second Skip err = %v, want ErrNoActiveAssignment", err)
	}
}

func TestSkipWithoutAssignment(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, 1)

	if err := f.tracker.Skip(context.Background(), 1); !errors.Is(err, ErrNoActiveAssignment) {
		t.Fatalf("err = %v, want ErrNoActiveAssignment", err)
	}
}

func TestSkipAfterExpiryLosesQuietly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	c := f.addChallenge(t, "sport", 5)
	if _, _, err := f.allocator.Reserve(ctx, 1, "sport"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	f.clock.Advance(13 * time.Hour)
	if err := f.tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if err := f.tracker.Skip(ctx, 1); !errors.Is(err, ErrNoActiveAssignment) {
		t.Fatalf("Skip after expiry err = %v, want ErrNoActiveAssignment", err)
	}

	// The slot was freed exactly once.
	stored, err := f.mem.Challenges().Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get challenge: %v", err)
	}
	if len(stored.ReservedBy) != 0 {
		t.Errorf("reserved_by = %v, want empty", stored.ReservedBy)
	}
}
