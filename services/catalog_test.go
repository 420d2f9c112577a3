package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/store"
)

func TestCreateChallengeDefaults(t *testing.T) {
	f := newFixture(t)

	c, err := f.catalog.Create(context.Background(), 999, &challenge.CreateRequest{
		CategoryID: "funny",
		Text:       "tell a joke to a stranger",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Capacity != challenge.DefaultCapacity {
		t.Errorf("capacity = %d, want %d", c.Capacity, challenge.DefaultCapacity)
	}
	if c.Status != challenge.StatusActive {
		t.Errorf("status = %s, want active", c.Status)
	}
	if c.CreatedBy != 999 {
		t.Errorf("created_by = %d, want 999", c.CreatedBy)
	}
}

func TestCreateChallengeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.catalog.Create(ctx, 999, &challenge.CreateRequest{CategoryID: "funny"}); err == nil {
		t.Error("empty text accepted")
	}
	if _, err := f.catalog.Create(ctx, 999, &challenge.CreateRequest{CategoryID: "bogus", Text: "x"}); err == nil {
		t.Error("unknown category accepted")
	}
}

func TestScheduledChallengeActivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, 1)

	when := f.clock.Now().Add(2 * time.Hour)
	c, err := f.catalog.Create(ctx, 999, &challenge.CreateRequest{
		CategoryID:   "creative",
		Text:         "paint something",
		ScheduledFor: &when,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != challenge.StatusScheduled {
		t.Fatalf("status = %s, want scheduled", c.Status)
	}

	// Invisible to draws until its time comes.
	if _, _, err := f.allocator.Reserve(ctx, 1, "creative"); !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("draw before activation err = %v, want ErrNoCapacity", err)
	}

	n, err := f.catalog.ActivateScheduled(ctx)
	if err != nil {
		t.Fatalf("ActivateScheduled: %v", err)
	}
	if n != 0 {
		t.Errorf("activated %d challenges early, want 0", n)
	}

	f.clock.Advance(3 * time.Hour)
	n, err = f.catalog.ActivateScheduled(ctx)
	if err != nil {
		t.Fatalf("ActivateScheduled: %v", err)
	}
	if n != 1 {
		t.Fatalf("activated %d challenges, want 1", n)
	}

	if _, _, err := f.allocator.Reserve(ctx, 1, "creative"); err != nil {
		t.Errorf("draw after activation: %v", err)
	}
}

func TestArchiveMissingChallenge(t *testing.T) {
	f := newFixture(t)

	err := f.catalog.Archive(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
