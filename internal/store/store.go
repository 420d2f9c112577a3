// Package store defines the persistence contracts of the challenge engine.
//
// Every mutation that guards a correctness invariant (challenge capacity,
// one active assignment per user, exactly-once review, daily streak credit)
// is expressed as a single conditional operation: the implementation must
// apply predicate and mutation atomically, never as a read-then-write pair.
// Handlers run on independent replicas, so atomicity lives here and nowhere
// else.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/asertelegram/Sparkaph/internal/achievement"
	"github.com/asertelegram/Sparkaph/internal/assignment"
	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/submission"
	"github.com/asertelegram/Sparkaph/internal/user"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a conditional write loses to a
	// concurrent one, e.g. a second active assignment for the same user.
	ErrConflict = errors.New("store: conflict")
	// ErrTransient marks backend/network failures that are safe to retry.
	ErrTransient = errors.New("store: transient failure")
)

type UserStore interface {
	Get(ctx context.Context, id int64) (*user.User, error)
	// Upsert registers a user, returning the stored record and whether it
	// was newly created. Existing users keep their stats; profile fields
	// are refreshed.
	Upsert(ctx context.Context, u *user.User) (*user.User, bool, error)
	IncReferrals(ctx context.Context, id int64) error
	IncSocialShares(ctx context.Context, id int64) error
	// ConsumeBonus atomically reads and clears the user's point multiplier.
	// It returns 1 when no unexpired bonus is armed. Two concurrent calls
	// cannot both observe the same multiplier.
	ConsumeBonus(ctx context.Context, id int64, now time.Time) (int, error)
	// CreditApproval applies one approval in a single atomic mutation:
	// points += delta, completed count ++, last approval timestamp, and the
	// streak rule (same day: no-op; consecutive day: ++; otherwise reset
	// to 1). Returns the updated user.
	CreditApproval(ctx context.Context, id int64, delta int, now time.Time) (*user.User, error)
	// AwardAchievement adds the achievement ID, its points, and any
	// badge/title/bonus reward in one conditional update. Returns false
	// without mutating anything when the achievement is already unlocked.
	AwardAchievement(ctx context.Context, id int64, def *achievement.Definition, now time.Time) (bool, error)
	Leaderboard(ctx context.Context, limit int) ([]*user.LeaderboardEntry, error)
}

type ChallengeStore interface {
	Get(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	Create(ctx context.Context, c *challenge.Challenge) error
	// ListOpen returns active challenges in the category that still have
	// room. The snapshot may be stale by the time the caller commits;
	// ReserveSlot re-checks the capacity predicate atomically.
	ListOpen(ctx context.Context, categoryID string) ([]*challenge.Challenge, error)
	// ReserveSlot appends userID to the challenge's reservation set, guarded
	// by size < capacity and non-membership, as one atomic operation.
	// Returns false when the guard fails.
	ReserveSlot(ctx context.Context, id uuid.UUID, userID int64) (bool, error)
	// ReleaseSlot removes userID from the reservation set. Idempotent:
	// releasing an absent reservation is a no-op, never an error.
	ReleaseSlot(ctx context.Context, id uuid.UUID, userID int64) error
	Archive(ctx context.Context, id uuid.UUID) error
	// ActivateScheduled flips scheduled challenges whose time has come to
	// active, returning how many were flipped.
	ActivateScheduled(ctx context.Context, now time.Time) (int, error)
}

type AssignmentStore interface {
	// Create stores a new assignment. Returns ErrConflict when the user
	// already holds a non-terminal assignment.
	Create(ctx context.Context, a *assignment.Assignment) error
	Get(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error)
	// ActiveByUser returns the user's non-terminal assignment or ErrNotFound.
	ActiveByUser(ctx context.Context, userID int64) (*assignment.Assignment, error)
	ListActive(ctx context.Context) ([]*assignment.Assignment, error)
	// MarkReminded flags a reminder tier as sent. Returns false when the
	// tier was already flagged or the assignment is terminal, guaranteeing
	// at-most-once reminders even if the sweeper double-fires.
	MarkReminded(ctx context.Context, id uuid.UUID, tier assignment.ReminderTier) (bool, error)
	// Terminate moves the assignment to its terminal state. Returns false
	// when it is already terminal; the losing caller of a skip/expire race
	// treats that as a no-op, not an error.
	Terminate(ctx context.Context, id uuid.UUID, reason assignment.Reason, now time.Time) (bool, error)
}

type SubmissionStore interface {
	Create(ctx context.Context, s *submission.Submission) error
	Get(ctx context.Context, id uuid.UUID) (*submission.Submission, error)
	ListPending(ctx context.Context, limit int) ([]*submission.Submission, error)
	// SetReviewed transitions pending -> status atomically. Returns false
	// when the submission is no longer pending, so a duplicated admin tap
	// cannot double-apply a decision.
	SetReviewed(ctx context.Context, id uuid.UUID, status submission.Status, reviewerID int64, reason string, now time.Time) (bool, error)
	CountApprovedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	// CountActiveDaysBetween counts distinct UTC dates with at least one
	// approved submission in [from, to).
	CountActiveDaysBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *notification.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*notification.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}
