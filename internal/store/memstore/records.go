package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/asertelegram/Sparkaph/internal/assignment"
	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store"
	"github.com/asertelegram/Sparkaph/internal/submission"
)

type challengeStore Mem

func (s *challengeStore) Get(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, fmt.Errorf("challenge %s: %w", id, store.ErrNotFound)
	}
	return cloneChallenge(c), nil
}

func (s *challengeStore) Create(ctx context.Context, c *challenge.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.challenges[c.ID]; ok {
		return fmt.Errorf("challenge %s: %w", c.ID, store.ErrConflict)
	}
	s.challenges[c.ID] = cloneChallenge(c)
	return nil
}

func (s *challengeStore) ListOpen(ctx context.Context, categoryID string) ([]*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*challenge.Challenge
	for _, c := range s.challenges {
		if c.CategoryID == categoryID && c.Status == challenge.StatusActive && c.HasRoom() {
			out = append(out, cloneChallenge(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *challengeStore) ReserveSlot(ctx context.Context, id uuid.UUID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return false, fmt.Errorf("challenge %s: %w", id, store.ErrNotFound)
	}
	if c.Status != challenge.StatusActive || !c.HasRoom() {
		return false, nil
	}
	for _, uid := range c.ReservedBy {
		if uid == userID {
			return false, nil
		}
	}
	c.ReservedBy = append(c.ReservedBy, userID)
	return true, nil
}

func (s *challengeStore) ReleaseSlot(ctx context.Context, id uuid.UUID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil
	}
	kept := c.ReservedBy[:0]
	for _, uid := range c.ReservedBy {
		if uid != userID {
			kept = append(kept, uid)
		}
	}
	c.ReservedBy = kept
	return nil
}

func (s *challengeStore) Archive(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return fmt.Errorf("challenge %s: %w", id, store.ErrNotFound)
	}
	c.Status = challenge.StatusArchived
	return nil
}

func (s *challengeStore) ActivateScheduled(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.challenges {
		if c.Status == challenge.StatusScheduled && c.ScheduledFor != nil && !c.ScheduledFor.After(now) {
			c.Status = challenge.StatusActive
			c.ScheduledFor = nil
			n++
		}
	}
	return n, nil
}

type assignmentStore Mem

func (s *assignmentStore) Create(ctx context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.UserID == a.UserID && !existing.Terminal() {
			return fmt.Errorf("active assignment exists for user %d: %w", a.UserID, store.ErrConflict)
		}
	}
	s.assignments[a.ID] = cloneAssignment(a)
	return nil
}

func (s *assignmentStore) Get(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", id, store.ErrNotFound)
	}
	return cloneAssignment(a), nil
}

func (s *assignmentStore) ActiveByUser(ctx context.Context, userID int64) (*assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.UserID == userID && !a.Terminal() {
			return cloneAssignment(a), nil
		}
	}
	return nil, fmt.Errorf("no active assignment for user %d: %w", userID, store.ErrNotFound)
}

func (s *assignmentStore) ListActive(ctx context.Context) ([]*assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*assignment.Assignment
	for _, a := range s.assignments {
		if !a.Terminal() {
			out = append(out, cloneAssignment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *assignmentStore) MarkReminded(ctx context.Context, id uuid.UUID, tier assignment.ReminderTier) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return false, fmt.Errorf("assignment %s: %w", id, store.ErrNotFound)
	}
	if a.Terminal() {
		return false, nil
	}
	switch tier {
	case assignment.TierFirst:
		if a.FirstReminderSent {
			return false, nil
		}
		a.FirstReminderSent = true
		a.State = assignment.StateRemindedFirst
	case assignment.TierSecond:
		if a.SecondReminderSent {
			return false, nil
		}
		a.SecondReminderSent = true
		a.State = assignment.StateRemindedSecond
	default:
		return false, fmt.Errorf("unknown reminder tier: %s", tier)
	}
	return true, nil
}

func (s *assignmentStore) Terminate(ctx context.Context, id uuid.UUID, reason assignment.Reason, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return false, fmt.Errorf("assignment %s: %w", id, store.ErrNotFound)
	}
	if a.Terminal() {
		return false, nil
	}
	t := now.UTC()
	a.TerminalAt = &t
	a.Reason = reason
	a.State = assignment.StateTerminated
	return true, nil
}

type submissionStore Mem

func (s *submissionStore) Create(ctx context.Context, sub *submission.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; ok {
		return fmt.Errorf("submission %s: %w", sub.ID, store.ErrConflict)
	}
	s.submissions[sub.ID] = cloneSubmission(sub)
	return nil
}

func (s *submissionStore) Get(ctx context.Context, id uuid.UUID) (*submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, store.ErrNotFound)
	}
	return cloneSubmission(sub), nil
}

func (s *submissionStore) ListPending(ctx context.Context, limit int) ([]*submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*submission.Submission
	for _, sub := range s.submissions {
		if sub.Status == submission.StatusPending {
			out = append(out, cloneSubmission(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *submissionStore) SetReviewed(ctx context.Context, id uuid.UUID, status submission.Status, reviewerID int64, reason string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return false, fmt.Errorf("submission %s: %w", id, store.ErrNotFound)
	}
	if sub.Status != submission.StatusPending {
		return false, nil
	}
	t := now.UTC()
	sub.Status = status
	sub.ReviewerID = &reviewerID
	sub.ReviewedAt = &t
	sub.RejectReason = reason
	return true, nil
}

func (s *submissionStore) CountApprovedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.submissions {
		if sub.UserID == userID && sub.Status == submission.StatusApproved &&
			!sub.SubmittedAt.Before(from) && sub.SubmittedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (s *submissionStore) CountActiveDaysBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days := make(map[string]bool)
	for _, sub := range s.submissions {
		if sub.UserID == userID && sub.Status == submission.StatusApproved &&
			!sub.SubmittedAt.Before(from) && sub.SubmittedAt.Before(to) {
			days[sub.SubmittedAt.UTC().Format("2006-01-02")] = true
		}
	}
	return len(days), nil
}

type notificationStore Mem

func (s *notificationStore) Create(ctx context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *notificationStore) ListByUser(ctx context.Context, userID int64, limit int) ([]*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*notification.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *notificationStore) UnreadCount(ctx context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, notif := range s.notifications {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *notificationStore) MarkRead(ctx context.Context, id uuid.UUID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notifications[id]; ok && n.UserID == userID {
		n.IsRead = true
	}
	return nil
}

func (s *notificationStore) MarkAllRead(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}
