package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/assignment"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store"
	"github.com/asertelegram/Sparkaph/internal/submission"
)

// SubmissionPipeline takes proof in and moderation decisions out. Submit
// consumes the user's assignment the moment the proof is accepted; Review
// applies exactly one terminal decision per submission no matter how many
// moderators tap the same button.
type SubmissionPipeline struct {
	assignments store.AssignmentStore
	submissions store.SubmissionStore
	guard       *SpamGuard
	tracker     *AssignmentTracker
	scoring     *ScoringEngine
	evaluator   *AchievementEvaluator
	clock       clockwork.Clock
	notifier    Notifier
}

func NewSubmissionPipeline(
	assignments store.AssignmentStore,
	submissions store.SubmissionStore,
	guard *SpamGuard,
	tracker *AssignmentTracker,
	scoring *ScoringEngine,
	evaluator *AchievementEvaluator,
	clock clockwork.Clock,
	notifier Notifier,
) *SubmissionPipeline {
	return &SubmissionPipeline{
		assignments: assignments,
		submissions: submissions,
		guard:       guard,
		tracker:     tracker,
		scoring:     scoring,
		evaluator:   evaluator,
		clock:       clock,
		notifier:    notifier,
	}
}

// Submit records proof for the user's active assignment. The assignment is
// terminated first: if the expiry sweeper wins that race, no submission is
// created and the user is told to draw again. The slot release afterwards
// is retried to completion, never rolled back.
func (p *SubmissionPipeline) Submit(ctx context.Context, userID int64, req *submission.SubmitRequest) (*submission.Submission, error) {
	if req.ContentRef == "" {
		return nil, fmt.Errorf("content_ref is required")
	}
	if !submission.ValidContentType(req.ContentType) {
		return nil, fmt.Errorf("invalid content type %q", req.ContentType)
	}
	if !p.guard.Allow(userID, "submit") {
		return nil, ErrRateLimited
	}

	a, err := p.assignments.ActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoActiveAssignment
		}
		return nil, fmt.Errorf("load active assignment: %w", err)
	}

	now := p.clock.Now()
	terminated, err := p.assignments.Terminate(ctx, a.ID, assignment.ReasonSubmitted, now)
	if err != nil {
		return nil, fmt.Errorf("terminate assignment %s: %w", a.ID, err)
	}
	if !terminated {
		// The sweeper expired it between the lookup and here.
		return nil, ErrNoActiveAssignment
	}
	assignmentsTerminated.WithLabelValues(string(assignment.ReasonSubmitted)).Inc()

	sub := &submission.Submission{
		ID:           uuid.New(),
		UserID:       userID,
		ChallengeID:  a.ChallengeID,
		AssignmentID: a.ID,
		ContentRef:   req.ContentRef,
		ContentType:  req.ContentType,
		Status:       submission.StatusPending,
		SubmittedAt:  now,
	}
	if err := p.submissions.Create(ctx, sub); err != nil {
		// The assignment is already consumed; surface the error but do not
		// resurrect it. The user can draw a fresh challenge.
		p.tracker.releaseWithRetry(ctx, a.ChallengeID, userID)
		return nil, fmt.Errorf("store submission: %w", err)
	}

	p.tracker.releaseWithRetry(ctx, a.ChallengeID, userID)
	p.notifier.Notify(ctx, userID, notification.KindSubmissionReceived, map[string]any{
		"submission_id": sub.ID.String(),
	})
	return sub, nil
}

// Review applies a moderation decision. The pending -> terminal transition
// is a conditional store write; the loser of a duplicate decision gets
// ErrAlreadyReviewed and the stored submission keeps the first outcome.
// Approval credits points and re-evaluates achievements.
func (p *SubmissionPipeline) Review(ctx context.Context, submissionID uuid.UUID, reviewerID int64, decision submission.Status, reason string) (*submission.Submission, error) {
	if !decision.Terminal() {
		return nil, fmt.Errorf("invalid review decision %q", decision)
	}
	if decision == submission.StatusRejected && reason == "" {
		reason = "did not meet the challenge requirements"
	}

	sub, err := p.submissions.Get(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("load submission %s: %w", submissionID, err)
	}

	now := p.clock.Now()
	applied, err := p.submissions.SetReviewed(ctx, submissionID, decision, reviewerID, reason, now)
	if err != nil {
		return nil, fmt.Errorf("review submission %s: %w", submissionID, err)
	}
	if !applied {
		return nil, ErrAlreadyReviewed
	}
	reviewsTotal.WithLabelValues(string(decision)).Inc()

	sub.Status = decision
	sub.ReviewerID = &reviewerID
	sub.ReviewedAt = &now
	sub.RejectReason = reason

	switch decision {
	case submission.StatusApproved:
		u, delta, err := p.scoring.Credit(ctx, sub.UserID)
		if err != nil {
			// Credit retries transient failures itself; whatever is left
			// here must not undo the review.
			log.Printf("Credit for user %d after approval of %s: %v", sub.UserID, submissionID, err)
			return sub, nil
		}
		p.notifier.Notify(ctx, sub.UserID, notification.KindSubmissionApproved, map[string]any{
			"points": delta,
			"streak": u.StreakDays,
		})
		if err := p.evaluator.Evaluate(ctx, sub.UserID); err != nil {
			log.Printf("Achievement evaluation for user %d: %v", sub.UserID, err)
		}
	case submission.StatusRejected:
		p.notifier.Notify(ctx, sub.UserID, notification.KindSubmissionRejected, map[string]any{
			"reason": reason,
		})
	}

	return sub, nil
}

// ListPending returns the moderation queue, oldest first.
func (p *SubmissionPipeline) ListPending(ctx context.Context, limit int) ([]*submission.Submission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return p.submissions.ListPending(ctx, limit)
}
