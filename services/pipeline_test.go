package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/submission"
)

func drawAndSubmit(t *testing.T, f *fixture, userID int64, categoryID string) *submission.Submission {
	t.Helper()
	if _, _, err := f.allocator.Reserve(context.Background(), userID, categoryID); err != nil {
		t.Fatalf("Reserve for user %d: %v", userID, err)
	}
	sub, err := f.pipeline.Submit(context.Background(), userID, &submission.SubmitRequest{
		ContentRef:  "file-abc",
		ContentType: submission.ContentPhoto,
	})
	if err != nil {
		t.Fatalf("Submit for user %d: %v", userID, err)
	}
	return sub
}

func TestSubmitConsumesAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	c := f.addChallenge(t, "sport", 5)

	sub := drawAndSubmit(t, f, 1, "sport")

	if sub.Status != submission.StatusPending {
		t.Errorf("status = %s, want pending", sub.Status)
	}
	if sub.ChallengeID != c.ID {
		t.Errorf("challenge id = %s, want %s", sub.ChallengeID, c.ID)
	}
	if _, err := f.mem.Assignments().ActiveByUser(ctx, 1); err == nil {
		t.Error("assignment still active after submit")
	}
	stored, err := f.mem.Challenges().Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get challenge: %v", err)
	}
	if len(stored.ReservedBy) != 0 {
		t.Errorf("slot not freed after submit: %v", stored.ReservedBy)
	}
	if got := f.notifier.count(1, notification.KindSubmissionReceived); got != 1 {
		t.Errorf("received notifications = %d, want 1", got)
	}
}

func TestSubmitWithoutAssignment(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, 1)

	_, err := f.pipeline.Submit(context.Background(), 1, &submission.SubmitRequest{
		ContentRef:  "file-abc",
		ContentType: submission.ContentText,
	})
	if !errors.Is(err, ErrNoActiveAssignment) {
		t.Fatalf("err = %v, want ErrNoActiveAssignment", err)
	}
}

func TestSubmitInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 5)
	if _, _, err := f.allocator.Reserve(ctx, 1, "sport"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if _, err := f.pipeline.Submit(ctx, 1, &submission.SubmitRequest{ContentType: submission.ContentText}); err == nil {
		t.Error("empty content_ref accepted")
	}
	if _, err := f.pipeline.Submit(ctx, 1, &submission.SubmitRequest{ContentRef: "x", ContentType: "sticker"}); err == nil {
		t.Error("invalid content type accepted")
	}

	// Neither rejection consumed the assignment.
	if _, err := f.mem.Assignments().ActiveByUser(ctx, 1); err != nil {
		t.Errorf("assignment gone after rejected inputs: %v", err)
	}
}

func TestReviewApproveCreditsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 5)
	sub := drawAndSubmit(t, f, 1, "sport")

	reviewed, err := f.pipeline.Review(ctx, sub.ID, 42, submission.StatusApproved, "")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != submission.StatusApproved {
		t.Errorf("status = %s, want approved", reviewed.Status)
	}
	if reviewed.ReviewerID == nil || *reviewed.ReviewerID != 42 {
		t.Errorf("reviewer = %v, want 42", reviewed.ReviewerID)
	}

	u, err := f.users.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	// 20 base + 10 for the first_challenge achievement.
	if u.Points != BaseAward+10 {
		t.Errorf("points = %d, want %d", u.Points, BaseAward+10)
	}
	if u.CompletedCount != 1 {
		t.Errorf("completed = %d, want 1", u.CompletedCount)
	}
	if u.StreakDays != 1 {
		t.Errorf("streak = %d, want 1", u.StreakDays)
	}
	if got := f.notifier.count(1, notification.KindSubmissionApproved); got != 1 {
		t.Errorf("approval notifications = %d, want 1", got)
	}
	if got := f.notifier.count(1, notification.KindAchievementUnlocked); got != 1 {
		t.Errorf("achievement notifications = %d, want 1", got)
	}
}

func TestReviewRejectRecordsReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 5)
	sub := drawAndSubmit(t, f, 1, "sport")

	reviewed, err := f.pipeline.Review(ctx, sub.ID, 42, submission.StatusRejected, "blurry photo")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.RejectReason != "blurry photo" {
		t.Errorf("reason = %q, want %q", reviewed.RejectReason, "blurry photo")
	}

	u, err := f.users.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if u.Points != 0 || u.CompletedCount != 0 || u.StreakDays != 0 {
		t.Errorf("rejected submission mutated stats: %+v", u)
	}
	if got := f.notifier.count(1, notification.KindSubmissionRejected); got != 1 {
		t.Errorf("rejection notifications = %d, want 1", got)
	}
}

func TestReviewDuplicateDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 5)
	sub := drawAndSubmit(t, f, 1, "sport")

	if _, err := f.pipeline.Review(ctx, sub.ID, 42, submission.StatusApproved, ""); err != nil {
		t.Fatalf("first Review: %v", err)
	}
	if _, err := f.pipeline.Review(ctx, sub.ID, 43, submission.StatusRejected, "nope"); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second Review err = %v, want ErrAlreadyReviewed", err)
	}

	// The first decision stands.
	stored, err := f.mem.Submissions().Get(ctx, sub.ID)
	if err != nil {
		t.Fatalf("Get submission: %v", err)
	}
	if stored.Status != submission.StatusApproved {
		t.Errorf("status = %s, want approved", stored.Status)
	}
	if stored.ReviewerID == nil || *stored.ReviewerID != 42 {
		t.Errorf("reviewer = %v, want 42", stored.ReviewerID)
	}

	// And the user was credited exactly once.
	u, err := f.users.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if u.CompletedCount != 1 {
		t.Errorf("completed = %d, want 1", u.CompletedCount)
	}
}

func TestReviewConcurrentDecisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 5)
	sub := drawAndSubmit(t, f, 1, "sport")

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(reviewer int64) {
			defer wg.Done()
			if _, err := f.pipeline.Review(ctx, sub.ID, reviewer, submission.StatusApproved, ""); err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}(int64(100 + i))
	}
	wg.Wait()

	if applied != 1 {
		t.Errorf("%d reviews applied, want 1", applied)
	}
	u, err := f.users.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if u.CompletedCount != 1 {
		t.Errorf("completed = %d after concurrent reviews, want 1", u.CompletedCount)
	}
}

func TestReviewInvalidDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 5)
	sub := drawAndSubmit(t, f, 1, "sport")

	if _, err := f.pipeline.Review(ctx, sub.ID, 42, submission.StatusPending, ""); err == nil {
		t.Error("pending accepted as a review decision")
	}
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerUser(t, 1)
	f.addChallenge(t, "sport", 5)

	// Tight guard: one action, no refill within the test.
	f.pipeline.guard = NewSpamGuard(1, 1, f.clock)

	drawAndSubmit(t, f, 1, "sport")

	if _, _, err := f.allocator.Reserve(ctx, 1, "sport"); err != nil {
		t.Fatalf("second Reserve: %v", err)
	}
	_, err := f.pipeline.Submit(ctx, 1, &submission.SubmitRequest{
		ContentRef:  "file-def",
		ContentType: submission.ContentPhoto,
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	// The guarded submit consumed nothing.
	if _, err := f.mem.Assignments().ActiveByUser(ctx, 1); err != nil {
		t.Errorf("assignment gone after rate-limited submit: %v", err)
	}
}
