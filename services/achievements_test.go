package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/submission"
)

func TestEvaluateFirstChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, 1)

	if _, _, err := f.scoring.Credit(ctx, 1); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := f.evaluator.Evaluate(ctx, 1); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	u, err := f.users.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !containsStr(u.Achievements, "first_challenge") {
		t.Errorf("achievements = %v, want first_challenge", u.Achievements)
	}
	if !containsStr(u.Badges, "first_challenge") {
		t.Errorf("badges = %v, want first_challenge", u.Badges)
	}
}

// Re-running the evaluator must not award or notify twice.
func TestEvaluateIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, 1)

	if _, _, err := f.scoring.Credit(ctx, 1); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := f.evaluator.Evaluate(ctx, 1); err != nil {
			t.Fatalf("Evaluate #%d: %v", i+1, err)
		}
	}

	if got := f.notifier.count(1, notification.KindAchievementUnlocked); got != 1 {
		t.Errorf("unlock notifications = %d, want 1", got)
	}
	u, err := f.users.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	// 20 for the approval + 10 for the achievement, once.
	if u.Points != BaseAward+10 {
		t.Errorf("points = %d, want %d", u.Points, BaseAward+10)
	}
}

func TestEvaluateStreakArmsBonus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, 1)

	// Seven consecutive daily approvals.
	for day := 0; day < 7; day++ {
		if day > 0 {
			f.clock.Advance(24 * time.Hour)
		}
		if _, _, err := f.scoring.Credit(ctx, 1); err != nil {
			t.Fatalf("Credit day %d: %v", day, err)
		}
	}
	if err := f.evaluator.Evaluate(ctx, 1); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	u, err := f.users.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !containsStr(u.Achievements, "streak_7") {
		t.Fatalf("achievements = %v, want streak_7", u.Achievements)
	}
	if !u.HasActiveBonus(f.clock.Now()) || u.BonusMultiplier != 2 {
		t.Errorf("bonus not armed: multiplier=%d expires=%v", u.BonusMultiplier, u.BonusExpiresAt)
	}

	// The armed bonus doubles exactly the next approval.
	f.clock.Advance(time.Hour)
	_, delta, err := f.scoring.Credit(ctx, 1)
	if err != nil {
		t.Fatalf("Credit with bonus: %v", err)
	}
	if delta != 2*BaseAward {
		t.Errorf("bonus delta = %d, want %d", delta, 2*BaseAward)
	}
}

func TestSeasonalOnlyInSeason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, 1)

	// 30 approved submissions during summer.
	for i := 0; i < 30; i++ {
		sub := &submission.Submission{
			ID:          uuid.New(),
			UserID:      1,
			ChallengeID: uuid.New(),
			Status:      submission.StatusApproved,
			SubmittedAt: testStart.Add(time.Duration(i) * time.Hour),
		}
		if err := f.mem.Submissions().Create(ctx, sub); err != nil {
			t.Fatalf("seed submission: %v", err)
		}
	}

	if err := f.evaluator.Evaluate(ctx, 1); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	u, err := f.users.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !containsStr(u.Achievements, "summer_champion") {
		t.Errorf("achievements = %v, want summer_champion", u.Achievements)
	}
	if containsStr(u.Achievements, "winter_warrior") {
		t.Errorf("winter_warrior unlocked in June")
	}
}

func TestAvailableExcludesUnlockedAndOffSeason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, 1)

	if _, _, err := f.scoring.Credit(ctx, 1); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := f.evaluator.Evaluate(ctx, 1); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	available, err := f.evaluator.Available(ctx, 1)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	for _, def := range available {
		if def.ID == "first_challenge" {
			t.Error("unlocked achievement still listed as available")
		}
		if def.ID == "winter_warrior" {
			t.Error("off-season achievement listed as available in June")
		}
	}
	found := false
	for _, def := range available {
		if def.ID == "summer_champion" {
			found = true
		}
	}
	if !found {
		t.Error("in-season achievement missing from available")
	}
}

func containsStr(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
