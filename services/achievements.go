package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/achievement"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/stats"
	"github.com/asertelegram/Sparkaph/internal/store"
	"github.com/asertelegram/Sparkaph/internal/user"
)

// AchievementEvaluator checks the catalog against a user's stats snapshot
// and awards whatever newly holds. Predicates are pure; all store writes go
// through the conditional AwardAchievement, so re-running the evaluator is
// always safe.
type AchievementEvaluator struct {
	catalog     *achievement.Catalog
	users       store.UserStore
	submissions store.SubmissionStore
	clock       clockwork.Clock
	notifier    Notifier
}

func NewAchievementEvaluator(catalog *achievement.Catalog, users store.UserStore, submissions store.SubmissionStore, clock clockwork.Clock, notifier Notifier) *AchievementEvaluator {
	return &AchievementEvaluator{
		catalog:     catalog,
		users:       users,
		submissions: submissions,
		clock:       clock,
		notifier:    notifier,
	}
}

// Evaluate runs every evaluable catalog entry the user has not unlocked
// yet against a fresh snapshot. Unlocks are applied one conditional store
// write at a time; a concurrent evaluation of the same user awards each
// achievement once.
func (e *AchievementEvaluator) Evaluate(ctx context.Context, userID int64) error {
	now := e.clock.Now()

	u, err := e.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	snap, err := e.snapshot(ctx, userID, u, now)
	if err != nil {
		return err
	}

	unlocked := make(map[string]bool, len(u.Achievements))
	for _, id := range u.Achievements {
		unlocked[id] = true
	}

	for _, def := range e.catalog.All() {
		if unlocked[def.ID] || !def.EvaluableAt(now) {
			continue
		}
		if !def.Predicate(snap) {
			continue
		}

		awarded, err := e.users.AwardAchievement(ctx, userID, def, now)
		if err != nil {
			return fmt.Errorf("award %s to user %d: %w", def.ID, userID, err)
		}
		if !awarded {
			continue
		}

		achievementsUnlocked.Inc()
		e.notifier.Notify(ctx, userID, notification.KindAchievementUnlocked, map[string]any{
			"icon":   def.Icon,
			"name":   def.Name,
			"points": def.Points,
		})
	}
	return nil
}

// Available lists what the user can still unlock, hidden entries excluded.
func (e *AchievementEvaluator) Available(ctx context.Context, userID int64) ([]*achievement.Definition, error) {
	u, err := e.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	unlocked := make(map[string]bool, len(u.Achievements))
	for _, id := range u.Achievements {
		unlocked[id] = true
	}
	return e.catalog.Available(unlocked, e.clock.Now()), nil
}

// Unlocked resolves the user's achievement IDs against the catalog,
// skipping IDs of retired definitions.
func (e *AchievementEvaluator) Unlocked(ctx context.Context, userID int64) ([]*achievement.Definition, error) {
	u, err := e.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	var out []*achievement.Definition
	for _, id := range u.Achievements {
		if def, ok := e.catalog.ByID(id); ok {
			out = append(out, def)
		}
	}
	return out, nil
}

func (e *AchievementEvaluator) snapshot(ctx context.Context, userID int64, u *user.User, now time.Time) (stats.Snapshot, error) {
	weekStart := startOfWeek(now)
	daysActive, err := e.submissions.CountActiveDaysBetween(ctx, userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("count active days: %w", err)
	}

	seasonStart, seasonEnd := achievement.CurrentSeason(now).Bounds(now)
	seasonCompleted, err := e.submissions.CountApprovedBetween(ctx, userID, seasonStart, seasonEnd)
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("count season approvals: %w", err)
	}

	return stats.Snapshot{
		Points:             u.Points,
		Level:              LevelFor(u.Points),
		StreakDays:         u.StreakDays,
		CompletedCount:     u.CompletedCount,
		ReferralCount:      u.ReferralCount,
		SocialShares:       u.SocialShares,
		BadgeCount:         len(u.Badges),
		DaysActiveThisWeek: daysActive,
		SeasonCompleted:    seasonCompleted,
		LastApprovedAt:     u.LastApprovedAt,
		Now:                now,
	}, nil
}

// startOfWeek returns Monday 00:00 UTC of the week containing now.
func startOfWeek(now time.Time) time.Time {
	d := now.UTC()
	offset := (int(d.Weekday()) + 6) % 7
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
}
