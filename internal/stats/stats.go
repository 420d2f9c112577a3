package stats

import "time"

// Snapshot is a point-in-time view of a user's stats. Achievement
// predicates operate on a Snapshot only, never on the store, so evaluation
// stays deterministic and testable.
type Snapshot struct {
	Points             int
	Level              int
	StreakDays         int
	CompletedCount     int
	ReferralCount      int
	SocialShares       int
	BadgeCount         int
	DaysActiveThisWeek int
	SeasonCompleted    int
	LastApprovedAt     *time.Time
	Now                time.Time
}
