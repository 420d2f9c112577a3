package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/store"
	"github.com/asertelegram/Sparkaph/internal/user"
)

// BaseAward is the points granted for one approved submission before any
// bonus multiplier.
const BaseAward = 20

// creditAttempts bounds the retry of a transient CreditApproval failure.
// The statement is a single conditional mutation, so a retry after
// store.ErrTransient cannot double-credit: transient means it did not apply.
const creditAttempts = 3

// levelThresholds[i] is the minimum points for level i+1. The curve is
// quadratic: each level costs 50 more points than the one before it.
var levelThresholds = []int{
	0,     // 1
	50,    // 2
	150,   // 3
	300,   // 4
	500,   // 5
	750,   // 6
	1050,  // 7
	1400,  // 8
	1800,  // 9
	2250,  // 10
	2750,  // 11
	3300,  // 12
	3900,  // 13
	4550,  // 14
	5250,  // 15
	6000,  // 16
	6800,  // 17
	7650,  // 18
	8550,  // 19
	9500,  // 20
	10500, // 21
	11550, // 22
	12650, // 23
	13800, // 24
	15000, // 25
}

// LevelFor derives the level from a points total. Level is never stored.
func LevelFor(points int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if points < threshold {
			break
		}
		level = i + 1
	}
	return level
}

// ScoringEngine turns approved submissions into points, streak credit and
// bonus consumption. All state changes go through single atomic store
// operations so concurrent approvals for the same user stay consistent.
type ScoringEngine struct {
	users store.UserStore
	clock clockwork.Clock
}

func NewScoringEngine(users store.UserStore, clock clockwork.Clock) *ScoringEngine {
	return &ScoringEngine{users: users, clock: clock}
}

// Credit applies one approval: consumes any armed bonus multiplier (first
// approval in the bonus window gets it, the rest do not), then credits
// points, completion count and the daily streak in one atomic mutation.
// Returns the updated user and the points awarded.
func (s *ScoringEngine) Credit(ctx context.Context, userID int64) (*user.User, int, error) {
	now := s.clock.Now()

	multiplier, err := s.users.ConsumeBonus(ctx, userID, now)
	if err != nil {
		return nil, 0, fmt.Errorf("consume bonus for user %d: %w", userID, err)
	}
	if multiplier < 1 {
		multiplier = 1
	}

	// The bonus is already consumed at this point, so the credit must land.
	// Retry transient store failures instead of losing the award.
	delta := BaseAward * multiplier
	var u *user.User
	for attempt := 1; ; attempt++ {
		u, err = s.users.CreditApproval(ctx, userID, delta, now)
		if err == nil || !errors.Is(err, store.ErrTransient) || attempt == creditAttempts {
			break
		}
		s.clock.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("credit approval for user %d: %w", userID, err)
	}
	u.Level = LevelFor(u.Points)
	return u, delta, nil
}
