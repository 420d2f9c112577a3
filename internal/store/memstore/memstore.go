// Package memstore is an in-memory implementation of the store contracts.
// It backs the engine's tests and local development. A single mutex stands
// in for the database's per-statement atomicity; callers still never hold
// it across their own logic.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asertelegram/Sparkaph/internal/achievement"
	"github.com/asertelegram/Sparkaph/internal/assignment"
	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store"
	"github.com/asertelegram/Sparkaph/internal/submission"
	"github.com/asertelegram/Sparkaph/internal/user"
)

type Mem struct {
	mu            sync.Mutex
	users         map[int64]*user.User
	challenges    map[uuid.UUID]*challenge.Challenge
	assignments   map[uuid.UUID]*assignment.Assignment
	submissions   map[uuid.UUID]*submission.Submission
	notifications map[uuid.UUID]*notification.Notification
}

func New() *Mem {
	return &Mem{
		users:         make(map[int64]*user.User),
		challenges:    make(map[uuid.UUID]*challenge.Challenge),
		assignments:   make(map[uuid.UUID]*assignment.Assignment),
		submissions:   make(map[uuid.UUID]*submission.Submission),
		notifications: make(map[uuid.UUID]*notification.Notification),
	}
}

func (m *Mem) Users() store.UserStore                 { return (*userStore)(m) }
func (m *Mem) Challenges() store.ChallengeStore       { return (*challengeStore)(m) }
func (m *Mem) Assignments() store.AssignmentStore     { return (*assignmentStore)(m) }
func (m *Mem) Submissions() store.SubmissionStore     { return (*submissionStore)(m) }
func (m *Mem) Notifications() store.NotificationStore { return (*notificationStore)(m) }

func cloneUser(u *user.User) *user.User {
	c := *u
	c.Badges = append([]string(nil), u.Badges...)
	c.Achievements = append([]string(nil), u.Achievements...)
	return &c
}

func cloneChallenge(c *challenge.Challenge) *challenge.Challenge {
	cp := *c
	cp.ReservedBy = append([]int64(nil), c.ReservedBy...)
	return &cp
}

func cloneAssignment(a *assignment.Assignment) *assignment.Assignment {
	cp := *a
	return &cp
}

func cloneSubmission(s *submission.Submission) *submission.Submission {
	cp := *s
	return &cp
}

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

type userStore Mem

func (s *userStore) Get(ctx context.Context, id int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *userStore) Upsert(ctx context.Context, in *user.User) (*user.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[in.ID]; ok {
		existing.Username = in.Username
		existing.FirstName = in.FirstName
		existing.UpdatedAt = in.CreatedAt
		return cloneUser(existing), false, nil
	}
	u := cloneUser(in)
	if u.BonusMultiplier == 0 {
		u.BonusMultiplier = 1
	}
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return cloneUser(u), true, nil
}

func (s *userStore) IncReferrals(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	u.ReferralCount++
	return nil
}

func (s *userStore) IncSocialShares(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	u.SocialShares++
	return nil
}

func (s *userStore) ConsumeBonus(ctx context.Context, id int64, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return 1, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	if u.BonusMultiplier > 1 && u.BonusExpiresAt != nil && u.BonusExpiresAt.After(now) {
		mult := u.BonusMultiplier
		u.BonusMultiplier = 1
		u.BonusExpiresAt = nil
		return mult, nil
	}
	return 1, nil
}

func (s *userStore) CreditApproval(ctx context.Context, id int64, delta int, now time.Time) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	u.Points += delta
	u.CompletedCount++
	nowUTC := now.UTC()
	u.LastApprovedAt = &nowUTC

	switch {
	case u.LastStreakCreditAt != nil && sameUTCDate(*u.LastStreakCreditAt, now):
		// already credited today
	case u.LastStreakCreditAt != nil && sameUTCDate(u.LastStreakCreditAt.AddDate(0, 0, 1), now):
		u.StreakDays++
		u.LastStreakCreditAt = &nowUTC
	default:
		u.StreakDays = 1
		u.LastStreakCreditAt = &nowUTC
	}
	u.UpdatedAt = nowUTC
	return cloneUser(u), nil
}

func (s *userStore) AwardAchievement(ctx context.Context, id int64, def *achievement.Definition, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	for _, got := range u.Achievements {
		if got == def.ID {
			return false, nil
		}
	}
	u.Achievements = append(u.Achievements, def.ID)
	u.Points += def.Points
	if def.Badge != "" && !contains(u.Badges, def.Badge) {
		u.Badges = append(u.Badges, def.Badge)
	}
	if def.Title != "" {
		u.Title = def.Title
	}
	if def.Bonus != nil && def.Bonus.Multiplier > 1 {
		u.BonusMultiplier = def.Bonus.Multiplier
		t := now.Add(def.Bonus.Duration)
		u.BonusExpiresAt = &t
	}
	u.UpdatedAt = now.UTC()
	return true, nil
}

func (s *userStore) Leaderboard(ctx context.Context, limit int) ([]*user.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		if all[i].StreakDays != all[j].StreakDays {
			return all[i].StreakDays > all[j].StreakDays
		}
		return all[i].ID < all[j].ID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	entries := make([]*user.LeaderboardEntry, len(all))
	for i, u := range all {
		entries[i] = &user.LeaderboardEntry{
			Rank:       i + 1,
			UserID:     u.ID,
			Username:   u.Username,
			Points:     u.Points,
			StreakDays: u.StreakDays,
		}
	}
	return entries, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
