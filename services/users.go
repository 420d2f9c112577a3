package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store"
	"github.com/asertelegram/Sparkaph/internal/user"
)

// UserService owns registration, profiles, referral attribution, social
// shares and the leaderboard.
type UserService struct {
	users     store.UserStore
	guard     *SpamGuard
	evaluator *AchievementEvaluator
	clock     clockwork.Clock
	notifier  Notifier
}

func NewUserService(users store.UserStore, guard *SpamGuard, evaluator *AchievementEvaluator, clock clockwork.Clock, notifier Notifier) *UserService {
	return &UserService{
		users:     users,
		guard:     guard,
		evaluator: evaluator,
		clock:     clock,
		notifier:  notifier,
	}
}

// Register upserts a user from the bot's /start. Re-registering refreshes
// profile fields and never resets stats. A referral code is only honored
// on first registration.
func (s *UserService) Register(ctx context.Context, req *user.RegisterRequest) (*user.User, bool, error) {
	if req.ID <= 0 {
		return nil, false, fmt.Errorf("invalid user id %d", req.ID)
	}

	now := s.clock.Now()
	u := &user.User{
		ID:              req.ID,
		Username:        req.Username,
		FirstName:       req.FirstName,
		BonusMultiplier: 1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	referrerID := parseReferralCode(req.ReferralCode)
	if referrerID == req.ID {
		referrerID = 0
	}
	if referrerID > 0 {
		u.ReferredBy = &referrerID
	}

	stored, created, err := s.users.Upsert(ctx, u)
	if err != nil {
		return nil, false, fmt.Errorf("upsert user %d: %w", req.ID, err)
	}
	stored.Level = LevelFor(stored.Points)

	if created && referrerID > 0 {
		s.creditReferrer(ctx, referrerID, stored.Username)
	}
	return stored, created, nil
}

func (s *UserService) creditReferrer(ctx context.Context, referrerID int64, joinedUsername string) {
	if err := s.users.IncReferrals(ctx, referrerID); err != nil {
		// Unknown referral codes are not the new user's problem.
		log.Printf("Credit referral to user %d: %v", referrerID, err)
		return
	}
	if joinedUsername == "" {
		joinedUsername = "Someone"
	}
	s.notifier.Notify(ctx, referrerID, notification.KindReferralJoined, map[string]any{
		"username": joinedUsername,
	})
	if err := s.evaluator.Evaluate(ctx, referrerID); err != nil {
		log.Printf("Achievement evaluation for referrer %d: %v", referrerID, err)
	}
}

// parseReferralCode extracts the referrer ID from a "ref_<id>" start
// payload. Anything else yields 0.
func parseReferralCode(code string) int64 {
	raw, ok := strings.CutPrefix(code, "ref_")
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// Profile returns the user with the derived level filled in.
func (s *UserService) Profile(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Level = LevelFor(u.Points)
	return u, nil
}

// RecordSocialShare counts one share of the user's progress and re-checks
// the social achievements.
func (s *UserService) RecordSocialShare(ctx context.Context, userID int64) error {
	if !s.guard.Allow(userID, "share") {
		return ErrRateLimited
	}
	if err := s.users.IncSocialShares(ctx, userID); err != nil {
		return fmt.Errorf("record social share for user %d: %w", userID, err)
	}
	if err := s.evaluator.Evaluate(ctx, userID); err != nil {
		log.Printf("Achievement evaluation for user %d: %v", userID, err)
	}
	return nil
}

// Leaderboard returns the top users by points.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]*user.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	entries, err := s.users.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	for _, e := range entries {
		e.Level = LevelFor(e.Points)
	}
	return entries, nil
}
