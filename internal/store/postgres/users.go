package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asertelegram/Sparkaph/internal/achievement"
	"github.com/asertelegram/Sparkaph/internal/user"
)

type UserStore struct {
	db *pgxpool.Pool
}

const userColumns = `id, username, first_name, points, streak_days, last_streak_credit_at,
	title, badges, achievements, bonus_multiplier, bonus_expires_at,
	referred_by, referral_count, social_shares, completed_count, last_approved_at,
	created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.Points,
		&u.StreakDays,
		&u.LastStreakCreditAt,
		&u.Title,
		&u.Badges,
		&u.Achievements,
		&u.BonusMultiplier,
		&u.BonusExpiresAt,
		&u.ReferredBy,
		&u.ReferralCount,
		&u.SocialShares,
		&u.CompletedCount,
		&u.LastApprovedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) Get(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, classify(err))
	}
	return u, nil
}

func (s *UserStore) Upsert(ctx context.Context, in *user.User) (*user.User, bool, error) {
	query := `
	INSERT INTO users (id, username, first_name, referred_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $5)
	ON CONFLICT (id) DO UPDATE SET
		username = EXCLUDED.username,
		first_name = EXCLUDED.first_name,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + userColumns + `, (xmax = 0) AS inserted`

	u := &user.User{}
	var inserted bool
	err := s.db.QueryRow(ctx, query, in.ID, in.Username, in.FirstName, in.ReferredBy, in.CreatedAt).Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.Points,
		&u.StreakDays,
		&u.LastStreakCreditAt,
		&u.Title,
		&u.Badges,
		&u.Achievements,
		&u.BonusMultiplier,
		&u.BonusExpiresAt,
		&u.ReferredBy,
		&u.ReferralCount,
		&u.SocialShares,
		&u.CompletedCount,
		&u.LastApprovedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user %d: %w", in.ID, classify(err))
	}
	return u, inserted, nil
}

func (s *UserStore) IncReferrals(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET referral_count = referral_count + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment referrals for %d: %w", id, classify(err))
	}
	return nil
}

func (s *UserStore) IncSocialShares(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET social_shares = social_shares + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment social shares for %d: %w", id, classify(err))
	}
	return nil
}

// ConsumeBonus reads and clears the armed multiplier in one statement, so
// two concurrent approvals cannot both apply it.
func (s *UserStore) ConsumeBonus(ctx context.Context, id int64, now time.Time) (int, error) {
	query := `
	WITH armed AS (
		SELECT id, bonus_multiplier FROM users
		WHERE id = $1 AND bonus_multiplier > 1 AND bonus_expires_at > $2
		FOR UPDATE
	)
	UPDATE users SET bonus_multiplier = 1, bonus_expires_at = NULL, updated_at = $2
	FROM armed WHERE users.id = armed.id
	RETURNING armed.bonus_multiplier`

	var mult int
	err := s.db.QueryRow(ctx, query, id, now).Scan(&mult)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 1, nil
		}
		return 1, fmt.Errorf("failed to consume bonus for %d: %w", id, classify(err))
	}
	return mult, nil
}

// CreditApproval applies points, completion count and the streak rule as a
// single UPDATE. Concurrent approvals on the same day cannot double-credit
// the streak because the day comparison and the increment commit together.
func (s *UserStore) CreditApproval(ctx context.Context, id int64, delta int, now time.Time) (*user.User, error) {
	query := `
	UPDATE users SET
		points = points + $2,
		completed_count = completed_count + 1,
		last_approved_at = $3,
		streak_days = CASE
			WHEN last_streak_credit_at IS NOT NULL
				AND (last_streak_credit_at AT TIME ZONE 'UTC')::date = ($3::timestamptz AT TIME ZONE 'UTC')::date
				THEN streak_days
			WHEN last_streak_credit_at IS NOT NULL
				AND (last_streak_credit_at AT TIME ZONE 'UTC')::date = ($3::timestamptz AT TIME ZONE 'UTC')::date - 1
				THEN streak_days + 1
			ELSE 1
		END,
		last_streak_credit_at = CASE
			WHEN last_streak_credit_at IS NOT NULL
				AND (last_streak_credit_at AT TIME ZONE 'UTC')::date = ($3::timestamptz AT TIME ZONE 'UTC')::date
				THEN last_streak_credit_at
			ELSE $3
		END,
		updated_at = $3
	WHERE id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, id, delta, now))
	if err != nil {
		return nil, fmt.Errorf("failed to credit approval for %d: %w", id, classify(err))
	}
	return u, nil
}

// AwardAchievement adds the ID, points and reward fields in one conditional
// UPDATE guarded on non-membership.
func (s *UserStore) AwardAchievement(ctx context.Context, id int64, def *achievement.Definition, now time.Time) (bool, error) {
	multiplier := 0
	var bonusExpires *time.Time
	if def.Bonus != nil {
		multiplier = def.Bonus.Multiplier
		t := now.Add(def.Bonus.Duration)
		bonusExpires = &t
	}

	query := `
	UPDATE users SET
		achievements = array_append(achievements, $2),
		points = points + $3,
		badges = CASE WHEN $4 = '' OR $4 = ANY(badges) THEN badges ELSE array_append(badges, $4) END,
		title = CASE WHEN $5 = '' THEN title ELSE $5 END,
		bonus_multiplier = CASE WHEN $6 > 1 THEN $6 ELSE bonus_multiplier END,
		bonus_expires_at = CASE WHEN $6 > 1 THEN $7 ELSE bonus_expires_at END,
		updated_at = $8
	WHERE id = $1 AND NOT ($2 = ANY(achievements))`

	tag, err := s.db.Exec(ctx, query, id, def.ID, def.Points, def.Badge, def.Title, multiplier, bonusExpires, now)
	if err != nil {
		return false, fmt.Errorf("failed to award achievement %s to %d: %w", def.ID, id, classify(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (s *UserStore) Leaderboard(ctx context.Context, limit int) ([]*user.LeaderboardEntry, error) {
	query := `
	SELECT id, username, points, streak_days
	FROM users
	ORDER BY points DESC, streak_days DESC, id
	LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", classify(err))
	}
	defer rows.Close()

	var entries []*user.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		e := &user.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.StreakDays); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return entries, nil
}
