package user

import "time"

// User is a participant registered through the Telegram transport.
// The ID is the stable Telegram user ID.
type User struct {
	ID                 int64      `json:"id" db:"id"`
	Username           string     `json:"username" db:"username"`
	FirstName          string     `json:"first_name" db:"first_name"`
	Points             int        `json:"points" db:"points"`
	Level              int        `json:"level"`
	StreakDays         int        `json:"streak_days" db:"streak_days"`
	LastStreakCreditAt *time.Time `json:"last_streak_credit_at,omitempty" db:"last_streak_credit_at"`
	Title              string     `json:"title,omitempty" db:"title"`
	Badges             []string   `json:"badges" db:"badges"`
	Achievements       []string   `json:"achievements" db:"achievements"`
	BonusMultiplier    int        `json:"bonus_multiplier" db:"bonus_multiplier"`
	BonusExpiresAt     *time.Time `json:"bonus_expires_at,omitempty" db:"bonus_expires_at"`
	ReferredBy         *int64     `json:"referred_by,omitempty" db:"referred_by"`
	ReferralCount      int        `json:"referral_count" db:"referral_count"`
	SocialShares       int        `json:"social_shares" db:"social_shares"`
	CompletedCount     int        `json:"completed_count" db:"completed_count"`
	LastApprovedAt     *time.Time `json:"last_approved_at,omitempty" db:"last_approved_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

type RegisterRequest struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Points     int    `json:"points"`
	Level      int    `json:"level"`
	StreakDays int    `json:"streak_days"`
}

// HasActiveBonus reports whether a point multiplier is armed at the given
// instant. The multiplier itself is consumed through the store so that two
// concurrent approvals cannot both apply it.
func (u *User) HasActiveBonus(now time.Time) bool {
	return u.BonusMultiplier > 1 && u.BonusExpiresAt != nil && u.BonusExpiresAt.After(now)
}
