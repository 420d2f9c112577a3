package assignment

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateActive         State = "active"
	StateRemindedFirst  State = "reminded_first"
	StateRemindedSecond State = "reminded_second"
	StateTerminated     State = "terminated"
)

// Reason records how a terminated assignment ended.
type Reason string

const (
	ReasonSubmitted Reason = "submitted"
	ReasonSkipped   Reason = "skipped"
	ReasonExpired   Reason = "expired"
)

type ReminderTier string

const (
	TierFirst  ReminderTier = "first"
	TierSecond ReminderTier = "second"
)

// DefaultWindow is how long a user has to complete a drawn challenge.
const DefaultWindow = 12 * time.Hour

// Assignment is the record of one user holding a reserved challenge slot.
// It is owned exclusively by that user and is destroyed (slot released)
// on submission, explicit skip, or expiry.
type Assignment struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	UserID             int64      `json:"user_id" db:"user_id"`
	ChallengeID        uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	State              State      `json:"state" db:"state"`
	StartedAt          time.Time  `json:"started_at" db:"started_at"`
	ExpiresAt          time.Time  `json:"expires_at" db:"expires_at"`
	FirstReminderSent  bool       `json:"first_reminder_sent" db:"first_reminder_sent"`
	SecondReminderSent bool       `json:"second_reminder_sent" db:"second_reminder_sent"`
	TerminalAt         *time.Time `json:"terminal_at,omitempty" db:"terminal_at"`
	Reason             Reason     `json:"reason,omitempty" db:"reason"`
}

func (a *Assignment) Terminal() bool {
	return a.TerminalAt != nil
}

// Window is the full duration the user was given.
func (a *Assignment) Window() time.Duration {
	return a.ExpiresAt.Sub(a.StartedAt)
}

// Remaining is the time left before expiry; negative once past due.
func (a *Assignment) Remaining(now time.Time) time.Duration {
	return a.ExpiresAt.Sub(now)
}
