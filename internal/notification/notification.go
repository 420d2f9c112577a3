package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a user-facing event produced by the engine. The chat
// transport decides how each kind is rendered; the engine only records it
// and hands it to the dispatcher.
type Kind string

const (
	KindChallengeAssigned   Kind = "challenge_assigned"
	KindAssignmentReminder  Kind = "assignment_reminder"
	KindAssignmentExpired   Kind = "assignment_expired"
	KindAssignmentSkipped   Kind = "assignment_skipped"
	KindSubmissionReceived  Kind = "submission_received"
	KindSubmissionApproved  Kind = "submission_approved"
	KindSubmissionRejected  Kind = "submission_rejected"
	KindAchievementUnlocked Kind = "achievement_unlocked"
	KindReferralJoined      Kind = "referral_joined"
)

type Notification struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	UserID    int64          `json:"user_id" db:"user_id"`
	Kind      Kind           `json:"kind" db:"kind"`
	Title     string         `json:"title" db:"title"`
	Message   string         `json:"message" db:"message"`
	Data      map[string]any `json:"data,omitempty" db:"data"`
	IsRead    bool           `json:"is_read" db:"is_read"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

type template struct {
	title   string
	message string
}

var templates = map[Kind]template{
	KindChallengeAssigned:   {"New challenge", "Your challenge is ready. You have {hours} hours to complete it."},
	KindAssignmentReminder:  {"Reminder", "Don't forget your challenge — {remaining} left!"},
	KindAssignmentExpired:   {"Challenge expired", "Time is up for your challenge. Draw a new one whenever you're ready."},
	KindAssignmentSkipped:   {"Challenge skipped", "Challenge skipped. Draw a new one whenever you're ready."},
	KindSubmissionReceived:  {"Submission received", "Your proof is in the moderation queue."},
	KindSubmissionApproved:  {"Approved!", "Your challenge was approved: +{points} points. Streak: {streak} days."},
	KindSubmissionRejected:  {"Not this time", "Your submission was rejected: {reason}"},
	KindAchievementUnlocked: {"Achievement unlocked", "{icon} {name}: +{points} points"},
	KindReferralJoined:      {"New referral", "{username} joined using your invite link!"},
}

// Render produces the title and message for a kind, substituting {key}
// placeholders from data.
func Render(kind Kind, data map[string]any) (string, string) {
	t, ok := templates[kind]
	if !ok {
		return string(kind), ""
	}
	msg := t.message
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", fmt.Sprintf("%v", v))
	}
	return t.title, msg
}
