package submission

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type ContentType string

const (
	ContentText     ContentType = "text"
	ContentPhoto    ContentType = "photo"
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
)

func ValidContentType(t ContentType) bool {
	switch t {
	case ContentText, ContentPhoto, ContentVideo, ContentDocument:
		return true
	}
	return false
}

// Submission is the proof a user sent for an assignment. ContentRef is an
// opaque handle owned by the chat transport; the engine never inspects the
// bytes behind it. A submission is immutable once it reaches a terminal
// status.
type Submission struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	UserID       int64       `json:"user_id" db:"user_id"`
	ChallengeID  uuid.UUID   `json:"challenge_id" db:"challenge_id"`
	AssignmentID uuid.UUID   `json:"assignment_id" db:"assignment_id"`
	ContentRef   string      `json:"content_ref" db:"content_ref"`
	ContentType  ContentType `json:"content_type" db:"content_type"`
	Status       Status      `json:"status" db:"status"`
	SubmittedAt  time.Time   `json:"submitted_at" db:"submitted_at"`
	ReviewedAt   *time.Time  `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewerID   *int64      `json:"reviewer_id,omitempty" db:"reviewer_id"`
	RejectReason string      `json:"reject_reason,omitempty" db:"reject_reason"`
}

type SubmitRequest struct {
	ContentRef  string      `json:"content_ref"`
	ContentType ContentType `json:"content_type"`
}

type ReviewRequest struct {
	Decision Status `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}
