package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asertelegram/Sparkaph/internal/submission"
)

type SubmissionStore struct {
	db *pgxpool.Pool
}

const submissionColumns = `id, user_id, challenge_id, assignment_id, content_ref, content_type,
	status, submitted_at, reviewed_at, reviewer_id, COALESCE(reject_reason, '')`

func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	sub := &submission.Submission{}
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.ChallengeID,
		&sub.AssignmentID,
		&sub.ContentRef,
		&sub.ContentType,
		&sub.Status,
		&sub.SubmittedAt,
		&sub.ReviewedAt,
		&sub.ReviewerID,
		&sub.RejectReason,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionStore) Create(ctx context.Context, sub *submission.Submission) error {
	query := `
	INSERT INTO submissions (id, user_id, challenge_id, assignment_id, content_ref, content_type, status, submitted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.Exec(ctx, query,
		sub.ID, sub.UserID, sub.ChallengeID, sub.AssignmentID, sub.ContentRef, sub.ContentType, sub.Status, sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", classify(err))
	}
	return nil
}

func (s *SubmissionStore) Get(ctx context.Context, id uuid.UUID) (*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	sub, err := scanSubmission(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get submission %s: %w", id, classify(err))
	}
	return sub, nil
}

func (s *SubmissionStore) ListPending(ctx context.Context, limit int) ([]*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = 'pending' ORDER BY submitted_at LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", classify(err))
	}
	defer rows.Close()

	var out []*submission.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// SetReviewed is the exactly-once gate: only a pending row matches, so the
// second of two racing review calls affects zero rows.
func (s *SubmissionStore) SetReviewed(ctx context.Context, id uuid.UUID, status submission.Status, reviewerID int64, reason string, now time.Time) (bool, error) {
	query := `
	UPDATE submissions
	SET status = $2, reviewer_id = $3, reject_reason = NULLIF($4, ''), reviewed_at = $5
	WHERE id = $1 AND status = 'pending'`

	tag, err := s.db.Exec(ctx, query, id, status, reviewerID, reason, now)
	if err != nil {
		return false, fmt.Errorf("failed to review submission %s: %w", id, classify(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (s *SubmissionStore) CountApprovedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	query := `
	SELECT COUNT(*) FROM submissions
	WHERE user_id = $1 AND status = 'approved' AND submitted_at >= $2 AND submitted_at < $3`

	var n int
	if err := s.db.QueryRow(ctx, query, userID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count approved submissions: %w", classify(err))
	}
	return n, nil
}

func (s *SubmissionStore) CountActiveDaysBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	query := `
	SELECT COUNT(DISTINCT (submitted_at AT TIME ZONE 'UTC')::date) FROM submissions
	WHERE user_id = $1 AND status = 'approved' AND submitted_at >= $2 AND submitted_at < $3`

	var n int
	if err := s.db.QueryRow(ctx, query, userID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count active days: %w", classify(err))
	}
	return n, nil
}
