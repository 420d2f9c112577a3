package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asertelegram/Sparkaph/internal/assignment"
)

type AssignmentStore struct {
	db *pgxpool.Pool
}

const assignmentColumns = `id, user_id, challenge_id, state, started_at, expires_at,
	first_reminder_sent, second_reminder_sent, terminal_at, reason`

func scanAssignment(row pgx.Row) (*assignment.Assignment, error) {
	a := &assignment.Assignment{}
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.ChallengeID,
		&a.State,
		&a.StartedAt,
		&a.ExpiresAt,
		&a.FirstReminderSent,
		&a.SecondReminderSent,
		&a.TerminalAt,
		&a.Reason,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create relies on the partial unique index over (user_id) WHERE
// terminal_at IS NULL, so two interleaved reservations by the same user
// cannot both produce an active assignment.
func (s *AssignmentStore) Create(ctx context.Context, a *assignment.Assignment) error {
	query := `
	INSERT INTO assignments (id, user_id, challenge_id, state, started_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query, a.ID, a.UserID, a.ChallengeID, a.State, a.StartedAt, a.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", classify(err))
	}
	return nil
}

func (s *AssignmentStore) Get(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	a, err := scanAssignment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment %s: %w", id, classify(err))
	}
	return a, nil
}

func (s *AssignmentStore) ActiveByUser(ctx context.Context, userID int64) (*assignment.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id = $1 AND terminal_at IS NULL`

	a, err := scanAssignment(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get active assignment for %d: %w", userID, classify(err))
	}
	return a, nil
}

func (s *AssignmentStore) ListActive(ctx context.Context) ([]*assignment.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE terminal_at IS NULL ORDER BY started_at`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", classify(err))
	}
	defer rows.Close()

	var out []*assignment.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *AssignmentStore) MarkReminded(ctx context.Context, id uuid.UUID, tier assignment.ReminderTier) (bool, error) {
	var query string
	switch tier {
	case assignment.TierFirst:
		query = `
		UPDATE assignments SET first_reminder_sent = TRUE, state = 'reminded_first'
		WHERE id = $1 AND terminal_at IS NULL AND first_reminder_sent = FALSE`
	case assignment.TierSecond:
		query = `
		UPDATE assignments SET second_reminder_sent = TRUE, state = 'reminded_second'
		WHERE id = $1 AND terminal_at IS NULL AND second_reminder_sent = FALSE`
	default:
		return false, fmt.Errorf("unknown reminder tier: %s", tier)
	}

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder on %s: %w", id, classify(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (s *AssignmentStore) Terminate(ctx context.Context, id uuid.UUID, reason assignment.Reason, now time.Time) (bool, error) {
	query := `
	UPDATE assignments SET state = 'terminated', reason = $2, terminal_at = $3
	WHERE id = $1 AND terminal_at IS NULL`

	tag, err := s.db.Exec(ctx, query, id, reason, now)
	if err != nil {
		return false, fmt.Errorf("failed to terminate assignment %s: %w", id, classify(err))
	}
	return tag.RowsAffected() == 1, nil
}
