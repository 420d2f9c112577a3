package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/store"
)

type ChallengeStore struct {
	db *pgxpool.Pool
}

const challengeColumns = `id, category_id, text, description, capacity, reserved_by,
	status, scheduled_for, created_by, created_at`

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	err := row.Scan(
		&c.ID,
		&c.CategoryID,
		&c.Text,
		&c.Description,
		&c.Capacity,
		&c.ReservedBy,
		&c.Status,
		&c.ScheduledFor,
		&c.CreatedBy,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChallengeStore) Get(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	c, err := scanChallenge(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge %s: %w", id, classify(err))
	}
	return c, nil
}

func (s *ChallengeStore) Create(ctx context.Context, c *challenge.Challenge) error {
	query := `
	INSERT INTO challenges (id, category_id, text, description, capacity, status, scheduled_for, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.Exec(ctx, query,
		c.ID, c.CategoryID, c.Text, c.Description, c.Capacity, c.Status, c.ScheduledFor, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", classify(err))
	}
	return nil
}

func (s *ChallengeStore) ListOpen(ctx context.Context, categoryID string) ([]*challenge.Challenge, error) {
	query := `
	SELECT ` + challengeColumns + `
	FROM challenges
	WHERE category_id = $1 AND status = 'active' AND cardinality(reserved_by) < capacity`

	rows, err := s.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open challenges: %w", classify(err))
	}
	defer rows.Close()

	var out []*challenge.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ReserveSlot commits the capacity predicate and the append together. The
// naive read-count-then-push version over-books under interleaved requests;
// this one cannot.
func (s *ChallengeStore) ReserveSlot(ctx context.Context, id uuid.UUID, userID int64) (bool, error) {
	query := `
	UPDATE challenges
	SET reserved_by = array_append(reserved_by, $2)
	WHERE id = $1
		AND status = 'active'
		AND cardinality(reserved_by) < capacity
		AND NOT ($2 = ANY(reserved_by))`

	tag, err := s.db.Exec(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to reserve slot on %s: %w", id, classify(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (s *ChallengeStore) ReleaseSlot(ctx context.Context, id uuid.UUID, userID int64) error {
	query := `UPDATE challenges SET reserved_by = array_remove(reserved_by, $2) WHERE id = $1`

	_, err := s.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to release slot on %s: %w", id, classify(err))
	}
	return nil
}

func (s *ChallengeStore) Archive(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `UPDATE challenges SET status = 'archived' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to archive challenge %s: %w", id, classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to archive challenge %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *ChallengeStore) ActivateScheduled(ctx context.Context, now time.Time) (int, error) {
	query := `
	UPDATE challenges SET status = 'active', scheduled_for = NULL
	WHERE status = 'scheduled' AND scheduled_for <= $1`

	tag, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to activate scheduled challenges: %w", classify(err))
	}
	return int(tag.RowsAffected()), nil
}
