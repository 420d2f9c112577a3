// Package postgres implements the store contracts on PostgreSQL via pgx.
// All conditional updates are single statements so the capacity, assignment
// and review guards hold across replicas without application-level locking.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asertelegram/Sparkaph/internal/store"
)

type Stores struct {
	Users         *UserStore
	Challenges    *ChallengeStore
	Assignments   *AssignmentStore
	Submissions   *SubmissionStore
	Notifications *NotificationStore
}

func New(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Users:         &UserStore{db: pool},
		Challenges:    &ChallengeStore{db: pool},
		Assignments:   &AssignmentStore{db: pool},
		Submissions:   &SubmissionStore{db: pool},
		Notifications: &NotificationStore{db: pool},
	}
}

// classify maps driver errors onto the store taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.ConstraintName)
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", store.ErrTransient, err)
	}
	return err
}
