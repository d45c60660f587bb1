package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "clubsignup/internal/domain/activity"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// List returns every activity in catalogue order with participants in join order.
func (s *PostgresStore) List(ctx context.Context) ([]domain.Activity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.name, a.description, a.schedule, a.max_participants,
		        COALESCE(array_agg(p.email ORDER BY p.position) FILTER (WHERE p.email IS NOT NULL), '{}')
		 FROM activity a
		 LEFT JOIN participant p ON p.activity_name = a.name
		 GROUP BY a.name
		 ORDER BY a.position, a.name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Activity, error) {
		var a domain.Activity
		err := row.Scan(&a.Name, &a.Description, &a.Schedule, &a.MaxParticipants, &a.Participants)
		if a.Participants == nil {
			a.Participants = []string{}
		}
		return a, err
	})
}

// GetByName retrieves one activity or domain.ErrActivityNotFound.
func (s *PostgresStore) GetByName(ctx context.Context, name string) (domain.Activity, error) {
	return getByName(ctx, s.pool, name)
}

// Save inserts or updates an activity and replaces its participant list.
func (s *PostgresStore) Save(ctx context.Context, a domain.Activity) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO activity (name, description, schedule, max_participants, position)
			 VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(position), 0) + 1 FROM activity))
			 ON CONFLICT (name) DO UPDATE SET
			   description = EXCLUDED.description, schedule = EXCLUDED.schedule,
			   max_participants = EXCLUDED.max_participants`,
			a.Name, a.Description, a.Schedule, a.MaxParticipants)
		if err != nil {
			return fmt.Errorf("save activity %q: %w", a.Name, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM participant WHERE activity_name = $1`, a.Name); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, email := range a.Participants {
			batch.Queue(`INSERT INTO participant (activity_name, email, position) VALUES ($1, $2, $3)`,
				a.Name, email, i+1)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// AddParticipant locks the activity row, checks the enrolment rules and appends email.
// PRE: email has been validated
// POST: participant appended, or one of ErrActivityNotFound, ErrAlreadySignedUp, ErrActivityFull
func (s *PostgresStore) AddParticipant(ctx context.Context, name, email string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var limit int
		err := tx.QueryRow(ctx,
			`SELECT max_participants FROM activity WHERE name = $1 FOR UPDATE`, name).Scan(&limit)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrActivityNotFound
		}
		if err != nil {
			return err
		}
		var count, next int
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*), COALESCE(MAX(position), 0) + 1, COALESCE(bool_or(email = $2), false)
			 FROM participant WHERE activity_name = $1`, name, email).Scan(&count, &next, &exists)
		if err != nil {
			return err
		}
		switch {
		case exists:
			return domain.ErrAlreadySignedUp
		case count >= limit:
			return domain.ErrActivityFull
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO participant (activity_name, email, position) VALUES ($1, $2, $3)`, name, email, next)
		return err
	})
}

// RemoveParticipant deletes email from the activity.
func (s *PostgresStore) RemoveParticipant(ctx context.Context, name, email string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM participant WHERE activity_name = $1 AND email = $2`, name, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.GetByName(ctx, name); err != nil {
		return err
	}
	return domain.ErrNotSignedUp
}

// Count returns the number of activities.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity`).Scan(&n)
	return n, err
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getByName(ctx context.Context, q querier, name string) (domain.Activity, error) {
	a := domain.Activity{Name: name}
	err := q.QueryRow(ctx,
		`SELECT description, schedule, max_participants FROM activity WHERE name = $1`, name).
		Scan(&a.Description, &a.Schedule, &a.MaxParticipants)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	if err != nil {
		return domain.Activity{}, err
	}
	rows, err := q.Query(ctx,
		`SELECT email FROM participant WHERE activity_name = $1 ORDER BY position`, name)
	if err != nil {
		return domain.Activity{}, err
	}
	a.Participants, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if a.Participants == nil {
		a.Participants = []string{}
	}
	return a, err
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
