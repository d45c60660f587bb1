package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clubsignup/internal/adapters/storage"
	domain "clubsignup/internal/domain/activity"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// List returns every activity in catalogue order with participants in join order.
// PRE: none
// POST: Returns activities ordered by position; participants never nil
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, schedule, max_participants FROM activity ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Activity
	index := make(map[string]int)
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.Name, &a.Description, &a.Schedule, &a.MaxParticipants); err != nil {
			return nil, err
		}
		a.Participants = []string{}
		index[a.Name] = len(list)
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := s.db.QueryContext(ctx,
		`SELECT activity_name, email FROM participant ORDER BY activity_name, position`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var name, email string
		if err := prows.Scan(&name, &email); err != nil {
			return nil, err
		}
		if i, ok := index[name]; ok {
			list[i].Participants = append(list[i].Participants, email)
		}
	}
	return list, prows.Err()
}

// GetByName retrieves one activity.
// PRE: name is non-empty
// POST: Returns the activity or domain.ErrActivityNotFound
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (domain.Activity, error) {
	a := domain.Activity{Name: name, Participants: []string{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT description, schedule, max_participants FROM activity WHERE name = ?`, name).
		Scan(&a.Description, &a.Schedule, &a.MaxParticipants)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	if err != nil {
		return domain.Activity{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT email FROM participant WHERE activity_name = ? ORDER BY position`, name)
	if err != nil {
		return domain.Activity{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return domain.Activity{}, err
		}
		a.Participants = append(a.Participants, email)
	}
	return a, rows.Err()
}

// Save inserts or updates an activity and replaces its participant list.
// New activities are appended to the end of the catalogue.
// PRE: a has been validated
// POST: activity and participants persisted atomically
func (s *SQLiteStore) Save(ctx context.Context, a domain.Activity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity (name, description, schedule, max_participants, position)
		 VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM activity))
		 ON CONFLICT(name) DO UPDATE SET
		   description=excluded.description, schedule=excluded.schedule,
		   max_participants=excluded.max_participants`,
		a.Name, a.Description, a.Schedule, a.MaxParticipants)
	if err != nil {
		return fmt.Errorf("save activity %q: %w", a.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM participant WHERE activity_name = ?`, a.Name); err != nil {
		return err
	}
	joined := s.now().UTC().Format(timeLayout)
	for i, email := range a.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO participant (activity_name, email, position, joined_at) VALUES (?, ?, ?, ?)`,
			a.Name, email, i+1, joined); err != nil {
			return fmt.Errorf("save participant %q: %w", email, err)
		}
	}
	return tx.Commit()
}

// AddParticipant appends email to the activity if it exists, has room and does not list email yet.
// The capacity check and the insert are one statement, so concurrent sign-ups cannot overfill.
// PRE: email has been validated
// POST: participant appended, or one of ErrActivityNotFound, ErrAlreadySignedUp, ErrActivityFull
func (s *SQLiteStore) AddParticipant(ctx context.Context, name, email string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO participant (activity_name, email, position, joined_at)
		 SELECT a.name, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM participant WHERE activity_name = a.name), ?
		 FROM activity a
		 WHERE a.name = ?
		   AND (SELECT COUNT(*) FROM participant WHERE activity_name = a.name) < a.max_participants
		 ON CONFLICT(activity_name, email) DO NOTHING`,
		email, s.now().UTC().Format(timeLayout), name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	return s.explainRejectedAdd(ctx, name, email)
}

// RemoveParticipant deletes email from the activity.
// PRE: name and email are non-empty
// POST: participant removed, or ErrActivityNotFound / ErrNotSignedUp
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, name, email string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM participant WHERE activity_name = ? AND email = ?`, name, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if _, err := s.GetByName(ctx, name); err != nil {
		return err
	}
	return domain.ErrNotSignedUp
}

// Count returns the number of activities.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity`).Scan(&n)
	return n, err
}

// explainRejectedAdd works out which rule stopped an insert.
func (s *SQLiteStore) explainRejectedAdd(ctx context.Context, name, email string) error {
	a, err := s.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if a.HasParticipant(email) {
		return domain.ErrAlreadySignedUp
	}
	return domain.ErrActivityFull
}
