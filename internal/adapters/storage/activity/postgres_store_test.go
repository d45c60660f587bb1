package activity

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"clubsignup/internal/adapters/storage"
	domain "clubsignup/internal/domain/activity"
)

// TestPostgresStore_RoundTrip runs against a live database when SIGNUP_TEST_DATABASE_URL is set.
func TestPostgresStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("SIGNUP_TEST_DATABASE_URL")
	if dsn == "" || testing.Short() {
		t.Skip("SIGNUP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := storage.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, "TRUNCATE activity CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	s := NewPostgresStore(pool)
	if err := s.Save(ctx, domain.Activity{Name: "Tiny", MaxParticipants: 2, Participants: []string{"a@m.edu"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.AddParticipant(ctx, "Tiny", "b@m.edu"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if err := s.AddParticipant(ctx, "Tiny", "c@m.edu"); !errors.Is(err, domain.ErrActivityFull) {
		t.Errorf("err = %v, want ErrActivityFull", err)
	}
	if err := s.AddParticipant(ctx, "Tiny", "a@m.edu"); !errors.Is(err, domain.ErrAlreadySignedUp) {
		t.Errorf("err = %v, want ErrAlreadySignedUp", err)
	}
	if err := s.RemoveParticipant(ctx, "Tiny", "a@m.edu"); err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || !reflect.DeepEqual(list[0].Participants, []string{"b@m.edu"}) {
		t.Errorf("list = %+v", list)
	}
}
