package activity_test

import (
	"encoding/json"
	"errors"
	"testing"

	"clubsignup/internal/domain/activity"
)

// TestActivity_Validate tests validation of Activity.
func TestActivity_Validate(t *testing.T) {
	tests := []struct {
		name    string
		a       activity.Activity
		wantErr error
	}{
		{name: "valid", a: activity.Activity{Name: "Chess Club", MaxParticipants: 12}},
		{name: "empty name", a: activity.Activity{Name: "  ", MaxParticipants: 12}, wantErr: activity.ErrEmptyName},
		{name: "negative capacity", a: activity.Activity{Name: "Chess Club", MaxParticipants: -1}, wantErr: activity.ErrInvalidCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestActivity_SpotsLeft checks the derived capacity is recomputed from the participant list.
func TestActivity_SpotsLeft(t *testing.T) {
	a := activity.Activity{Name: "Chess Club", MaxParticipants: 10, Participants: []string{"a@x.com"}}
	if got := a.SpotsLeft(); got != 9 {
		t.Fatalf("SpotsLeft() = %d, want 9", got)
	}
	a.Participants = append(a.Participants, "b@x.com")
	if got := a.SpotsLeft(); got != 8 {
		t.Fatalf("SpotsLeft() after append = %d, want 8", got)
	}
}

// TestActivity_Enroll covers the sign-up rules.
func TestActivity_Enroll(t *testing.T) {
	t.Run("appends in order", func(t *testing.T) {
		a := activity.Activity{Name: "Drama Club", MaxParticipants: 3}
		for _, e := range []string{"a@x.com", "b@x.com"} {
			if err := a.Enroll(e); err != nil {
				t.Fatalf("Enroll(%q) error = %v", e, err)
			}
		}
		if len(a.Participants) != 2 || a.Participants[0] != "a@x.com" || a.Participants[1] != "b@x.com" {
			t.Errorf("participants = %v", a.Participants)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		a := activity.Activity{Name: "Chess Club", MaxParticipants: 3, Participants: []string{"a@x.com"}}
		if err := a.Enroll("a@x.com"); !errors.Is(err, activity.ErrAlreadySignedUp) {
			t.Errorf("Enroll duplicate error = %v", err)
		}
	})

	t.Run("full", func(t *testing.T) {
		a := activity.Activity{Name: "Chess Club", MaxParticipants: 1, Participants: []string{"a@x.com"}}
		if err := a.Enroll("b@x.com"); !errors.Is(err, activity.ErrActivityFull) {
			t.Errorf("Enroll full error = %v", err)
		}
	})

	t.Run("empty email", func(t *testing.T) {
		a := activity.Activity{Name: "Chess Club", MaxParticipants: 1}
		if err := a.Enroll(""); !errors.Is(err, activity.ErrEmailRequired) {
			t.Errorf("Enroll empty error = %v", err)
		}
	})

	t.Run("plus address accepted", func(t *testing.T) {
		a := activity.Activity{Name: "Chess Club", MaxParticipants: 1}
		if err := a.Enroll("john.doe+test@mergington.edu"); err != nil {
			t.Errorf("Enroll plus address error = %v", err)
		}
	})
}

// TestActivity_Withdraw covers removal and order preservation.
func TestActivity_Withdraw(t *testing.T) {
	a := activity.Activity{Name: "Chess Club", MaxParticipants: 5, Participants: []string{"a@x.com", "b@x.com", "c@x.com"}}
	if err := a.Withdraw("b@x.com"); err != nil {
		t.Fatalf("Withdraw error = %v", err)
	}
	if len(a.Participants) != 2 || a.Participants[0] != "a@x.com" || a.Participants[1] != "c@x.com" {
		t.Errorf("participants = %v", a.Participants)
	}
	if err := a.Withdraw("b@x.com"); !errors.Is(err, activity.ErrNotSignedUp) {
		t.Errorf("second Withdraw error = %v", err)
	}
}

// TestDetail maps domain errors to API detail text.
func TestDetail(t *testing.T) {
	if got := activity.Detail(activity.ErrAlreadySignedUp); got != "Student is already signed up" {
		t.Errorf("Detail(ErrAlreadySignedUp) = %q", got)
	}
	if got := activity.Detail(errors.New("boom")); got != "" {
		t.Errorf("Detail(unknown) = %q, want empty", got)
	}
}

// TestSnapshot_PreservesOrder checks that decoding keeps server order rather than sorting keys.
func TestSnapshot_PreservesOrder(t *testing.T) {
	body := `{"Zumba":{"description":"z","schedule":"s","max_participants":5,"participants":[]},
		"Chess Club":{"description":"d","schedule":"Mon 3pm","max_participants":10,"participants":["a@x.com"]},
		"Art":{"description":"a","schedule":"s","max_participants":2,"participants":null}}`

	var snap activity.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	names := snap.Names()
	want := []string{"Zumba", "Chess Club", "Art"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	art, _ := snap.Find("Art")
	if art.Participants == nil || len(art.Participants) != 0 {
		t.Errorf("null participants should decode as empty, got %#v", art.Participants)
	}

	out, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	var again activity.Snapshot
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-Unmarshal error = %v", err)
	}
	if again.Names()[0] != "Zumba" {
		t.Errorf("marshal did not keep order: %s", out)
	}
}

// TestSnapshot_Malformed rejects payloads that are not an object of activities.
func TestSnapshot_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "array", body: `[]`},
		{name: "string", body: `"nope"`},
		{name: "bad detail", body: `{"Chess":{"max_participants":"ten"}}`},
		{name: "duplicate", body: `{"A":{},"A":{}}`},
		{name: "truncated", body: `{"A":{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snap activity.Snapshot
			if err := json.Unmarshal([]byte(tt.body), &snap); err == nil {
				t.Errorf("Unmarshal(%s) succeeded, want error", tt.body)
			}
		})
	}
}
