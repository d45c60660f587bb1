package activity

import (
	"errors"
	"net/mail"
	"strings"
)

// Domain errors
var (
	ErrEmptyName         = errors.New("activity name cannot be empty")
	ErrInvalidCapacity   = errors.New("max participants must be zero or more")
	ErrActivityNotFound  = errors.New("activity not found")
	ErrAlreadySignedUp   = errors.New("student is already signed up")
	ErrNotSignedUp       = errors.New("student is not signed up for this activity")
	ErrActivityFull      = errors.New("activity is full")
	ErrEmailRequired     = errors.New("email is required")
	ErrInvalidEmail      = errors.New("email is not a valid address")
	ErrDuplicateActivity = errors.New("duplicate activity name in snapshot")
	ErrMalformedSnapshot = errors.New("activities payload is not a JSON object")
)

// Detail returns the human-readable text the API reports for a domain error.
// Unknown errors map to the empty string.
func Detail(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return "Activity not found"
	case errors.Is(err, ErrAlreadySignedUp):
		return "Student is already signed up"
	case errors.Is(err, ErrNotSignedUp):
		return "Student is not signed up for this activity"
	case errors.Is(err, ErrActivityFull):
		return "Activity is full"
	case errors.Is(err, ErrEmailRequired):
		return "Email is required"
	case errors.Is(err, ErrInvalidEmail):
		return "Email is not a valid address"
	}
	return ""
}

// Activity is a named offering with a capacity, a schedule, and an ordered participant list.
// Name is the unique key.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Validate checks if the Activity has valid data.
// PRE: Activity struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Activity) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if a.MaxParticipants < 0 {
		return ErrInvalidCapacity
	}
	return nil
}

// SpotsLeft returns the remaining capacity.
// It is derived on every call and can go negative if the server over-filled the activity.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// HasParticipant reports whether email is enrolled.
func (a Activity) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// Enroll appends email to the participant list.
// PRE: email is non-empty
// POST: Participant appended, or a domain error explaining why not
// INVARIANT: participant order is insertion order
func (a *Activity) Enroll(email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if a.HasParticipant(email) {
		return ErrAlreadySignedUp
	}
	if a.SpotsLeft() <= 0 {
		return ErrActivityFull
	}
	a.Participants = append(a.Participants, email)
	return nil
}

// Withdraw removes email from the participant list, keeping the order of the rest.
// PRE: email is non-empty
// POST: Participant removed or ErrNotSignedUp
func (a *Activity) Withdraw(email string) error {
	for i, p := range a.Participants {
		if p == email {
			a.Participants = append(a.Participants[:i:i], a.Participants[i+1:]...)
			return nil
		}
	}
	return ErrNotSignedUp
}

// ValidateEmail performs the minimal check the backend applies to sign-ups.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
