package orchestrators

import (
	"context"
	"log/slog"

	"clubsignup/internal/domain/activity"
)

// ActivityStoreForSeed defines the store interface needed by SeedActivities.
type ActivityStoreForSeed interface {
	Save(ctx context.Context, a activity.Activity) error
	Count(ctx context.Context) (int, error)
}

// SeedActivitiesDeps holds dependencies for SeedActivities.
type SeedActivitiesDeps struct {
	Store ActivityStoreForSeed
}

// DefaultActivities is the starting catalogue, in display order.
func DefaultActivities() []activity.Activity {
	return []activity.Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Soccer Team",
			Description:     "Join the school soccer team for training and matches",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 18,
			Participants:    []string{"lucas@mergington.edu", "mia@mergington.edu"},
		},
		{
			Name:            "Basketball Club",
			Description:     "Practice basketball skills and compete in games",
			Schedule:        "Wednesdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"liam@mergington.edu", "ava@mergington.edu"},
		},
		{
			Name:            "Drama Club",
			Description:     "Participate in theater productions and acting workshops",
			Schedule:        "Mondays, 4:00 PM - 5:30 PM",
			MaxParticipants: 25,
			Participants:    []string{"noah@mergington.edu", "isabella@mergington.edu"},
		},
		{
			Name:            "Art Workshop",
			Description:     "Explore painting, drawing, and other visual arts",
			Schedule:        "Fridays, 2:00 PM - 3:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"amelia@mergington.edu", "ethan@mergington.edu"},
		},
		{
			Name:            "Math Club",
			Description:     "Solve challenging math problems and prepare for competitions",
			Schedule:        "Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 16,
			Participants:    []string{"charlotte@mergington.edu", "jack@mergington.edu"},
		},
		{
			Name:            "Science Olympiad",
			Description:     "Engage in science projects and compete in science events",
			Schedule:        "Wednesdays, 4:00 PM - 5:00 PM",
			MaxParticipants: 14,
			Participants:    []string{"benjamin@mergington.edu", "harper@mergington.edu"},
		},
		{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
	}
}

// ExecuteSeedActivities loads DefaultActivities if the store is empty.
// POST: the store holds at least one activity; an already seeded store is left untouched
func ExecuteSeedActivities(ctx context.Context, deps SeedActivitiesDeps) error {
	n, err := deps.Store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	acts := DefaultActivities()
	for _, a := range acts {
		if err := a.Validate(); err != nil {
			return err
		}
		if err := deps.Store.Save(ctx, a); err != nil {
			return err
		}
	}
	slog.Info("seed_event", "event", "activities_seeded", "activities", len(acts))
	return nil
}
