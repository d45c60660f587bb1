package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clubsignup/internal/domain/activity"
)

// UnregisterInput carries input for the orchestrator.
type UnregisterInput struct {
	ActivityName string
	Email        string
}

// UnregisterDeps holds dependencies for Unregister.
type UnregisterDeps struct {
	Store ActivityStore
}

// ExecuteUnregister removes a student from an activity.
// PRE: none
// POST: participant removed and the confirmation message returned, or
// activity.ErrActivityNotFound / activity.ErrNotSignedUp
func ExecuteUnregister(ctx context.Context, input UnregisterInput, deps UnregisterDeps) (string, error) {
	addr := strings.TrimSpace(input.Email)
	if addr == "" {
		return "", activity.ErrEmailRequired
	}
	if err := deps.Store.RemoveParticipant(ctx, input.ActivityName, addr); err != nil {
		return "", err
	}
	slog.Info("signup_event", "event", "participant_removed", "activity", input.ActivityName)
	return fmt.Sprintf("Unregistered %s from %s", addr, input.ActivityName), nil
}
