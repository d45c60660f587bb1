package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clubsignup/internal/adapters/email"
	"clubsignup/internal/domain/activity"
)

// ActivityStore defines the store interface needed by the enrolment orchestrators.
type ActivityStore interface {
	GetByName(ctx context.Context, name string) (activity.Activity, error)
	AddParticipant(ctx context.Context, name, email string) error
	RemoveParticipant(ctx context.Context, name, email string) error
}

// SignupInput carries input for the orchestrator.
type SignupInput struct {
	ActivityName string
	Email        string
}

// SignupDeps holds dependencies for Signup.
type SignupDeps struct {
	Store  ActivityStore
	Mailer email.Sender // optional
}

// ExecuteSignup enrols a student in an activity.
// PRE: none; input is validated here
// POST: participant appended and the confirmation message returned, or a domain error
// INVARIANT: a mail failure never fails the sign-up
func ExecuteSignup(ctx context.Context, input SignupInput, deps SignupDeps) (string, error) {
	addr := strings.TrimSpace(input.Email)
	if err := activity.ValidateEmail(addr); err != nil {
		return "", err
	}

	if err := deps.Store.AddParticipant(ctx, input.ActivityName, addr); err != nil {
		return "", err
	}
	slog.Info("signup_event", "event", "participant_added", "activity", input.ActivityName)

	if deps.Mailer != nil {
		sendConfirmation(ctx, deps, input.ActivityName, addr)
	}
	return fmt.Sprintf("Signed up %s for %s", addr, input.ActivityName), nil
}

func sendConfirmation(ctx context.Context, deps SignupDeps, name, addr string) {
	conf := email.Confirmation{Email: addr, Activity: name}
	if a, err := deps.Store.GetByName(ctx, name); err == nil {
		conf.Schedule = a.Schedule
	}
	req, err := conf.Request()
	if err != nil {
		slog.Error("signup_confirmation_render_failed", "activity", name, "error", err)
		return
	}
	if _, err := deps.Mailer.Send(ctx, req); err != nil {
		slog.Warn("signup_confirmation_failed", "activity", name, "error", err)
	}
}
