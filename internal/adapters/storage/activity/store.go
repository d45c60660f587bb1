package activity

import (
	"context"

	domain "clubsignup/internal/domain/activity"
)

// Store persists activities and their ordered participant lists.
type Store interface {
	List(ctx context.Context) ([]domain.Activity, error)
	GetByName(ctx context.Context, name string) (domain.Activity, error)
	Save(ctx context.Context, a domain.Activity) error
	AddParticipant(ctx context.Context, name, email string) error
	RemoveParticipant(ctx context.Context, name, email string) error
	Count(ctx context.Context) (int, error)
}
