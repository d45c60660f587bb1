package projections

import (
	"context"

	"clubsignup/internal/domain/activity"
)

// ActivityStore interface for activity queries.
type ActivityStore interface {
	List(ctx context.Context) ([]activity.Activity, error)
}
