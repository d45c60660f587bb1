package projections

import (
	"context"

	"clubsignup/internal/domain/activity"
)

// GetActivitiesDeps holds dependencies for GetActivities.
type GetActivitiesDeps struct {
	ActivityStore ActivityStore
}

// QueryGetActivities returns the catalogue as an ordered snapshot.
// PRE: none
// POST: Snapshot keeps catalogue order; every Participants slice is non-nil
func QueryGetActivities(ctx context.Context, deps GetActivitiesDeps) (activity.Snapshot, error) {
	list, err := deps.ActivityStore.List(ctx)
	if err != nil {
		return nil, err
	}
	snap := make(activity.Snapshot, 0, len(list))
	for _, a := range list {
		if a.Participants == nil {
			a.Participants = []string{}
		}
		snap = append(snap, a)
	}
	return snap, nil
}
