package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"clubsignup/internal/application/orchestrators"
	"clubsignup/internal/application/projections"
	"clubsignup/internal/domain/activity"
)

// detailBody is the error body of the activities API.
type detailBody struct {
	Detail string `json:"detail"`
}

// messageBody is the success body of the mutation endpoints.
type messageBody struct {
	Message string `json:"message"`
}

// handleListActivities serves GET /activities.
func (s *server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	snap, err := projections.QueryGetActivities(r.Context(), projections.GetActivitiesDeps{
		ActivityStore: s.deps.Activities,
	})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSignup serves POST /activities/{name}/signup?email=.
func (s *server) handleSignup(w http.ResponseWriter, r *http.Request) {
	name, err := activityName(r)
	if err != nil {
		apiError(w, activity.ErrActivityNotFound)
		return
	}
	msg, err := orchestrators.ExecuteSignup(r.Context(), orchestrators.SignupInput{
		ActivityName: name,
		Email:        r.URL.Query().Get("email"),
	}, orchestrators.SignupDeps{
		Store:  s.deps.Activities,
		Mailer: s.deps.Mailer,
	})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}

// handleUnregister serves DELETE /activities/{name}/participants?email=.
func (s *server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	name, err := activityName(r)
	if err != nil {
		apiError(w, activity.ErrActivityNotFound)
		return
	}
	msg, err := orchestrators.ExecuteUnregister(r.Context(), orchestrators.UnregisterInput{
		ActivityName: name,
		Email:        r.URL.Query().Get("email"),
	}, orchestrators.UnregisterDeps{Store: s.deps.Activities})
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}

// activityName decodes the {name} path segment; the router matches on the escaped path.
func activityName(r *http.Request) (string, error) {
	return url.PathUnescape(mux.Vars(r)["name"])
}

// apiError answers with the status and detail text for a domain error.
// Anything else is logged and answered generically.
func apiError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logInternal(err)
		writeJSON(w, status, detailBody{Detail: "Internal server error"})
		return
	}
	writeJSON(w, status, detailBody{Detail: activity.Detail(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, activity.ErrActivityNotFound), errors.Is(err, activity.ErrNotSignedUp):
		return http.StatusNotFound
	case errors.Is(err, activity.ErrAlreadySignedUp),
		errors.Is(err, activity.ErrActivityFull),
		errors.Is(err, activity.ErrEmailRequired),
		errors.Is(err, activity.ErrInvalidEmail):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
