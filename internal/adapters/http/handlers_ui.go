package web

import (
	"context"
	"errors"
	"net/http"

	"clubsignup/internal/adapters/http/middleware"
	"clubsignup/internal/application/viewcontroller"
)

// afterActionQuery marks the redirect that follows a form post; the page
// then shows the controller as the action left it instead of reloading.
const afterActionQuery = "done"

var errConfirmationPending = errors.New("removal awaits confirmation")

// formConfirmer answers the removal prompt from the "confirmed" form value.
// Without an answer it records the prompt so the handler can ask.
type formConfirmer struct {
	answer string
	prompt string
}

// Confirm implements viewcontroller.Confirmer.
func (f *formConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	f.prompt = prompt
	switch f.answer {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, errConfirmationPending
}

type pageData struct {
	Locale string
	View   viewcontroller.View
}

type confirmData struct {
	Locale  string
	Prompt  string
	Control viewcontroller.RemoveControl
}

// controller returns the page controller of the request's session, creating and loading it on first use.
func (s *server) controller(r *http.Request) *viewcontroller.Controller {
	id, _ := middleware.SessionIDFromContext(r.Context())
	locale := s.deps.Translator.Match(r.Header.Get("Accept-Language"))
	return s.deps.Sessions.Open(r.Context(), id, locale)
}

// handlePage serves GET /ui/.
// A plain load re-runs the loader like a browser reload; the redirect after an action does not.
func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.SessionIDFromContext(r.Context())
	ctrl, existed := s.deps.Sessions.Lookup(id)
	if !existed {
		ctrl = s.controller(r)
	} else if !r.URL.Query().Has(afterActionQuery) {
		ctrl.Refresh(r.Context())
	}
	view := ctrl.View()
	s.renderTemplate(w, r, "index.html", view.Locale, pageData{Locale: view.Locale, View: view})
}

// handlePageSignup serves POST /ui/signup.
func (s *server) handlePageSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	s.controller(r).Submit(r.Context(), r.PostFormValue("email"), r.PostFormValue("activity"))
	http.Redirect(w, r, "/ui/?"+afterActionQuery+"=1", http.StatusSeeOther)
}

// handlePageUnregister serves POST /ui/unregister, the single handler behind every removal control.
func (s *server) handlePageUnregister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	ctl := viewcontroller.RemoveControl{
		Activity: r.PostFormValue("activity"),
		Email:    r.PostFormValue("email"),
	}
	ctrl := s.controller(r)
	confirm := &formConfirmer{answer: r.PostFormValue("confirmed")}

	err := ctrl.Remove(r.Context(), ctl, confirm)
	if errors.Is(err, errConfirmationPending) {
		locale := ctrl.View().Locale
		s.renderTemplate(w, r, "confirm.html", locale, confirmData{
			Locale:  locale,
			Prompt:  confirm.prompt,
			Control: ctl,
		})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/ui/?"+afterActionQuery+"=1", http.StatusSeeOther)
}

// handleView serves GET /ui/view, the session's view state as JSON.
// It never opens a session; only the page does.
func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.SessionIDFromContext(r.Context())
	ctrl, ok := s.deps.Sessions.Lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, detailBody{Detail: "No page session; load /ui/ first"})
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}
