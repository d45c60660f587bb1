package viewcontroller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"clubsignup/internal/adapters/apiclient"
	"clubsignup/internal/domain/activity"
	"clubsignup/internal/domain/status"
	"clubsignup/internal/platform/uricomponent"
)

// Default auto-hide delays for the status message.
const (
	DefaultSignupHideAfter = 5000 * time.Millisecond
	DefaultRemoveHideAfter = 4000 * time.Millisecond
)

// ActivitiesAPI is the backend the controller synchronises with.
type ActivitiesAPI interface {
	ListActivities(ctx context.Context) (activity.Snapshot, error)
	Signup(ctx context.Context, name, email string) (string, error)
	Unregister(ctx context.Context, name, email string) (string, error)
}

// Confirmer asks the operator to approve a removal.
// Returning false aborts silently. A non-nil error aborts and is returned to the caller.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Deps holds dependencies for a Controller.
type Deps struct {
	API             ActivitiesAPI
	Translator      Translator
	Clock           Clock
	Logger          *slog.Logger
	SignupHideAfter time.Duration
	RemoveHideAfter time.Duration
}

// Controller is the view state of one page session plus the three operations that mutate it:
// Refresh (load), Submit (enroll) and Remove (unenroll).
// Network calls run without holding the lock; results are applied atomically.
type Controller struct {
	deps   Deps
	locale string

	mu        sync.Mutex
	snapshot  activity.Snapshot
	list      ListPanel
	options   []Option
	form      FormState
	msg       status.Message
	hideTimer Timer
	hideAt    time.Time
	closed    bool
}

// New creates a Controller for one session.
// PRE: deps.API and deps.Translator are non-nil
// POST: View shows the placeholder option and an unloaded list; call Refresh to load
func New(deps Deps, locale string) *Controller {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.SignupHideAfter <= 0 {
		deps.SignupHideAfter = DefaultSignupHideAfter
	}
	if deps.RemoveHideAfter <= 0 {
		deps.RemoveHideAfter = DefaultRemoveHideAfter
	}
	return &Controller{
		deps:    deps,
		locale:  locale,
		options: PlaceholderOptions(deps.Translator, locale),
	}
}

// Refresh fetches the activities and re-renders the list and selection control wholesale.
// POST: on success options == placeholder + snapshot names and the list holds exactly the snapshot;
// on failure the list holds one failure notice and options only the placeholder
// INVARIANT: concurrent refreshes are not serialised; the last one to complete wins
func (c *Controller) Refresh(ctx context.Context) {
	snap, err := c.deps.API.ListActivities(ctx)

	var (
		list    ListPanel
		options = PlaceholderOptions(c.deps.Translator, c.locale)
	)
	if err != nil {
		c.deps.Logger.Error("activities_load_failed", "error", err)
		list = RenderFailure(c.deps.Translator, c.locale)
		snap = nil
	} else {
		list = RenderList(snap, c.deps.Translator, c.locale)
		options = RenderOptions(snap, c.deps.Translator, c.locale)
	}

	c.mu.Lock()
	c.snapshot = snap
	c.list = list
	c.options = options
	c.mu.Unlock()
}

// Submit signs email up for activityName.
// POST: success shows the server text, clears the form and refreshes once;
// any failure shows an error, keeps the submitted values and does not refresh
func (c *Controller) Submit(ctx context.Context, email, activityName string) {
	submitted := FormState{Email: email, Activity: activityName}
	msg, err := c.deps.API.Signup(ctx, activityName, email)
	if err == nil {
		c.setForm(FormState{})
		c.show(msg, status.SeveritySuccess, c.deps.SignupHideAfter)
		c.Refresh(ctx)
		return
	}

	c.setForm(submitted)
	var rej *apiclient.RejectionError
	if errors.As(err, &rej) {
		c.deps.Logger.Warn("signup_rejected", "activity", activityName, "status", rej.StatusCode, "detail", rej.Detail)
		c.show(c.orFallback(rej.Detail, "SignupRejectedFallback"), status.SeverityError, c.deps.SignupHideAfter)
		return
	}
	c.deps.Logger.Error("signup_failed", "activity", activityName, "error", err)
	c.show(c.text("SignupTransportFailed", nil), status.SeverityError, c.deps.SignupHideAfter)
}

// Remove unregisters the participant identified by a removal control.
// The operator is asked to confirm first; declining sends nothing and leaves the message as is.
// PRE: ctl fields are URL-component encoded
// POST: returns only errors from confirm; backend failures become status messages
func (c *Controller) Remove(ctx context.Context, ctl RemoveControl, confirm Confirmer) error {
	if ctl.Activity == "" || ctl.Email == "" {
		return nil
	}
	activityName, err := uricomponent.Decode(ctl.Activity)
	if err != nil {
		c.deps.Logger.Warn("remove_control_undecodable", "field", "activity", "error", err)
		return nil
	}
	email, err := uricomponent.Decode(ctl.Email)
	if err != nil {
		c.deps.Logger.Warn("remove_control_undecodable", "field", "email", "error", err)
		return nil
	}

	ok, err := confirm.Confirm(ctx, c.ConfirmPrompt(activityName, email))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	msg, err := c.deps.API.Unregister(ctx, activityName, email)
	if err == nil {
		c.show(c.orFallback(msg, "RemoveSucceededFallback"), status.SeveritySuccess, c.deps.RemoveHideAfter)
		c.Refresh(ctx)
		return nil
	}

	var rej *apiclient.RejectionError
	if errors.As(err, &rej) {
		c.deps.Logger.Warn("remove_rejected", "activity", activityName, "status", rej.StatusCode, "detail", rej.Detail)
		c.show(c.orFallback(rej.Detail, "RemoveRejectedFallback"), status.SeverityError, c.deps.RemoveHideAfter)
		return nil
	}
	c.deps.Logger.Error("remove_failed", "activity", activityName, "error", err)
	c.show(c.text("RemoveTransportFailed", nil), status.SeverityError, c.deps.RemoveHideAfter)
	return nil
}

// ConfirmPrompt is the question put to the operator before a removal.
func (c *Controller) ConfirmPrompt(activityName, email string) string {
	return c.text("ConfirmRemove", map[string]any{"Email": email, "Activity": activityName})
}

// View returns a copy of the current view state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Locale:  c.locale,
		List:    c.list,
		Options: append([]Option(nil), c.options...),
		Message: c.msg,
		Form:    c.form,
	}
	v.List.Cards = append([]Card(nil), c.list.Cards...)
	if c.msg.Visible {
		if left := c.hideAt.Sub(c.deps.Clock.Now()); left > 0 {
			v.HideIn = left
		}
	}
	return v
}

// Snapshot returns the activities applied by the last completed Refresh.
func (c *Controller) Snapshot() activity.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(activity.Snapshot(nil), c.snapshot...)
}

// Close stops the pending hide timer. The controller stays readable.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
}

// show replaces the status message and re-arms the single hide timer.
// INVARIANT: at most one hide timer is pending; a stale one cannot hide a newer message
func (c *Controller) show(text string, sev status.Severity, hideAfter time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.msg = c.msg.Show(text, sev)
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
	if c.closed {
		return
	}
	seq := c.msg.Seq
	c.hideAt = c.deps.Clock.Now().Add(hideAfter)
	c.hideTimer = c.deps.Clock.AfterFunc(hideAfter, func() { c.hide(seq) })
}

func (c *Controller) hide(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg = c.msg.Hide(seq)
	if !c.msg.Visible {
		c.hideTimer = nil
	}
}

func (c *Controller) setForm(f FormState) {
	c.mu.Lock()
	c.form = f
	c.mu.Unlock()
}

func (c *Controller) text(key string, data map[string]any) string {
	return c.deps.Translator.T(c.locale, key, data)
}

func (c *Controller) orFallback(s, key string) string {
	if s != "" {
		return s
	}
	return c.text(key, nil)
}
