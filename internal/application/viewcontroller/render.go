package viewcontroller

import (
	"time"

	"clubsignup/internal/domain/activity"
	"clubsignup/internal/domain/status"
	"clubsignup/internal/platform/uricomponent"
)

// Translator supplies the localized UI text.
type Translator interface {
	T(locale, key string, data map[string]any) string
	Plural(locale, key string, count int) string
}

// RemoveControl is the data pair carried by a participant's removal control.
// Both fields are URL-component encoded.
type RemoveControl struct {
	Activity string `json:"activity"`
	Email    string `json:"email"`
}

// ParticipantRow is one rendered participant.
type ParticipantRow struct {
	Email       string        `json:"email"`
	RemoveLabel string        `json:"remove_label"`
	Control     RemoveControl `json:"control"`
}

// Card is one rendered activity.
type Card struct {
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Schedule      string           `json:"schedule"`
	SpotsLeft     int              `json:"spots_left"`
	SpotsLeftText string           `json:"spots_left_text"`
	Participants  []ParticipantRow `json:"participants"`
	// NoParticipants holds the placeholder text and is empty whenever Participants is not.
	NoParticipants string `json:"no_participants,omitempty"`
}

// ListPanel is the activities list area.
// Exactly one of Cards or Failure is meaningful once Loaded is true.
type ListPanel struct {
	Loaded  bool   `json:"loaded"`
	Cards   []Card `json:"cards"`
	Failure string `json:"failure,omitempty"`
}

// Option is one entry of the activity selection control.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// FormState holds the sign-up form field values to render.
type FormState struct {
	Email    string `json:"email"`
	Activity string `json:"activity"`
}

// View is everything the page needs, copied out of the controller.
type View struct {
	Locale  string         `json:"locale"`
	List    ListPanel      `json:"list"`
	Options []Option       `json:"options"`
	Message status.Message `json:"message"`
	HideIn  time.Duration  `json:"hide_in"`
	Form    FormState      `json:"form"`
}

// RenderList builds the list panel from a snapshot, in snapshot order.
// It always starts from an empty panel, so repeated calls never accumulate entries.
// INVARIANT: SpotsLeft is recomputed from the snapshot on every call
func RenderList(snap activity.Snapshot, tr Translator, locale string) ListPanel {
	panel := ListPanel{Loaded: true, Cards: make([]Card, 0, len(snap))}
	for _, a := range snap {
		spots := a.SpotsLeft()
		card := Card{
			Name:          a.Name,
			Description:   a.Description,
			Schedule:      a.Schedule,
			SpotsLeft:     spots,
			SpotsLeftText: tr.Plural(locale, "SpotsLeft", spots),
			Participants:  make([]ParticipantRow, 0, len(a.Participants)),
		}
		if len(a.Participants) == 0 {
			card.NoParticipants = tr.T(locale, "NoParticipants", nil)
		}
		for _, p := range a.Participants {
			card.Participants = append(card.Participants, ParticipantRow{
				Email:       p,
				RemoveLabel: tr.T(locale, "RemoveLabel", map[string]any{"Email": p}),
				Control: RemoveControl{
					Activity: uricomponent.Encode(a.Name),
					Email:    uricomponent.Encode(p),
				},
			})
		}
		panel.Cards = append(panel.Cards, card)
	}
	return panel
}

// RenderFailure builds the list panel shown when loading failed.
func RenderFailure(tr Translator, locale string) ListPanel {
	return ListPanel{Loaded: true, Failure: tr.T(locale, "LoadFailed", nil)}
}

// PlaceholderOptions returns the selection control reset to its disabled placeholder.
func PlaceholderOptions(tr Translator, locale string) []Option {
	return []Option{{Value: "", Label: tr.T(locale, "SelectPlaceholder", nil), Disabled: true}}
}

// RenderOptions builds the selection control: the placeholder, then one option per activity.
// INVARIANT: the non-placeholder values equal snap.Names() in order
func RenderOptions(snap activity.Snapshot, tr Translator, locale string) []Option {
	opts := PlaceholderOptions(tr, locale)
	for _, a := range snap {
		opts = append(opts, Option{Value: a.Name, Label: a.Name})
	}
	return opts
}
