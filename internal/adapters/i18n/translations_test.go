package i18n_test

import (
	"testing"

	"clubsignup/internal/adapters/i18n"
)

func TestTranslator_T(t *testing.T) {
	tr := i18n.NewTranslator("en")

	tests := []struct {
		name   string
		locale string
		key    string
		data   map[string]any
		want   string
	}{
		{name: "english", locale: "en", key: "NoParticipants", want: "No participants yet"},
		{name: "french", locale: "fr", key: "NoParticipants", want: "Aucun participant pour l'instant"},
		{name: "unknown locale falls back", locale: "de", key: "SelectPlaceholder", want: "-- Select an activity --"},
		{name: "template data", locale: "en", key: "ConfirmRemove",
			data: map[string]any{"Email": "a@x.com", "Activity": "Chess Club"},
			want: "Unregister a@x.com from Chess Club?"},
		{name: "missing key returns key", locale: "en", key: "NoSuchKey", want: "NoSuchKey"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.T(tt.locale, tt.key, tt.data); got != tt.want {
				t.Errorf("T(%q, %q) = %q, want %q", tt.locale, tt.key, got, tt.want)
			}
		})
	}
}

func TestTranslator_Plural(t *testing.T) {
	tr := i18n.NewTranslator("en")
	if got := tr.Plural("en", "SpotsLeft", 9); got != "9 spots left" {
		t.Errorf("Plural(9) = %q", got)
	}
	if got := tr.Plural("en", "SpotsLeft", 1); got != "1 spot left" {
		t.Errorf("Plural(1) = %q", got)
	}
	if got := tr.Plural("en", "SpotsLeft", 0); got != "0 spots left" {
		t.Errorf("Plural(0) = %q", got)
	}
}

func TestTranslator_Match(t *testing.T) {
	tr := i18n.NewTranslator("en")
	if got := tr.Match("fr-CA,fr;q=0.9,en;q=0.5"); got != "fr" {
		t.Errorf("Match(fr-CA) = %q, want fr", got)
	}
	if got := tr.Match(""); got != "en" {
		t.Errorf("Match(empty) = %q, want en", got)
	}
	if got := tr.Match("ja"); got != "en" {
		t.Errorf("Match(ja) = %q, want en", got)
	}
}
