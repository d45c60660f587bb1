package i18n

import (
	"embed"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
}

// NewTranslator builds a Translator from the embedded active.*.toml files.
// An unparseable defaultLocale falls back to English.
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.en.toml", "active.fr.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			slog.Error("i18n_load_failed", "file", file, "error", err)
		}
	}
	return &Translator{bundle: bundle, defaultLanguage: tag}
}

// T renders the message identified by key for locale.
// locale may be an Accept-Language header value. Missing keys fall back to the
// default language, then to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	return t.localize(locale, &i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// Plural renders a count-dependent message; the template sees {{.Count}}.
func (t *Translator) Plural(locale, key string, count int) string {
	n := count
	if n < 0 {
		n = -n
	}
	return t.localize(locale, &i18n.LocalizeConfig{
		MessageID:    key,
		PluralCount:  n,
		TemplateData: map[string]any{"Count": count},
	})
}

// Match returns the best supported language tag for an Accept-Language value.
func (t *Translator) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLanguage.String()
	}
	matcher := language.NewMatcher(t.bundle.LanguageTags())
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return t.defaultLanguage.String()
	}
	return t.bundle.LanguageTags()[idx].String()
}

func (t *Translator) localize(locale string, cfg *i18n.LocalizeConfig) string {
	if cfg.MessageID == "" {
		return ""
	}
	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	msg, err := i18n.NewLocalizer(t.bundle, languages...).Localize(cfg)
	if err != nil {
		slog.Warn("i18n_localize_failed", "key", cfg.MessageID, "locales", languages, "error", err)
		return cfg.MessageID
	}
	return msg
}
