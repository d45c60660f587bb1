package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "page_session"

// SessionCookieName names the cookie carrying the page session id.
const SessionCookieName = "signup_session"

// SessionOptions controls the page session cookie.
type SessionOptions struct {
	Secure bool
	Path   string // defaults to "/"
}

// Session returns middleware that guarantees every request carries a page session id.
// A missing or malformed cookie is replaced with a fresh UUID.
// It never blocks a request.
func Session(opts SessionOptions) func(http.Handler) http.Handler {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    id,
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
					Path:     opts.Path,
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSessionID(r.Context(), id)))
		})
	}
}

// SessionIDFromContext extracts the page session id set by Session.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionContextKey).(string)
	return id, ok && id != ""
}

// ContextWithSessionID returns a context carrying id.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionContextKey, id)
}
