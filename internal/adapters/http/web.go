package web

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"clubsignup/internal/adapters/email"
	"clubsignup/internal/adapters/http/middleware"
	"clubsignup/internal/adapters/http/perf"
	"clubsignup/internal/adapters/i18n"
	activityStore "clubsignup/internal/adapters/storage/activity"
	"clubsignup/internal/application/viewcontroller"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps holds everything the HTTP surface needs.
type Deps struct {
	Activities activityStore.Store
	Mailer     email.Sender // optional; nil sends no confirmation mail
	Sessions   *viewcontroller.Registry
	Translator *i18n.Translator
	Collector  *perf.Collector

	// CSRFKey protects /ui/ form posts. Nil disables the check (tests only).
	CSRFKey     []byte
	Secure      bool
	RateLimiter *middleware.RateLimiter // optional
	SlowRequest time.Duration
}

type server struct {
	deps Deps
}

// NewMux wires the activities API and the server-rendered page.
//
// Routes:
//
//	GET    /                                  307 to /ui/
//	GET    /activities                        catalogue as an ordered JSON object
//	POST   /activities/{name}/signup?email=   enrol
//	DELETE /activities/{name}/participants?email=
//	GET    /ui/  POST /ui/signup  POST /ui/unregister  GET /ui/view
//	GET    /healthz  GET /debug/perf
func NewMux(deps Deps) http.Handler {
	s := &server{deps: deps}

	// Names may contain "/" encoded as %2F, so match on the escaped path.
	r := mux.NewRouter().UseEncodedPath()
	r.Use(middleware.Timing(deps.Collector, deps.SlowRequest))

	r.HandleFunc("/", handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/debug/perf", s.handlePerf).Methods(http.MethodGet)

	r.HandleFunc("/activities", s.handleListActivities).Methods(http.MethodGet)
	r.HandleFunc("/activities/{name}/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/activities/{name}/participants", s.handleUnregister).Methods(http.MethodDelete)

	static, _ := fs.Sub(staticFS, "static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Handle("/ui", http.RedirectHandler("/ui/", http.StatusMovedPermanently))
	ui := r.PathPrefix("/ui").Subrouter()
	ui.Use(middleware.Session(middleware.SessionOptions{Secure: deps.Secure, Path: "/ui"}))
	if deps.CSRFKey != nil {
		ui.Use(middleware.CSRF(deps.CSRFKey, deps.Secure))
	}
	ui.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	ui.HandleFunc("/signup", s.handlePageSignup).Methods(http.MethodPost)
	ui.HandleFunc("/unregister", s.handlePageUnregister).Methods(http.MethodPost)
	ui.HandleFunc("/view", s.handleView).Methods(http.MethodGet)

	outer := []func(http.Handler) http.Handler{middleware.SecurityHeaders}
	if deps.RateLimiter != nil {
		outer = append(outer, middleware.RateLimit(deps.RateLimiter))
	}
	return middleware.Chain(r, outer...)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
