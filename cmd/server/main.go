package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clubsignup/internal/adapters/apiclient"
	emailPkg "clubsignup/internal/adapters/email"
	web "clubsignup/internal/adapters/http"
	"clubsignup/internal/adapters/http/middleware"
	"clubsignup/internal/adapters/http/perf"
	"clubsignup/internal/adapters/i18n"
	"clubsignup/internal/adapters/storage"
	activityStore "clubsignup/internal/adapters/storage/activity"
	"clubsignup/internal/application/orchestrators"
	"clubsignup/internal/application/viewcontroller"
	"clubsignup/internal/platform/config"
	"clubsignup/internal/platform/otel"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "clubsignup", cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)

	store, closeStore, err := openStore(ctx, cfg, collector)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer closeStore()

	if cfg.Seed {
		if err := orchestrators.ExecuteSeedActivities(ctx, orchestrators.SeedActivitiesDeps{Store: store}); err != nil {
			log.Fatalf("failed to seed activities: %v", err)
		}
	}

	var mailer emailPkg.Sender
	if cfg.ResendKey != "" {
		mailer = emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		slog.Info("email_configured", "sender", "resend")
	} else {
		mailer = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_disabled", "reason", "SIGNUP_RESEND_KEY is not set")
		} else {
			slog.Info("email_configured", "sender", "noop")
		}
	}

	translator := i18n.NewTranslator(cfg.Locale)

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = loopbackURL(cfg.Addr)
	}
	api := apiclient.New(apiURL, apiclient.WithCollector(collector))
	sessions := viewcontroller.NewRegistry(func(locale string) *viewcontroller.Controller {
		return viewcontroller.New(viewcontroller.Deps{
			API:             api,
			Translator:      translator,
			SignupHideAfter: cfg.SignupHideAfter,
			RemoveHideAfter: cfg.RemoveHideAfter,
		}, locale)
	}, cfg.SessionTTL, viewcontroller.WithMaxSessions(cfg.MaxSessions))

	stopCh := make(chan struct{})
	defer close(stopCh)
	sessions.StartJanitor(time.Minute, stopCh)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Second)
	limiter.StartCleanup(stopCh)

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		log.Fatalf("invalid CSRF key: %v", err)
	}

	handler := web.NewMux(web.Deps{
		Activities:  store,
		Mailer:      mailer,
		Sessions:    sessions,
		Translator:  translator,
		Collector:   collector,
		CSRFKey:     csrfKey,
		Secure:      cfg.IsProduction(),
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"postgres", cfg.UsePostgres(), "schema", storage.LatestSchemaVersion(), "api_url", apiURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing_shutdown_failed", "error", err)
	}
}

// openStore returns the activity store selected by the configuration and a func releasing it.
func openStore(ctx context.Context, cfg config.Config, collector *perf.Collector) (activityStore.Store, func(), error) {
	if cfg.UsePostgres() {
		pool, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return activityStore.NewPostgresStore(pool), pool.Close, nil
	}

	db, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.MigrateSQLite(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	timed := storage.NewTimedDB(db, collector, cfg.SlowQuery)
	return activityStore.NewSQLiteStore(timed), func() { timed.Close() }, nil
}

// loopbackURL is the base URL the page controllers use to reach this process's own API.
func loopbackURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://127.0.0.1:8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
