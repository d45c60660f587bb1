package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environments accepted by SIGNUP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the process configuration, read from SIGNUP_* environment variables.
type Config struct {
	Addr            string        `env:"SIGNUP_ADDR" envDefault:":8080"`
	Env             string        `env:"SIGNUP_ENV" envDefault:"development"`
	DBPath          string        `env:"SIGNUP_DB_PATH" envDefault:"clubsignup.db"`
	DatabaseURL     string        `env:"SIGNUP_DATABASE_URL"`
	APIURL          string        `env:"SIGNUP_API_URL"`
	CSRFKey         string        `env:"SIGNUP_CSRF_KEY"`
	Locale          string        `env:"SIGNUP_LOCALE" envDefault:"en"`
	SignupHideAfter time.Duration `env:"SIGNUP_SIGNUP_HIDE_AFTER" envDefault:"5s"`
	RemoveHideAfter time.Duration `env:"SIGNUP_REMOVE_HIDE_AFTER" envDefault:"4s"`
	SessionTTL      time.Duration `env:"SIGNUP_SESSION_TTL" envDefault:"30m"`
	MaxSessions     int           `env:"SIGNUP_MAX_SESSIONS" envDefault:"10000"`
	RateLimit       int           `env:"SIGNUP_RATE_LIMIT" envDefault:"20"` // requests per second per client
	SlowQuery       time.Duration `env:"SIGNUP_SLOW_QUERY" envDefault:"50ms"`
	Seed            bool          `env:"SIGNUP_SEED" envDefault:"true"`
	ResendKey       string        `env:"SIGNUP_RESEND_KEY"`
	ResendFrom      string        `env:"SIGNUP_RESEND_FROM" envDefault:"Mergington Activities <activities@mergington.edu>"`
	OTelEndpoint    string        `env:"SIGNUP_OTEL_ENDPOINT"`
	LogLevel        string        `env:"SIGNUP_LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file from the working directory, then the environment.
// Variables already set in the environment win over the file.
// POST: Returns a validated Config or an error naming the offending variable
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules that struct tags cannot express.
func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("SIGNUP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if c.CSRFKey != "" {
		if key, err := hex.DecodeString(c.CSRFKey); err != nil || len(key) != 32 {
			return errors.New("SIGNUP_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
	} else if c.IsProduction() {
		return errors.New("SIGNUP_CSRF_KEY is required in production")
	}
	if c.SignupHideAfter <= 0 || c.RemoveHideAfter <= 0 {
		return errors.New("SIGNUP_SIGNUP_HIDE_AFTER and SIGNUP_REMOVE_HIDE_AFTER must be positive")
	}
	if c.MaxSessions <= 0 {
		return errors.New("SIGNUP_MAX_SESSIONS must be positive")
	}
	if c.RateLimit <= 0 {
		return errors.New("SIGNUP_RATE_LIMIT must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether SIGNUP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// UsePostgres reports whether the PostgreSQL store is selected.
func (c Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// CSRFKeyBytes decodes SIGNUP_CSRF_KEY, or generates a random key outside production.
// PRE: Validate passed
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey != "" {
		return hex.DecodeString(c.CSRFKey)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "set SIGNUP_CSRF_KEY so sessions survive restarts")
	return key, nil
}

// SlogLevel maps SIGNUP_LOG_LEVEL to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("SIGNUP_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
