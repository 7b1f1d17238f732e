package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/focusnest/goal-service/pkg/auth"
	"github.com/focusnest/goal-service/pkg/envconfig"
)

// Config encapsulates the runtime configuration for the goal service.
type Config struct {
	Port         string `validate:"required,numeric"`
	GCPProjectID string
	DataStore    DataStore `validate:"oneof=memory firestore"`
	LogLevel     string    `validate:"omitempty,oneof=debug info warn warning error"`
	Version      string
	Auth         AuthConfig
	Firestore    FirestoreConfig
	DayKey       DayKeyConfig
	Events       EventsConfig
	Sentry       SentryConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps goals, habits and stats in-memory (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores everything in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     auth.Mode `validate:"oneof=noop clerk"`
	JWKSURL  string    `validate:"omitempty,url"`
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	Database     string `validate:"required"`
	EmulatorHost string
}

// DayKeyConfig controls how "today" is derived for day keys.
type DayKeyConfig struct {
	TimeZone string `validate:"required"`
	Location *time.Location
}

// EventsConfig guards the internal event routes. An empty token disables them.
type EventsConfig struct {
	Token string
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN string `validate:"omitempty,url"`
}

// Load reads environment variables (and a local .env file when present) into Config with validation.
func Load() (Config, error) {
	if err := envconfig.LoadDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:    DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		LogLevel:     strings.ToLower(envconfig.Get("LOG_LEVEL", "info")),
		Version:      envconfig.Get("SERVICE_VERSION", "dev"),
		Auth: AuthConfig{
			Mode:     auth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(auth.ModeNoop)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			Database:     envconfig.Get("FIRESTORE_DATABASE", "(default)"),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		DayKey: DayKeyConfig{
			TimeZone: envconfig.Get("DAY_KEY_TIMEZONE", "UTC"),
		},
		Events: EventsConfig{
			Token: envconfig.Get("INTERNAL_EVENTS_TOKEN", ""),
		},
		Sentry: SentryConfig{
			DSN: envconfig.Get("SENTRY_DSN", ""),
		},
	}

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.DataStore == DataStoreFirestore && cfg.GCPProjectID == "" {
		return fmt.Errorf("gcp project id required when datastore=firestore")
	}

	if cfg.Auth.Mode == auth.ModeClerk && cfg.Auth.JWKSURL == "" {
		return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
	}

	loc, err := time.LoadLocation(cfg.DayKey.TimeZone)
	if err != nil {
		return fmt.Errorf("DAY_KEY_TIMEZONE: %w", err)
	}
	cfg.DayKey.Location = loc

	return nil
}
