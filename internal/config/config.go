package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/evently/webhook-service/internal/clerk"
	"github.com/evently/webhook-service/internal/database"
	"github.com/evently/webhook-service/internal/idempotency"
	sharedauth "github.com/evently/webhook-service/pkg/auth"
	"github.com/evently/webhook-service/pkg/envconfig"
)

// Config encapsulates the runtime configuration for the webhook service.
type Config struct {
	Port          string    `validate:"required"`
	WebhookSecret string    `validate:"required"`
	DataStore     DataStore `validate:"required,oneof=mongo firestore memory"`
	Mongo         MongoConfig
	Firestore     FirestoreConfig
	Clerk         ClerkConfig
	Auth          AuthConfig
	Idempotency   IdempotencyConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMongo stores users in MongoDB.
	DataStoreMongo DataStore = "mongo"
	// DataStoreFirestore stores users in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
	// DataStoreMemory keeps users in-memory (local development/testing).
	DataStoreMemory DataStore = "memory"
)

type MongoConfig struct {
	URI      string
	Database string
}

type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// ClerkConfig configures the Backend API client used for metadata write-back.
type ClerkConfig struct {
	SecretKey string
	APIURL    string `validate:"omitempty,url"`
}

type AuthConfig struct {
	Mode     sharedauth.Mode `validate:"oneof=clerk noop"`
	JWKSURL  string          `validate:"required_if=Mode clerk"`
	Audience string
	Issuer   string
}

type IdempotencyConfig struct {
	Store    idempotency.Kind `validate:"oneof=none memory redis"`
	RedisURL string           `validate:"required_if=Store redis"`
	TTL      time.Duration    `validate:"gt=0"`
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	ttl, err := envconfig.Duration("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:          envconfig.Get("PORT", "8080"),
		WebhookSecret: envconfig.First("", "WEBHOOK_SECRET", "CLERK_WEBHOOK_SECRET"),
		DataStore:     DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMongo)))),
		Mongo: MongoConfig{
			URI:      envconfig.Get("MONGODB_URI", ""),
			Database: envconfig.Get("MONGODB_DATABASE", database.DefaultMongoDatabase),
		},
		Firestore: FirestoreConfig{
			ProjectID:    envconfig.Get("GCP_PROJECT_ID", ""),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Clerk: ClerkConfig{
			SecretKey: envconfig.Get("CLERK_SECRET_KEY", ""),
			APIURL:    envconfig.Get("CLERK_API_URL", clerk.DefaultBaseURL),
		},
		Auth: AuthConfig{
			Mode:     sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeClerk)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Idempotency: IdempotencyConfig{
			Store:    idempotency.Kind(strings.ToLower(envconfig.Get("IDEMPOTENCY_STORE", string(idempotency.KindNone)))),
			RedisURL: envconfig.Get("REDIS_URL", ""),
			TTL:      ttl,
		},
	}

	if err := envconfig.Validate(cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.DataStore {
	case DataStoreMongo:
		if strings.TrimSpace(cfg.Mongo.URI) == "" {
			return fmt.Errorf("MONGODB_URI is required when DATASTORE=mongo: %w", database.ErrMissingConnectionString)
		}
	case DataStoreFirestore:
		if cfg.Firestore.ProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required when DATASTORE=firestore")
		}
	}
	return nil
}
