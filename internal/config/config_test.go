package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evently/webhook-service/internal/database"
	"github.com/evently/webhook-service/internal/idempotency"
	sharedauth "github.com/evently/webhook-service/pkg/auth"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "whsec_test")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("CLERK_JWKS_URL", "https://clerk.example.com/.well-known/jwks.json")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DataStoreMongo, cfg.DataStore)
	assert.Equal(t, "evently", cfg.Mongo.Database)
	assert.Equal(t, sharedauth.ModeClerk, cfg.Auth.Mode)
	assert.Equal(t, idempotency.KindNone, cfg.Idempotency.Store)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
}

func TestLoad_MissingSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WEBHOOK_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WebhookSecret")
}

func TestLoad_LegacySecretName(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WEBHOOK_SECRET", "")
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "whsec_legacy", cfg.WebhookSecret)
}

func TestLoad_MongoRequiresURI(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MONGODB_URI", "")

	_, err := Load()
	assert.ErrorIs(t, err, database.ErrMissingConnectionString)
}

func TestLoad_MemoryStoreNoop(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MONGODB_URI", "")
	t.Setenv("DATASTORE", "memory")
	t.Setenv("AUTH_MODE", "noop")
	t.Setenv("CLERK_JWKS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DataStoreMemory, cfg.DataStore)
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATASTORE", "postgres")
	_, err := Load()
	assert.Error(t, err)

	setBaseEnv(t)
	t.Setenv("DATASTORE", "mongo")
	t.Setenv("IDEMPOTENCY_STORE", "redis")
	_, err = Load()
	assert.Error(t, err, "redis store needs REDIS_URL")

	t.Setenv("IDEMPOTENCY_STORE", "none")
	t.Setenv("IDEMPOTENCY_TTL", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_FirestoreRequiresProject(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATASTORE", "firestore")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("GCP_PROJECT_ID", "evently-dev")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "evently-dev", cfg.Firestore.ProjectID)
}
