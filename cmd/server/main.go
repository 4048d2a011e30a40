package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evently/webhook-service/internal/clerk"
	"github.com/evently/webhook-service/internal/config"
	"github.com/evently/webhook-service/internal/database"
	"github.com/evently/webhook-service/internal/httpapi"
	"github.com/evently/webhook-service/internal/idempotency"
	"github.com/evently/webhook-service/internal/metrics"
	"github.com/evently/webhook-service/internal/user"
	"github.com/evently/webhook-service/internal/webhook"
	sharedauth "github.com/evently/webhook-service/pkg/auth"
	"github.com/evently/webhook-service/pkg/logging"
	sharedserver "github.com/evently/webhook-service/pkg/server"
)

const serviceName = "webhook-service"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName)
	m := metrics.New()

	repo, closeRepo := newRepository(cfg)
	userService := user.NewService(repo)

	deliveries, closeDeliveries, err := newDeliveryStore(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("idempotency store error: %w", err))
	}

	clerkClient := clerk.NewClient(cfg.Clerk.SecretKey, cfg.Clerk.APIURL)
	if !clerkClient.Enabled() {
		logger.Warn("CLERK_SECRET_KEY not set; local ids will not be written back to Clerk")
	}

	webhookHandler, err := webhook.NewHandler(webhook.Config{
		Secret:      cfg.WebhookSecret,
		Users:       userService,
		Metadata:    clerkClient,
		Deliveries:  deliveries,
		DeliveryTTL: cfg.Idempotency.TTL,
		Metrics:     m,
		Logger:      logger,
	})
	if err != nil {
		panic(fmt.Errorf("webhook handler error: %w", err))
	}

	verifier, stopVerifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}
	defer stopVerifier()

	router := sharedserver.NewRouter(serviceName, func(r chi.Router) {
		r.Method(http.MethodGet, "/metrics", m.Handler())
		webhookHandler.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, userService, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	err = sharedserver.Run(ctx, srv, logger,
		webhookHandler.Wait,
		closeDeliveries,
		closeRepo,
	)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped with error", slog.Any("error", err))
		panic(err)
	}
}

// newRepository wires the configured store. Database handles are opened
// lazily by the provider on the first request that needs them.
func newRepository(cfg config.Config) (user.Repository, sharedserver.ShutdownHook) {
	switch cfg.DataStore {
	case config.DataStoreMongo:
		provider := database.NewProvider(database.MongoDialer(database.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		}), database.CloseMongo)
		return user.NewMongoRepository(provider), provider.Close
	case config.DataStoreFirestore:
		provider := database.NewProvider(database.FirestoreDialer(database.FirestoreConfig{
			ProjectID:    cfg.Firestore.ProjectID,
			EmulatorHost: cfg.Firestore.EmulatorHost,
		}), database.CloseFirestore)
		return user.NewFirestoreRepository(provider), provider.Close
	default:
		return user.NewMemoryRepository(), func(context.Context) error { return nil }
	}
}

func newDeliveryStore(ctx context.Context, cfg config.Config) (idempotency.Store, sharedserver.ShutdownHook, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Idempotency.Store {
	case idempotency.KindRedis:
		client, err := idempotency.NewRedisClient(ctx, cfg.Idempotency.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return idempotency.NewRedisStore(client), func(context.Context) error { return client.Close() }, nil
	case idempotency.KindMemory:
		return idempotency.NewMemoryStore(), noop, nil
	default:
		return idempotency.Noop(), noop, nil
	}
}
