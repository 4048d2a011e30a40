package database

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
)

// FirestoreConfig selects the project and optional emulator.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// FirestoreDialer creates a Firestore client for the configured project.
func FirestoreDialer(cfg FirestoreConfig) Dialer[*firestore.Client] {
	return func(ctx context.Context) (*firestore.Client, error) {
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("gcp project id is required for firestore")
		}
		if cfg.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
				return nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		client, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		return client, nil
	}
}

// CloseFirestore closes the client.
func CloseFirestore(_ context.Context, client *firestore.Client) error {
	return client.Close()
}
