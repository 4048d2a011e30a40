package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoDatabase is the database the events platform stores its collections in.
const DefaultMongoDatabase = "evently"

// UsersCollection holds the synchronized identity provider users.
const UsersCollection = "users"

// MongoConfig selects the cluster and database to connect to.
type MongoConfig struct {
	URI         string
	Database    string
	DialTimeout time.Duration
}

// MongoDialer connects, pings, and ensures the users indexes exist.
// It fails fast with ErrMissingConnectionString when no URI is configured.
func MongoDialer(cfg MongoConfig) Dialer[*mongo.Database] {
	return func(ctx context.Context) (*mongo.Database, error) {
		uri := strings.TrimSpace(cfg.URI)
		if uri == "" {
			return nil, ErrMissingConnectionString
		}
		name := cfg.Database
		if name == "" {
			name = DefaultMongoDatabase
		}
		timeout := cfg.DialTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("evently-webhook-service"))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("mongo ping: %w", err)
		}

		db := client.Database(name)
		if err := ensureUserIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, err
		}
		return db, nil
	}
}

// CloseMongo disconnects the client behind db.
func CloseMongo(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}

func ensureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "clerkId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	return nil
}
