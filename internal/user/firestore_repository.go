package user

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/evently/webhook-service/internal/database"
)

type firestoreRepository struct {
	client *database.Provider[*firestore.Client]
}

// NewFirestoreRepository stores one document per clerk id in the users collection.
func NewFirestoreRepository(client *database.Provider[*firestore.Client]) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) doc(ctx context.Context, clerkID string) (*firestore.Client, *firestore.DocumentRef, error) {
	client, err := r.client.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Collection(database.UsersCollection).Doc(clerkID), nil
}

func (r *firestoreRepository) Create(ctx context.Context, u User) (*User, error) {
	_, ref, err := r.doc(ctx, u.ClerkID)
	if err != nil {
		return nil, err
	}

	u.ID = uuid.NewString()
	if _, err := ref.Create(ctx, u); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (r *firestoreRepository) GetByClerkID(ctx context.Context, clerkID string) (*User, error) {
	_, ref, err := r.doc(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var u User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

func (r *firestoreRepository) Update(ctx context.Context, clerkID string, update Update, at time.Time) (*User, error) {
	client, ref, err := r.doc(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var updated User
	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := snap.DataTo(&updated); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}

		updated.FirstName = update.FirstName
		updated.LastName = update.LastName
		updated.Username = update.Username
		updated.Photo = update.Photo
		updated.UpdatedAt = at

		return tx.Update(ref, []firestore.Update{
			{Path: "first_name", Value: update.FirstName},
			{Path: "last_name", Value: update.LastName},
			{Path: "username", Value: update.Username},
			{Path: "photo", Value: update.Photo},
			{Path: "updated_at", Value: at},
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, clerkID string) (*User, error) {
	client, ref, err := r.doc(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var deleted User
	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := snap.DataTo(&deleted); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
