package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no user matches the external identifier.
	ErrNotFound = errors.New("user not found")
	// ErrConflict indicates a user with the same external identifier already exists.
	ErrConflict = errors.New("user already exists")
	// ErrInvalidInput indicates a required field was absent.
	ErrInvalidInput = errors.New("invalid user input")
)

// User is the local record mirrored from the identity provider.
// ID is assigned by the store on creation; ClerkID never changes afterwards.
type User struct {
	ID        string    `json:"_id" firestore:"id"`
	ClerkID   string    `json:"clerkId" firestore:"clerk_id"`
	Email     string    `json:"email" firestore:"email"`
	Username  string    `json:"username" firestore:"username"`
	FirstName string    `json:"firstName" firestore:"first_name"`
	LastName  string    `json:"lastName" firestore:"last_name"`
	Photo     string    `json:"photo" firestore:"photo"`
	CreatedAt time.Time `json:"createdAt" firestore:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updated_at"`
}

// Update carries the fields a "user updated" event may change.
type Update struct {
	FirstName string
	LastName  string
	Username  string
	Photo     string
}

// Repository defines user data access keyed by the external identifier.
type Repository interface {
	Create(ctx context.Context, u User) (*User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*User, error)
	Update(ctx context.Context, clerkID string, update Update, at time.Time) (*User, error)
	// Delete returns the removed record, or ErrNotFound when none existed.
	Delete(ctx context.Context, clerkID string) (*User, error)
}

// Service synchronizes identity provider users into the local store.
type Service interface {
	Create(ctx context.Context, u User) (*User, error)
	Get(ctx context.Context, clerkID string) (*User, error)
	Update(ctx context.Context, clerkID string, update Update) (*User, error)
	// Delete returns nil, nil when no record existed.
	Delete(ctx context.Context, clerkID string) (*User, error)
}
