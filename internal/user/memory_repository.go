package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]User // clerkID -> User
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, u User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[u.ClerkID]; exists {
		return nil, ErrConflict
	}

	u.ID = uuid.NewString()
	r.store[u.ClerkID] = u
	return &u, nil
}

func (r *memoryRepository) GetByClerkID(_ context.Context, clerkID string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.store[clerkID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepository) Update(_ context.Context, clerkID string, update Update, at time.Time) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.store[clerkID]
	if !ok {
		return nil, ErrNotFound
	}

	u.FirstName = update.FirstName
	u.LastName = update.LastName
	u.Username = update.Username
	u.Photo = update.Photo
	u.UpdatedAt = at
	r.store[clerkID] = u
	return &u, nil
}

func (r *memoryRepository) Delete(_ context.Context, clerkID string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.store[clerkID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.store, clerkID)
	return &u, nil
}
