package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	createFn       func(context.Context, User) (*User, error)
	getByClerkIDFn func(context.Context, string) (*User, error)
	updateFn       func(context.Context, string, Update, time.Time) (*User, error)
	deleteFn       func(context.Context, string) (*User, error)
}

func (f *fakeRepo) Create(ctx context.Context, u User) (*User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	return nil, errors.New("createFn not provided")
}

func (f *fakeRepo) GetByClerkID(ctx context.Context, clerkID string) (*User, error) {
	if f.getByClerkIDFn != nil {
		return f.getByClerkIDFn(ctx, clerkID)
	}
	return nil, errors.New("getByClerkIDFn not provided")
}

func (f *fakeRepo) Update(ctx context.Context, clerkID string, update Update, at time.Time) (*User, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, clerkID, update, at)
	}
	return nil, errors.New("updateFn not provided")
}

func (f *fakeRepo) Delete(ctx context.Context, clerkID string) (*User, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, clerkID)
	}
	return nil, errors.New("deleteFn not provided")
}

func TestServiceCreate_NormalizesAndStamps(t *testing.T) {
	var got User
	repo := &fakeRepo{
		createFn: func(_ context.Context, u User) (*User, error) {
			got = u
			u.ID = "local-1"
			return &u, nil
		},
	}

	svc := NewService(repo)
	created, err := svc.Create(context.Background(), User{
		ID:       "client-supplied",
		ClerkID:  " ext_1 ",
		Email:    "a@example.com ",
		Username: " alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "ext_1", got.ClerkID)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, "alice", got.Username)
	assert.Empty(t, got.ID, "local id is assigned by the store")
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.Equal(t, "local-1", created.ID)
}

func TestServiceCreate_RejectsMissingFields(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.Create(context.Background(), User{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), User{ClerkID: "ext_1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceUpdate_PropagatesNotFound(t *testing.T) {
	repo := &fakeRepo{
		updateFn: func(context.Context, string, Update, time.Time) (*User, error) {
			return nil, ErrNotFound
		},
	}

	_, err := NewService(repo).Update(context.Background(), "ext_missing", Update{FirstName: "A"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDelete_MissingIsNotAnError(t *testing.T) {
	repo := &fakeRepo{
		deleteFn: func(context.Context, string) (*User, error) {
			return nil, ErrNotFound
		},
	}

	deleted, err := NewService(repo).Delete(context.Background(), "ext_missing")
	require.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestServiceDelete_PropagatesErrors(t *testing.T) {
	wantErr := errors.New("boom")
	repo := &fakeRepo{
		deleteFn: func(context.Context, string) (*User, error) {
			return nil, wantErr
		},
	}

	if _, err := NewService(repo).Delete(context.Background(), "ext_1"); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestService_MemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())

	created, err := svc.Create(ctx, User{
		ClerkID:   "ext_1",
		Email:     "a@example.com",
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Liddell",
		Photo:     "https://img.example.com/a.png",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = svc.Create(ctx, User{ClerkID: "ext_1", Email: "dup@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	updated, err := svc.Update(ctx, "ext_1", Update{
		FirstName: "Alicia",
		LastName:  "L",
		Username:  "alicia",
		Photo:     "https://img.example.com/b.png",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "ext_1", updated.ClerkID)
	assert.Equal(t, "a@example.com", updated.Email)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	deleted, err := svc.Delete(ctx, "ext_1")
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.Get(ctx, "ext_1")
	assert.ErrorIs(t, err, ErrNotFound)
}
