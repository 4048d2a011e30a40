package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new user service
func NewService(repo Repository) Service {
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *service) Create(ctx context.Context, u User) (*User, error) {
	u.ClerkID = strings.TrimSpace(u.ClerkID)
	u.Email = strings.TrimSpace(u.Email)
	if u.ClerkID == "" {
		return nil, fmt.Errorf("%w: missing clerk id", ErrInvalidInput)
	}
	if u.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidInput)
	}

	u.Username = strings.TrimSpace(u.Username)
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Photo = strings.TrimSpace(u.Photo)
	u.ID = ""

	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	return s.repo.Create(ctx, u)
}

func (s *service) Get(ctx context.Context, clerkID string) (*User, error) {
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return nil, fmt.Errorf("%w: missing clerk id", ErrInvalidInput)
	}
	return s.repo.GetByClerkID(ctx, clerkID)
}

func (s *service) Update(ctx context.Context, clerkID string, update Update) (*User, error) {
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return nil, fmt.Errorf("%w: missing clerk id", ErrInvalidInput)
	}

	update = Update{
		FirstName: strings.TrimSpace(update.FirstName),
		LastName:  strings.TrimSpace(update.LastName),
		Username:  strings.TrimSpace(update.Username),
		Photo:     strings.TrimSpace(update.Photo),
	}
	return s.repo.Update(ctx, clerkID, update, s.now())
}

func (s *service) Delete(ctx context.Context, clerkID string) (*User, error) {
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return nil, fmt.Errorf("%w: missing clerk id", ErrInvalidInput)
	}

	deleted, err := s.repo.Delete(ctx, clerkID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
