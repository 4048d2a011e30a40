// Package idempotency remembers which webhook deliveries were already processed.
package idempotency

import (
	"context"
	"time"
)

// Store claims delivery ids so a redelivered message is processed once.
type Store interface {
	// Claim returns true when id was not claimed within ttl.
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
	// Release forgets a claim so a later delivery can be processed.
	Release(ctx context.Context, id string) error
}

// Kind selects a Store backend.
type Kind string

const (
	KindNone   Kind = "none"
	KindMemory Kind = "memory"
	KindRedis  Kind = "redis"
)

type noopStore struct{}

// Noop returns a Store that claims every id.
func Noop() Store { return noopStore{} }

func (noopStore) Claim(context.Context, string, time.Duration) (bool, error) { return true, nil }

func (noopStore) Release(context.Context, string) error { return nil }
