package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrMissingConnectionString is returned when no database URI is configured.
	ErrMissingConnectionString = errors.New("database connection string is missing")
	// ErrClosed is returned by Get after Close.
	ErrClosed = errors.New("database provider closed")
)

// State tags the lifecycle of a Provider.
type State int

const (
	StateIdle State = iota
	StatePending
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Dialer opens a new connection handle.
type Dialer[T any] func(ctx context.Context) (T, error)

// Closer releases a handle produced by a Dialer.
type Closer[T any] func(ctx context.Context, conn T) error

// Provider lazily opens a single connection handle and hands the same handle
// to every caller for the rest of its lifetime. Concurrent callers arriving
// while an attempt is pending share that attempt.
type Provider[T any] struct {
	dial  Dialer[T]
	close Closer[T]
	group singleflight.Group

	mu    sync.Mutex
	state State
	conn  T
}

// NewProvider returns an idle provider. close may be nil.
func NewProvider[T any](dial Dialer[T], close Closer[T]) *Provider[T] {
	return &Provider[T]{dial: dial, close: close}
}

// State reports the current lifecycle state.
func (p *Provider[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Get returns the live handle, dialing on first use. ctx bounds only the
// caller's wait; the attempt itself is not cancelled when one caller gives up.
func (p *Provider[T]) Get(ctx context.Context) (T, error) {
	var zero T

	p.mu.Lock()
	switch p.state {
	case StateReady:
		conn := p.conn
		p.mu.Unlock()
		return conn, nil
	case StateClosed:
		p.mu.Unlock()
		return zero, ErrClosed
	case StateIdle:
		p.state = StatePending
	}
	p.mu.Unlock()

	dialCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan("connect", func() (any, error) {
		return p.connect(dialCtx)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (p *Provider[T]) connect(ctx context.Context) (T, error) {
	var zero T

	// A previous flight may have finished between the state check and DoChan.
	p.mu.Lock()
	if p.state == StateReady {
		conn := p.conn
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	conn, err := p.dial(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		if p.state == StatePending {
			p.state = StateIdle
		}
		return zero, fmt.Errorf("connect: %w", err)
	}

	if p.state == StateClosed {
		if p.close != nil {
			_ = p.close(ctx, conn)
		}
		return zero, ErrClosed
	}

	p.conn = conn
	p.state = StateReady
	return conn, nil
}

// Close releases the handle if one was opened. Later Get calls fail with ErrClosed.
func (p *Provider[T]) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.state
	p.state = StateClosed
	if prev != StateReady || p.close == nil {
		return nil
	}

	var zero T
	conn := p.conn
	p.conn = zero
	return p.close(ctx, conn)
}
