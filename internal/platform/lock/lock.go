// Package lock provides named leases used as single-flight guards.
package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrHeld is returned by Acquire when another holder owns the key.
var ErrHeld = errors.New("lock held")

// ErrNotHeld is returned when a lease has expired or was taken over.
var ErrNotHeld = errors.New("lock not held")

// Lease is proof of ownership of Key. State is a short label visible to
// State() callers while the lease is alive.
type Lease struct {
	Key   string
	Token string
	State string
}

type Locker interface {
	Acquire(ctx context.Context, key, state string, ttl time.Duration) (*Lease, error)
	// Extend resets the lease's expiry to ttl from now. It returns ErrNotHeld
	// once the lease has expired or another holder owns the key.
	Extend(ctx context.Context, lease *Lease, ttl time.Duration) error
	SetState(ctx context.Context, lease *Lease, state string) error
	State(ctx context.Context, key string) (state string, held bool, err error)
	Release(ctx context.Context, lease *Lease) error
}

func newLease(key, state string) *Lease {
	return &Lease{Key: key, Token: uuid.NewString(), State: state}
}

func encode(token, state string) string { return token + "|" + state }

func decode(raw string) (token, state string) {
	token, state, _ = strings.Cut(raw, "|")
	return token, state
}
