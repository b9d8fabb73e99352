package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is an in-process Locker for single-node runs and tests.
type MemoryLocker struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	token   string
	state   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{now: time.Now, entries: map[string]memoryEntry{}}
}

// WithClock replaces the time source; used by expiry tests.
func (l *MemoryLocker) WithClock(now func() time.Time) *MemoryLocker {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

func (l *MemoryLocker) live(key string) (memoryEntry, bool) {
	e, ok := l.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expires.IsZero() && !l.now().Before(e.expires) {
		delete(l.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (l *MemoryLocker) Acquire(_ context.Context, key, state string, ttl time.Duration) (*Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.live(key); held {
		return nil, ErrHeld
	}
	lease := newLease(key, state)
	e := memoryEntry{token: lease.Token, state: state}
	if ttl > 0 {
		e.expires = l.now().Add(ttl)
	}
	l.entries[key] = e
	return lease, nil
}

func (l *MemoryLocker) Extend(_ context.Context, lease *Lease, ttl time.Duration) error {
	if lease == nil {
		return ErrNotHeld
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, held := l.live(lease.Key)
	if !held || e.token != lease.Token {
		return ErrNotHeld
	}
	e.expires = time.Time{}
	if ttl > 0 {
		e.expires = l.now().Add(ttl)
	}
	l.entries[lease.Key] = e
	return nil
}

func (l *MemoryLocker) SetState(_ context.Context, lease *Lease, state string) error {
	if lease == nil {
		return ErrNotHeld
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, held := l.live(lease.Key)
	if !held || e.token != lease.Token {
		return ErrNotHeld
	}
	e.state = state
	l.entries[lease.Key] = e
	lease.State = state
	return nil
}

func (l *MemoryLocker) State(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, held := l.live(key)
	if !held {
		return "", false, nil
	}
	return e.state, true, nil
}

func (l *MemoryLocker) Release(_ context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, held := l.live(lease.Key)
	if !held || e.token != lease.Token {
		return ErrNotHeld
	}
	delete(l.entries, lease.Key)
	return nil
}
