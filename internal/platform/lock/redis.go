package lock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var setStateScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then return 0 end
if string.sub(cur, 1, string.len(ARGV[1]) + 1) ~= ARGV[1] .. "|" then return 0 end
redis.call("SET", KEYS[1], ARGV[2], "KEEPTTL")
return 1
`)

var extendScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then return 0 end
if string.sub(cur, 1, string.len(ARGV[1]) + 1) ~= ARGV[1] .. "|" then return 0 end
return redis.call("PEXPIRE", KEYS[1], ARGV[2])
`)

var releaseScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then return 0 end
if string.sub(cur, 1, string.len(ARGV[1]) + 1) ~= ARGV[1] .. "|" then return 0 end
return redis.call("DEL", KEYS[1])
`)

// RedisLocker implements Locker with SET NX PX so every replica shares one lease.
type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisLocker(rdb redis.UniversalClient, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "lock:"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, key, state string, ttl time.Duration) (*Lease, error) {
	lease := newLease(key, state)
	ok, err := l.rdb.SetNX(ctx, l.prefix+key, encode(lease.Token, state), ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHeld
	}
	return lease, nil
}

func (l *RedisLocker) Extend(ctx context.Context, lease *Lease, ttl time.Duration) error {
	if lease == nil {
		return ErrNotHeld
	}
	n, err := extendScript.Run(ctx, l.rdb, []string{l.prefix + lease.Key}, lease.Token, ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

func (l *RedisLocker) SetState(ctx context.Context, lease *Lease, state string) error {
	if lease == nil {
		return ErrNotHeld
	}
	n, err := setStateScript.Run(ctx, l.rdb, []string{l.prefix + lease.Key}, lease.Token, encode(lease.Token, state)).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	lease.State = state
	return nil
}

func (l *RedisLocker) State(ctx context.Context, key string) (string, bool, error) {
	raw, err := l.rdb.Get(ctx, l.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	_, state := decode(raw)
	return state, true, nil
}

func (l *RedisLocker) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	n, err := releaseScript.Run(ctx, l.rdb, []string{l.prefix + lease.Key}, lease.Token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
