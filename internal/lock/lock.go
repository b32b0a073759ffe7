// Package lock serialises writers that target the same output location.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Locker hands out exclusive access to a key. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type Options struct {
	RedisURL string
	TTL      time.Duration
	Poll     time.Duration
}

// New returns a Redis-backed locker when RedisURL is set, otherwise an
// in-process one.
func New(opts Options) (Locker, error) {
	if opts.RedisURL == "" {
		return NewLocal(), nil
	}
	return NewRedis(opts)
}

// Local is a per-key mutex table for one process.
type Local struct {
	mu  sync.Mutex
	sem map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{sem: map[string]chan struct{}{}}
}

// Lock blocks until key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.sem[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.sem[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	}
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis extends Local across processes with a SET NX PX lease.
type Redis struct {
	rdb   *redis.Client
	ttl   time.Duration
	poll  time.Duration
	local *Local
}

func NewRedis(opts Options) (*Redis, error) {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Minute
	}
	if opts.Poll <= 0 {
		opts.Poll = 100 * time.Millisecond
	}
	ro, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(ro)
	if err := c.Ping(context.Background()).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Redis{rdb: c, ttl: opts.TTL, poll: opts.Poll, local: NewLocal()}, nil
}

func (r *Redis) key(k string) string { return "duplexsplit:lock:" + k }

// Lock takes the in-process lock first, then polls Redis until the lease is ours.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	releaseLocal, err := r.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	k := r.key(key)
	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			releaseLocal()
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return func() {
				if err := releaseScript.Run(context.Background(), r.rdb, []string{k}, token).Err(); err != nil {
					log.Warn().Err(err).Str("key", key).Msg("lock release failed; lease will expire")
				}
				releaseLocal()
			}, nil
		}
		select {
		case <-ctx.Done():
			releaseLocal()
			return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
		case <-time.After(r.poll):
		}
	}
}

func (r *Redis) Close() error { return r.rdb.Close() }
