// Package itemlock serializes transitions on the same item. Locks never
// wait: a held lock is reported immediately so the caller can answer with a
// retryable conflict.
package itemlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another transition holds the item.
var ErrHeld = errors.New("item lock held")

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// Locker acquires a per-item lock. The returned func releases it.
type Locker interface {
	Acquire(ctx context.Context, itemID string) (release func(), err error)
}

// RedisLocker holds item locks as SetNX keys with a TTL, so a crashed holder
// cannot block the item forever.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLocker builds a Redis backed locker.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &RedisLocker{client: client, prefix: "assistencia:item-lock:", ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, itemID string) (func(), error) {
	if l.client == nil {
		return nil, errors.New("redis client not initialized")
	}
	key := l.prefix + itemID
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHeld
	}
	return func() {
		// Released on a fresh context: the request context may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err()
	}, nil
}

// LocalLocker holds item locks in process memory.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker builds an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(_ context.Context, itemID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[itemID]; busy {
		return nil, ErrHeld
	}
	l.held[itemID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, itemID)
			l.mu.Unlock()
		})
	}, nil
}
