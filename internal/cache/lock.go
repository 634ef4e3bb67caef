package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lockTTL caps how long an acquired lock can be held before Redis expires
// it; protects against a crashed holder wedging a (vehicle, day) key.
const lockTTL = 30 * time.Second

const acquireRetryInterval = 100 * time.Millisecond

// KeyLock serializes writers on a string key. Acquire blocks up to timeout;
// acquired reports whether the lock was obtained, and release must be called
// when it was (calling it after a failed acquire is a no-op).
type KeyLock interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (release func(), acquired bool)
}

// RedisKeyLock implements KeyLock with SET NX and a token-checked release,
// so only the goroutine that acquired a lock can release it.
type RedisKeyLock struct {
	client *redis.Client
}

func NewRedisKeyLock(client *redis.Client) *RedisKeyLock {
	return &RedisKeyLock{client: client}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisKeyLock) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), bool) {
	lockKey := key + ":lock"
	token := uuid.NewString()
	deadline := time.Now().Add(timeout)

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, lockTTL).Result()
		if err != nil {
			log.Printf("Lock acquire error on %s: %v", lockKey, err)
			return func() {}, false
		}
		if ok {
			return func() {
				if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil && err != redis.Nil {
					log.Printf("Lock release error on %s: %v", lockKey, err)
				}
			}, true
		}
		if time.Now().After(deadline) {
			return func() {}, false
		}
		select {
		case <-ctx.Done():
			return func() {}, false
		case <-time.After(acquireRetryInterval):
		}
	}
}

// MemoryKeyLock is the in-process KeyLock used by tests and single-node
// deployments without Redis.
type MemoryKeyLock struct {
	mutex sync.Mutex
	held  map[string]struct{}
}

func NewMemoryKeyLock() *MemoryKeyLock {
	return &MemoryKeyLock{
		held: make(map[string]struct{}),
	}
}

func (l *MemoryKeyLock) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), bool) {
	deadline := time.Now().Add(timeout)
	for {
		l.mutex.Lock()
		if _, busy := l.held[key]; !busy {
			l.held[key] = struct{}{}
			l.mutex.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mutex.Lock()
					delete(l.held, key)
					l.mutex.Unlock()
				})
			}, true
		}
		l.mutex.Unlock()

		if time.Now().After(deadline) {
			return func() {}, false
		}
		select {
		case <-ctx.Done():
			return func() {}, false
		case <-time.After(5 * time.Millisecond):
		}
	}
}
