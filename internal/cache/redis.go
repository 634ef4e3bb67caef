package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store backed by a Redis connection.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore sets up the Redis connection if a URL is provided. A nil
// store (with a logged reason) comes back when Redis is unavailable so
// callers can fall back to the in-memory store.
func NewRedisStore(redisURL string) *RedisStore {
	if redisURL == "" {
		log.Println("Redis URL not provided, caching disabled")
		return nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Failed to parse Redis URL: %v, caching disabled", err)
		return nil
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Failed to connect to Redis: %v, caching disabled", err)
		return nil
	}

	log.Println("Redis cache initialized successfully")
	return &RedisStore{client: client}
}

// Client exposes the underlying connection for the key lock.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *RedisStore) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Set stores a value in cache with expiration
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, expiration).Err()
}

// Get retrieves a value from cache
func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes a key from cache
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func marshalValue(value interface{}) ([]byte, error) {
	return json.Marshal(value)
}

func unmarshalValue(data []byte, dest interface{}) error {
	return json.Unmarshal(data, dest)
}
