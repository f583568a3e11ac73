// Package cache stores refresh-token sessions. Redis is preferred; when
// no address is configured (or the connection fails at startup) the
// server degrades to an in-process store so auth keeps working on a
// single node.
package cache

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// TokenStore is the session-cache surface the auth layer uses.
type TokenStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Health(ctx context.Context) error
	Close() error
}

// RedisTokenStore backs the token store with Redis.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore connects to Redis and verifies the connection.
func NewRedisTokenStore(addr, password string, db int) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &RedisTokenStore{client: client}, nil
}

// Set stores a value with expiration.
func (r *RedisTokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Get fetches a value; ErrNotFound when absent.
func (r *RedisTokenStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Del removes a key.
func (r *RedisTokenStore) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Health checks if Redis is healthy.
func (r *RedisTokenStore) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisTokenStore) Close() error {
	return r.client.Close()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenStore is the single-node fallback. Entries expire lazily on
// read plus a background sweep.
type MemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	done    chan struct{}
}

// NewMemoryTokenStore creates the fallback store and starts its sweeper.
func NewMemoryTokenStore() *MemoryTokenStore {
	s := &MemoryTokenStore{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *MemoryTokenStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for k, e := range s.entries {
				if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Set stores a value with expiration. ttl <= 0 means no expiry.
func (s *MemoryTokenStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: exp}
	s.mu.Unlock()
	return nil
}

// Get fetches a value; ErrNotFound when absent or expired.
func (s *MemoryTokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

// Del removes a key.
func (s *MemoryTokenStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Health always succeeds for the in-process store.
func (s *MemoryTokenStore) Health(context.Context) error {
	return nil
}

// Close stops the sweeper.
func (s *MemoryTokenStore) Close() error {
	close(s.done)
	return nil
}

// Connect picks the backing store: Redis when an address is configured
// and reachable, the in-process fallback otherwise.
func Connect(addr, password string, db int) TokenStore {
	if addr == "" {
		log.Println("[Cache] No Redis configured, using in-memory token store")
		return NewMemoryTokenStore()
	}
	store, err := NewRedisTokenStore(addr, password, db)
	if err != nil {
		log.Printf("[Cache] Redis unavailable (%v), falling back to in-memory token store", err)
		return NewMemoryTokenStore()
	}
	return store
}
