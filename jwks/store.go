package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreMiss is returned by Store.Load when nothing is stored for the URL.
var ErrStoreMiss = errors.New("jwks: not in store")

// Store shares raw JWKS documents between processes.
type Store interface {
	Load(ctx context.Context, jwksURL string) (raw []byte, fetchedAt time.Time, err error)
	Save(ctx context.Context, jwksURL string, raw []byte, fetchedAt time.Time) error
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the prefix of the Redis keys. Default "passage:jwks:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisTTL sets the Redis expiry of saved documents. Default 1 hour.
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore returns a Store using client.
func NewRedisStore(client redis.Cmdable, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "passage:jwks:",
		ttl:    time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisStoreFromURL parses a redis:// URL and returns a Store for it.
func NewRedisStoreFromURL(redisURL string, opts ...RedisStoreOption) (*RedisStore, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewRedisStore(redis.NewClient(options), opts...), nil
}

type storedDocument struct {
	FetchedAt time.Time       `json:"fetched_at"`
	JWKS      json.RawMessage `json:"jwks"`
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, jwksURL string) ([]byte, time.Time, error) {
	data, err := s.client.Get(ctx, s.prefix+jwksURL).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, ErrStoreMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis get: %w", err)
	}

	var doc storedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode stored jwks: %w", err)
	}

	return doc.JWKS, doc.FetchedAt, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, jwksURL string, raw []byte, fetchedAt time.Time) error {
	if !json.Valid(raw) {
		return errors.New("refusing to store invalid JSON")
	}

	data, err := json.Marshal(storedDocument{FetchedAt: fetchedAt, JWKS: raw})
	if err != nil {
		return fmt.Errorf("failed to encode jwks: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+jwksURL, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis client if it has a Close method.
func (s *RedisStore) Close() error {
	if closer, ok := s.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
