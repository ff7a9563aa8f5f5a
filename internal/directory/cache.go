package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

const cacheKeyPrefix = "directory:employee:"

// cacheStore is the byte-level cache the CachedDirectory needs. A miss is
// reported as (nil, false, nil).
type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedDirectory is a read-through cache in front of another Directory.
// Not-found answers, including a nil record, are never cached. Cache failures degrade to a direct
// lookup.
type CachedDirectory struct {
	next   Directory
	cache  cacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDirectory wraps next with a Redis-backed cache.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	return newCachedDirectory(next, redisStore{client: client}, ttl, logger)
}

func newCachedDirectory(next Directory, cache cacheStore, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDirectory{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Lookup implements Directory.
func (d *CachedDirectory) Lookup(ctx context.Context, id string) (*domain.EmployeeRecord, error) {
	key := cacheKeyPrefix + id

	raw, hit, err := d.cache.Get(ctx, key)
	if err != nil {
		d.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		var rec domain.EmployeeRecord
		if err := json.Unmarshal(raw, &rec); err == nil && rec.ID != "" {
			return &rec, nil
		}
		d.logger.Warn("discarding corrupt directory cache entry", zap.String("key", key))
	}

	rec, err := d.next.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrEmployeeNotFound
	}

	if payload, err := json.Marshal(rec); err == nil {
		if err := d.cache.Set(ctx, key, payload, d.ttl); err != nil {
			d.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rec, nil
}

type redisStore struct {
	client *redis.Client
}

func (s redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}
