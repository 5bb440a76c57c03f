package vocabulary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultCacheTTL = 10 * time.Minute

// CachedStore reads through redis in front of another Store. Redis failures
// are logged and the inner store is used directly.
type CachedStore struct {
	inner  Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(userID int) string {
	return fmt.Sprintf("ocastro:vocabulary:%d", userID)
}

func (s *CachedStore) Load(ctx context.Context, userID int) (Vocabulary, error) {
	key := cacheKey(userID)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		v := Vocabulary{}
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			return v, nil
		}
		s.logger.Warn("Discarding corrupt vocabulary cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("Vocabulary cache unavailable", zap.Error(err))
	}

	v, err := s.inner.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, v)
	return v, nil
}

func (s *CachedStore) Save(ctx context.Context, userID int, v Vocabulary) error {
	if err := s.inner.Save(ctx, userID, v); err != nil {
		return err
	}
	s.fill(ctx, cacheKey(userID), v)
	return nil
}

// Forget clears the inner store first, then the cache entry. A failed
// delete leaves the entry to expire with its TTL.
func (s *CachedStore) Forget(ctx context.Context, userID int) error {
	if err := s.inner.Forget(ctx, userID); err != nil {
		return err
	}
	key := cacheKey(userID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("Vocabulary cache delete failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (s *CachedStore) fill(ctx context.Context, key string, v Vocabulary) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Debug("Vocabulary cache write failed", zap.String("key", key), zap.Error(err))
	}
}
