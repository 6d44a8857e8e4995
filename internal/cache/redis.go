package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "findata-workers/internal/common/errors"
	"findata-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fincache:"

// RedisStore is the hot cache tier. Lookups are exact on (name, domain).
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: orDefault(ttl), now: time.Now}
}

// Key returns the Redis key for a lookup.
func Key(companyName, domain string) string {
	name, dom := keyOf(companyName, domain)
	return keyPrefix + name + "|" + dom
}

func (s *RedisStore) Get(ctx context.Context, companyName, domain string) (*models.CacheEntry, error) {
	raw, err := s.rdb.Get(ctx, Key(companyName, domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError("redis", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, apperrors.NewCacheUnavailableError("redis", fmt.Errorf("decode entry: %w", err))
	}
	if !entry.IsFresh(s.now(), s.ttl) {
		return nil, nil
	}
	return &entry, nil
}

func (s *RedisStore) Put(ctx context.Context, companyName, domain string, record *models.FinancialRecord, source string) error {
	if record.IsEmpty() {
		return nil
	}
	name, dom := keyOf(companyName, domain)
	return s.store(ctx, Key(companyName, domain), &models.CacheEntry{
		CompanyName: name,
		Domain:      dom,
		Data:        *record,
		Source:      source,
		CreatedAt:   s.now().UTC(),
	})
}

// store writes entry with whatever lifetime it has left.
func (s *RedisStore) store(ctx context.Context, key string, entry *models.CacheEntry) error {
	remaining := s.ttl - s.now().Sub(entry.CreatedAt)
	if remaining <= 0 {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := s.rdb.Set(ctx, key, string(payload), remaining).Err(); err != nil {
		return apperrors.NewCacheUnavailableError("redis", err)
	}
	return nil
}
