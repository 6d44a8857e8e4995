// Package cache persists successful retrievals so repeat lookups inside the
// TTL skip the network. Every Store re-checks entry age against its TTL.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"findata-workers/internal/common/config"
	"findata-workers/internal/common/logger"
	"findata-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an entry is served.
const DefaultTTL = 24 * time.Hour

// Store is the cache contract used by the retriever. Get returns (nil, nil)
// on a miss or a stale entry.
type Store interface {
	Get(ctx context.Context, companyName, domain string) (*models.CacheEntry, error)
	Put(ctx context.Context, companyName, domain string, record *models.FinancialRecord, source string) error
}

// Migrator is implemented by stores that own a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Noop never hits and discards writes.
type Noop struct{}

func (Noop) Get(context.Context, string, string) (*models.CacheEntry, error) { return nil, nil }

func (Noop) Put(context.Context, string, string, *models.FinancialRecord, string) error { return nil }

// Backends are the clients a Store may need. Unused ones may be nil.
type Backends struct {
	Postgres *sql.DB
	Redis    redis.Cmdable
}

// New builds the Store selected by cfg.
func New(cfg config.CacheConfig, b Backends, log logger.Logger) (Store, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	ttl := cfg.CacheTTL()

	switch cfg.Backend {
	case config.CacheBackendNone:
		return Noop{}, nil
	case config.CacheBackendPostgres:
		if b.Postgres == nil {
			return nil, fmt.Errorf("cache backend %q needs a postgres connection", cfg.Backend)
		}
		return NewPostgresStore(b.Postgres, ttl), nil
	case config.CacheBackendRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("cache backend %q needs a redis connection", cfg.Backend)
		}
		return NewRedisStore(b.Redis, ttl), nil
	case config.CacheBackendTiered:
		if b.Postgres == nil || b.Redis == nil {
			return nil, fmt.Errorf("cache backend %q needs postgres and redis connections", cfg.Backend)
		}
		return NewTieredStore(NewRedisStore(b.Redis, ttl), NewPostgresStore(b.Postgres, ttl), log), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// keyOf canonicalizes the lookup key shared by every backend.
func keyOf(companyName, domain string) (string, string) {
	return models.CanonicalName(companyName), models.CanonicalDomain(domain)
}

func orDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
