package cache

import (
	"context"
	"errors"

	"findata-workers/internal/common/logger"
	"findata-workers/internal/models"
)

// TieredStore reads Redis before Postgres and backfills Redis on a durable hit.
type TieredStore struct {
	hot     *RedisStore
	durable *PostgresStore
	logger  logger.Logger
}

func NewTieredStore(hot *RedisStore, durable *PostgresStore, log logger.Logger) *TieredStore {
	return &TieredStore{hot: hot, durable: durable, logger: log}
}

func (s *TieredStore) Get(ctx context.Context, companyName, domain string) (*models.CacheEntry, error) {
	entry, err := s.hot.Get(ctx, companyName, domain)
	if err != nil {
		s.logger.Warn("Hot cache lookup failed, falling back to postgres", map[string]interface{}{
			"company": companyName,
			"error":   err,
		})
	}
	if entry != nil {
		return entry, nil
	}

	entry, err = s.durable.Get(ctx, companyName, domain)
	if err != nil || entry == nil {
		return nil, err
	}

	if err := s.hot.store(ctx, Key(companyName, domain), entry); err != nil {
		s.logger.Warn("Failed to backfill hot cache", map[string]interface{}{
			"company": companyName,
			"error":   err,
		})
	}
	return entry, nil
}

// Migrate prepares the durable tier; Redis needs no schema.
func (s *TieredStore) Migrate(ctx context.Context) error {
	return s.durable.Migrate(ctx)
}

// Put writes both tiers; a failure in one does not skip the other.
func (s *TieredStore) Put(ctx context.Context, companyName, domain string, record *models.FinancialRecord, source string) error {
	return errors.Join(
		s.durable.Put(ctx, companyName, domain, record, source),
		s.hot.Put(ctx, companyName, domain, record, source),
	)
}
