package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "findata-workers/internal/common/errors"
	"findata-workers/internal/models"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS company_financial_cache (
	id SERIAL PRIMARY KEY,
	company_name TEXT NOT NULL,
	domain TEXT NOT NULL DEFAULT '',
	financial_data JSONB NOT NULL,
	source TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (company_name, domain)
)`

	createIndexSQL = `CREATE INDEX IF NOT EXISTS idx_company_financial_cache_created_at
	ON company_financial_cache (created_at DESC)`

	selectEntrySQL = `SELECT company_name, domain, financial_data, source, created_at
	FROM company_financial_cache
	WHERE (company_name ILIKE '%' || $1 || '%' OR (domain <> '' AND domain = $2))
	AND created_at > $3
	ORDER BY created_at DESC
	LIMIT 1`

	upsertEntrySQL = `INSERT INTO company_financial_cache (company_name, domain, financial_data, source, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (company_name, domain) DO UPDATE
	SET financial_data = EXCLUDED.financial_data,
		source = EXCLUDED.source,
		created_at = EXCLUDED.created_at`
)

// PostgresStore is the durable cache tier.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: orDefault(ttl), now: time.Now}
}

// Migrate creates the cache table and its index when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createTableSQL, createIndexSQL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate financial cache: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, companyName, domain string) (*models.CacheEntry, error) {
	name, dom := keyOf(companyName, domain)
	now := s.now()

	var (
		entry models.CacheEntry
		raw   []byte
	)
	err := s.db.QueryRowContext(ctx, selectEntrySQL, name, dom, now.Add(-s.ttl)).
		Scan(&entry.CompanyName, &entry.Domain, &raw, &entry.Source, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError("postgres", err)
	}
	if err := json.Unmarshal(raw, &entry.Data); err != nil {
		return nil, apperrors.NewCacheUnavailableError("postgres", fmt.Errorf("decode financial_data: %w", err))
	}
	if !entry.IsFresh(now, s.ttl) {
		return nil, nil
	}
	return &entry, nil
}

func (s *PostgresStore) Put(ctx context.Context, companyName, domain string, record *models.FinancialRecord, source string) error {
	if record.IsEmpty() {
		return nil
	}
	name, dom := keyOf(companyName, domain)
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode financial_data: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertEntrySQL, name, dom, payload, source, s.now().UTC()); err != nil {
		return apperrors.NewCacheUnavailableError("postgres", err)
	}
	return nil
}
