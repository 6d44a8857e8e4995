package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"findata-workers/internal/common/config"
	apperrors "findata-workers/internal/common/errors"
	"findata-workers/internal/common/logger"
	"findata-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleRecord() *models.FinancialRecord {
	return &models.FinancialRecord{
		TotalFunding:  "$50M",
		EmployeeCount: "125 (51-200)",
		Investors:     []string{"Sequoia Capital"},
	}
}

func newSQLMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewPostgresStore(db, DefaultTTL)
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

func newMiniRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, DefaultTTL)
	store.now = func() time.Time { return fixedNow }
	return store, mr
}

func entryRows(createdAt time.Time) *sqlmock.Rows {
	data, _ := json.Marshal(sampleRecord())
	return sqlmock.NewRows([]string{"company_name", "domain", "financial_data", "source", "created_at"}).
		AddRow("acme", "acme.io", data, "Web Scraping", createdAt)
}

func TestNew(t *testing.T) {
	log := logger.NewNoOpLogger()

	store, err := New(config.CacheConfig{Enabled: false, Backend: config.CacheBackendPostgres}, Backends{}, log)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, store)

	_, err = New(config.CacheConfig{Enabled: true, Backend: config.CacheBackendPostgres}, Backends{}, log)
	assert.Error(t, err)

	_, err = New(config.CacheConfig{Enabled: true, Backend: "memcached"}, Backends{}, log)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store, err = New(config.CacheConfig{Enabled: true, Backend: config.CacheBackendRedis, TTLHours: 1}, Backends{Redis: rdb}, log)
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, store)
	assert.Equal(t, time.Hour, store.(*RedisStore).ttl)
}

func TestPostgresStore_Migrate(t *testing.T) {
	store, mock := newSQLMock(t)
	mock.ExpectExec(createTableSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(createIndexSQL).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetHit(t *testing.T) {
	store, mock := newSQLMock(t)
	created := fixedNow.Add(-2 * time.Hour)
	mock.ExpectQuery(selectEntrySQL).
		WithArgs("acme labs", "acme.io", fixedNow.Add(-DefaultTTL)).
		WillReturnRows(entryRows(created))

	entry, err := store.Get(context.Background(), "  Acme   Labs ", "https://www.acme.io/")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, "Web Scraping", entry.Source)
	assert.Equal(t, "$50M", entry.Data.TotalFunding)
	assert.Equal(t, []string{"Sequoia Capital"}, entry.Data.Investors)
	assert.Equal(t, created, entry.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissAndStale(t *testing.T) {
	store, mock := newSQLMock(t)

	mock.ExpectQuery(selectEntrySQL).WillReturnRows(
		sqlmock.NewRows([]string{"company_name", "domain", "financial_data", "source", "created_at"}))
	entry, err := store.Get(context.Background(), "Acme", "")
	assert.NoError(t, err)
	assert.Nil(t, entry)

	// a row the query should have filtered is still rejected
	mock.ExpectQuery(selectEntrySQL).WillReturnRows(entryRows(fixedNow.Add(-25 * time.Hour)))
	entry, err = store.Get(context.Background(), "Acme", "")
	assert.NoError(t, err)
	assert.Nil(t, entry)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetError(t *testing.T) {
	store, mock := newSQLMock(t)
	mock.ExpectQuery(selectEntrySQL).WillReturnError(errors.New("connection reset"))

	entry, err := store.Get(context.Background(), "Acme", "")
	require.Error(t, err)
	assert.Nil(t, entry)

	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeCacheUnavailable, stdErr.Code)
}

func TestPostgresStore_Put(t *testing.T) {
	store, mock := newSQLMock(t)
	mock.ExpectExec(upsertEntrySQL).
		WithArgs("acme", "acme.io", sqlmock.AnyArg(), "People Enrichment", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Put(context.Background(), "Acme", "acme.io", sampleRecord(), "People Enrichment"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutTwiceUpserts(t *testing.T) {
	store, mock := newSQLMock(t)
	ctx := context.Background()
	second := &models.FinancialRecord{Revenue: "$8M"}
	first, _ := json.Marshal(sampleRecord())
	latest, _ := json.Marshal(second)

	mock.ExpectExec(upsertEntrySQL).
		WithArgs("acme", "acme.io", first, "Web Scraping", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsertEntrySQL).
		WithArgs("acme", "acme.io", latest, "Search API", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectEntrySQL).
		WithArgs("acme", "acme.io", fixedNow.Add(-DefaultTTL)).
		WillReturnRows(sqlmock.NewRows([]string{"company_name", "domain", "financial_data", "source", "created_at"}).
			AddRow("acme", "acme.io", latest, "Search API", fixedNow))

	require.NoError(t, store.Put(ctx, "Acme", "acme.io", sampleRecord(), "Web Scraping"))
	require.NoError(t, store.Put(ctx, "acme", "https://acme.io", second, "Search API"))

	entry, err := store.Get(ctx, "Acme", "acme.io")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Search API", entry.Source)
	assert.Equal(t, "$8M", entry.Data.Revenue)
	assert.Empty(t, entry.Data.TotalFunding)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutSkipsEmpty(t *testing.T) {
	store, mock := newSQLMock(t)
	require.NoError(t, store.Put(context.Background(), "Acme", "", &models.FinancialRecord{}, "Web Scraping"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "Acme", "acme.io", sampleRecord(), "Search API"))
	assert.True(t, mr.Exists("fincache:acme|acme.io"))
	assert.Equal(t, DefaultTTL, mr.TTL("fincache:acme|acme.io"))

	entry, err := store.Get(ctx, "ACME", "www.acme.io")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Search API", entry.Source)
	assert.Equal(t, "$50M", entry.Data.TotalFunding)

	entry, err = store.Get(ctx, "Acme", "")
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRedisStore_LatestPutWins(t *testing.T) {
	store, mr := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "Acme", "acme.io", sampleRecord(), "Web Scraping"))
	require.NoError(t, store.Put(ctx, "ACME", "www.acme.io", &models.FinancialRecord{Revenue: "$8M"}, "Search API"))
	assert.Len(t, mr.Keys(), 1)
	assert.Equal(t, DefaultTTL, mr.TTL("fincache:acme|acme.io"))

	entry, err := store.Get(ctx, "Acme", "acme.io")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Search API", entry.Source)
	assert.Equal(t, "$8M", entry.Data.Revenue)
	assert.Empty(t, entry.Data.TotalFunding)
	assert.Empty(t, entry.Data.Investors)
}

func TestRedisStore_StaleEntryIsMiss(t *testing.T) {
	store, _ := newMiniRedis(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "Acme", "", sampleRecord(), "Search API"))

	store.now = func() time.Time { return fixedNow.Add(25 * time.Hour) }
	entry, err := store.Get(ctx, "Acme", "")
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRedisStore_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, DefaultTTL)
	store.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	mock.ExpectGet("fincache:acme|").SetErr(errors.New("connection refused"))
	_, err := store.Get(ctx, "Acme", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_UNAVAILABLE")

	payload, err := json.Marshal(&models.CacheEntry{
		CompanyName: "acme",
		Data:        *sampleRecord(),
		Source:      "Search API",
		CreatedAt:   fixedNow,
	})
	require.NoError(t, err)
	mock.ExpectSet("fincache:acme|", string(payload), DefaultTTL).SetErr(errors.New("READONLY"))
	err = store.Put(ctx, "Acme", "", sampleRecord(), "Search API")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_UNAVAILABLE")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTieredStore_BackfillsHotTier(t *testing.T) {
	hot, mr := newMiniRedis(t)
	durable, mock := newSQLMock(t)
	store := NewTieredStore(hot, durable, logger.NewTestLogger(t))

	created := fixedNow.Add(-23 * time.Hour)
	mock.ExpectQuery(selectEntrySQL).WillReturnRows(entryRows(created))

	entry, err := store.Get(context.Background(), "Acme", "acme.io")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Web Scraping", entry.Source)

	require.True(t, mr.Exists("fincache:acme|acme.io"))
	assert.Equal(t, time.Hour, mr.TTL("fincache:acme|acme.io"))

	// second read is served by redis, no further SQL expected
	entry, err = store.Get(context.Background(), "Acme", "acme.io")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTieredStore_HotFailureFallsBack(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	hot := NewRedisStore(db, DefaultTTL)
	hot.now = func() time.Time { return fixedNow }
	durable, mock := newSQLMock(t)
	store := NewTieredStore(hot, durable, logger.NewTestLogger(t))

	rmock.ExpectGet("fincache:acme|").SetErr(errors.New("connection refused"))
	mock.ExpectQuery(selectEntrySQL).WillReturnRows(
		sqlmock.NewRows([]string{"company_name", "domain", "financial_data", "source", "created_at"}))

	entry, err := store.Get(context.Background(), "Acme", "")
	assert.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTieredStore_PutJoinsErrors(t *testing.T) {
	hot, mr := newMiniRedis(t)
	durable, mock := newSQLMock(t)
	store := NewTieredStore(hot, durable, logger.NewTestLogger(t))

	mock.ExpectExec(upsertEntrySQL).WillReturnError(errors.New("disk full"))

	err := store.Put(context.Background(), "Acme", "", sampleRecord(), "Web Scraping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
	assert.True(t, mr.Exists("fincache:acme|"))
}

func TestTieredStore_MigratesDurableTier(t *testing.T) {
	hot, _ := newMiniRedis(t)
	durable, mock := newSQLMock(t)
	var store Store = NewTieredStore(hot, durable, logger.NewTestLogger(t))

	mock.ExpectExec(createTableSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(createIndexSQL).WillReturnResult(sqlmock.NewResult(0, 0))

	m, ok := store.(Migrator)
	require.True(t, ok)
	require.NoError(t, m.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())

	_, ok = Store(NewRedisStore(hot.rdb, DefaultTTL)).(Migrator)
	assert.False(t, ok)
}
