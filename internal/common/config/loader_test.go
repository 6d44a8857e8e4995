package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: "localhost:26500"
database:
  postgres:
    host: localhost
    database: findata
    user: findata
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 30000, cfg.Retrieval.TimeoutMs)
	assert.Equal(t, 1000, cfg.Retrieval.BackoffBaseMs)
	assert.InDelta(t, 0.2, cfg.Retrieval.DomainResolutionShare, 1e-9)
	assert.Equal(t, CacheBackendPostgres, cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.CacheTTL())
	assert.Equal(t, DefaultScrapeTargets, cfg.Sources.WebScrape.Targets)
	assert.Equal(t, 1000, cfg.Sources.Search.QueryDelayMs)
	assert.Equal(t, 5, cfg.Sources.Search.InvestorsLimit)
	assert.True(t, cfg.Sources.WebScrape.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("SEARCH_API_KEY", "search-key")
	t.Setenv("PEOPLE_ENRICHMENT_API_KEY", "pdl-key")
	t.Setenv("FINDATA_TEST_HOST", "db.internal")

	path := writeConfig(t, `
camunda:
  enabled: false
cache:
  backend: tiered
database:
  postgres:
    host: "${FINDATA_TEST_HOST}"
    database: findata
    user: findata
  redis:
    address: "localhost:6379"
sources:
  search:
    api_key: ""
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "search-key", cfg.Sources.Search.APIKey)
	assert.Equal(t, "pdl-key", cfg.Sources.PeopleEnrichment.APIKey)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, CacheBackendTiered, cfg.Cache.Backend)
}

func TestLoadFromFile_CacheDisabled(t *testing.T) {
	path := writeConfig(t, `
camunda:
  enabled: false
cache:
  enabled: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, CacheBackendNone, cfg.Cache.Backend)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "cache:\n  enabled: false\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "redis backend without address",
			body:    "camunda:\n  enabled: false\ncache:\n  backend: redis\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "unknown backend",
			body:    "camunda:\n  enabled: false\ncache:\n  backend: memcached\n",
			wantErr: "not supported",
		},
		{
			name:    "share out of range",
			body:    "camunda:\n  enabled: false\ncache:\n  enabled: false\nretrieval:\n  domain_resolution_share: 1.5\n",
			wantErr: "domain_resolution_share",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ZEEBE_ADDRESS", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"retrieve-financial-data": {Enabled: false, MaxJobsActive: 2, Timeout: 60000, MaxRetries: 1},
	}}

	got := GetWorkerConfig(cfg, "retrieve-financial-data")
	assert.Equal(t, 2, got.MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "retrieve-financial-data"))

	def := GetWorkerConfig(cfg, "unknown")
	assert.True(t, def.Enabled)
	assert.Equal(t, 45000, def.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
