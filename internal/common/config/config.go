package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Server    ServerConfig            `mapstructure:"server"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Retrieval RetrievalConfig         `mapstructure:"retrieval"`
	Sources   SourcesConfig           `mapstructure:"sources"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// ServerConfig controls the HTTP API and the health/metrics endpoints.
type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int `mapstructure:"write_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Cache backends.
const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
	CacheBackendTiered   = "tiered"
	CacheBackendNone     = "none"
)

// CacheConfig selects the financial-data cache backend.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	TTLHours int    `mapstructure:"ttl_hours"`
	Backend  string `mapstructure:"backend"`
	Migrate  bool   `mapstructure:"migrate"`
}

// RetrievalConfig holds the orchestrator's budget settings.
type RetrievalConfig struct {
	TimeoutMs             int     `mapstructure:"timeout_ms"`
	BackoffBaseMs         int     `mapstructure:"backoff_base_ms"`
	DomainResolutionShare float64 `mapstructure:"domain_resolution_share"`
}

// SourcesConfig holds one block per upstream source.
type SourcesConfig struct {
	WebScrape        WebScrapeConfig `mapstructure:"web_scrape"`
	Search           SearchConfig    `mapstructure:"search"`
	PeopleEnrichment APISourceConfig `mapstructure:"people_enrichment"`
	DomainEnrichment APISourceConfig `mapstructure:"domain_enrichment"`
}

type WebScrapeConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	TimeoutMs int      `mapstructure:"timeout_ms"`
	UserAgent string   `mapstructure:"user_agent"`
	Targets   []string `mapstructure:"targets"`
}

type SearchConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Engine         string `mapstructure:"engine"`
	NumResults     int    `mapstructure:"num_results"`
	TimeoutMs      int    `mapstructure:"timeout_ms"`
	QueryDelayMs   int    `mapstructure:"query_delay_ms"`
	InvestorsLimit int    `mapstructure:"investors_limit"`
}

// APISourceConfig is shared by the two enrichment APIs.
type APISourceConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
