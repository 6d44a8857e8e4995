package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default scrape targets. {slug}, {domain} and {name} are substituted per request.
var DefaultScrapeTargets = []string{
	"https://www.crunchbase.com/organization/{slug}",
	"https://{domain}",
	"https://www.linkedin.com/search/results/companies/?keywords={name}",
	"https://wellfound.com/company/{slug}",
}

const (
	DefaultSearchBaseURL           = "https://serpapi.com/search"
	DefaultPeopleEnrichmentBaseURL = "https://api.peopledatalabs.com"
	DefaultDomainEnrichmentBaseURL = "https://company.clearbit.com"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// bools need explicit defaults, a zero value cannot be told apart from "unset"
	v.SetDefault("camunda.enabled", true)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.migrate", true)
	v.SetDefault("sources.web_scrape.enabled", true)
	v.SetDefault("sources.search.enabled", true)
	v.SetDefault("sources.people_enrichment.enabled", true)
	v.SetDefault("sources.domain_enrichment.enabled", true)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile looks for a .env next to the binary, in its parents, and at the
// module root. Missing files are fine.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

// overrideEmptyConfig fills secrets that the YAML left blank.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Sources.Search.APIKey, "SEARCH_API_KEY")
	setIfEmpty(&cfg.Sources.PeopleEnrichment.APIKey, "PEOPLE_ENRICHMENT_API_KEY")
	setIfEmpty(&cfg.Sources.DomainEnrichment.APIKey, "DOMAIN_ENRICHMENT_API_KEY")

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Camunda.BrokerAddress, "ZEEBE_ADDRESS")
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "findata-workers"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 24
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendPostgres
	}
	if !cfg.Cache.Enabled {
		cfg.Cache.Backend = CacheBackendNone
	}

	if cfg.Retrieval.TimeoutMs == 0 {
		cfg.Retrieval.TimeoutMs = 30000
	}
	if cfg.Retrieval.BackoffBaseMs == 0 {
		cfg.Retrieval.BackoffBaseMs = 1000
	}
	if cfg.Retrieval.DomainResolutionShare == 0 {
		cfg.Retrieval.DomainResolutionShare = 0.2
	}

	ws := &cfg.Sources.WebScrape
	if ws.TimeoutMs == 0 {
		ws.TimeoutMs = 15000
	}
	if len(ws.Targets) == 0 {
		ws.Targets = append([]string(nil), DefaultScrapeTargets...)
	}

	s := &cfg.Sources.Search
	if s.BaseURL == "" {
		s.BaseURL = DefaultSearchBaseURL
	}
	if s.Engine == "" {
		s.Engine = "google"
	}
	if s.NumResults == 0 {
		s.NumResults = 10
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = 10000
	}
	if s.QueryDelayMs == 0 {
		s.QueryDelayMs = 1000
	}
	if s.InvestorsLimit == 0 {
		s.InvestorsLimit = 5
	}

	if cfg.Sources.PeopleEnrichment.BaseURL == "" {
		cfg.Sources.PeopleEnrichment.BaseURL = DefaultPeopleEnrichmentBaseURL
	}
	if cfg.Sources.PeopleEnrichment.TimeoutMs == 0 {
		cfg.Sources.PeopleEnrichment.TimeoutMs = 10000
	}
	if cfg.Sources.DomainEnrichment.BaseURL == "" {
		cfg.Sources.DomainEnrichment.BaseURL = DefaultDomainEnrichmentBaseURL
	}
	if cfg.Sources.DomainEnrichment.TimeoutMs == 0 {
		cfg.Sources.DomainEnrichment.TimeoutMs = 10000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 45000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig checks only what the selected backends actually need.
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	switch cfg.Cache.Backend {
	case CacheBackendNone:
	case CacheBackendPostgres, CacheBackendRedis, CacheBackendTiered:
		if cfg.Cache.Backend != CacheBackendRedis {
			if cfg.Database.Postgres.Host == "" {
				return fmt.Errorf("database.postgres.host is required")
			}
			if cfg.Database.Postgres.Database == "" {
				return fmt.Errorf("database.postgres.database is required")
			}
			if cfg.Database.Postgres.User == "" {
				return fmt.Errorf("database.postgres.user is required")
			}
		}
		if cfg.Cache.Backend != CacheBackendPostgres && cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", cfg.Cache.Backend)
	}

	if cfg.Retrieval.DomainResolutionShare <= 0 || cfg.Retrieval.DomainResolutionShare >= 1 {
		return fmt.Errorf("retrieval.domain_resolution_share must be between 0 and 1")
	}
	if cfg.Cache.TTLHours < 0 {
		return fmt.Errorf("cache.ttl_hours must not be negative")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// CacheTTL returns the freshness window for cached financial data.
func (c CacheConfig) CacheTTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       45000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
