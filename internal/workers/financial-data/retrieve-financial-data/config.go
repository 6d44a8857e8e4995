// internal/workers/financial-data/retrieve-financial-data/config.go
package retrievefinancialdata

import (
	"time"

	"findata-workers/internal/common/config"
)

type Config struct {
	// Timeout bounds a whole job, cache lookup and every source included.
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Config{Timeout: timeout}
}
