package searchcategories

import (
	"fmt"
	"time"

	"catalog-lookup-workers/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	DefaultResults int
	CacheTTL       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:        10 * time.Second,
		DefaultResults: config.DefaultResults,
		CacheTTL:       10 * time.Minute,
	}
}

// FromAppConfig reads the worker section and result cache settings.
func FromAppConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	c := DefaultConfig()
	if wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if wcfg.DefaultResults > 0 {
		c.DefaultResults = wcfg.DefaultResults
	}
	if cfg.Cache.TTLSeconds > 0 {
		c.CacheTTL = cfg.Cache.TTL()
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DefaultResults <= 0 {
		return fmt.Errorf("default_results must be positive")
	}
	return nil
}
