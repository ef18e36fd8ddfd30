package config

import (
	"fmt"

	"github.com/law-makers/crawlmd/internal/utils/headers"
	"github.com/law-makers/crawlmd/pkg/models"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.Limit < 1 {
		return fmt.Errorf("limit must be >= 1, got %d", c.Limit)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if _, ok := models.ParseMode(c.Mode); !ok {
		return fmt.Errorf("unknown mode %q (want auto, static or spa)", c.Mode)
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be > 0")
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("rate burst must be >= 1")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be >= 1")
	}
	if _, err := headers.Parse(c.Headers); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
