package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel           = "warn"
	DefaultJSONLog            = false
	DefaultUserAgent          = "crawlmd/1.0 (+https://github.com/law-makers/crawlmd)"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultRateLimitRPS       = 5.0
	DefaultRateLimitBurst     = 10
	DefaultMaxRetries         = 3
	DefaultBrowserPoolSize    = 2
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultJSWaitTime         = 500 * time.Millisecond

	DefaultLimit     = 10
	DefaultOutputDir = "output"
	DefaultMode      = "auto"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "CRAWLMD"
