package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP
	HTTPTimeout time.Duration
	UserAgent   string
	Proxies     []string
	MaxRetries  int

	// Rate limiting, per host
	RateLimitRPS   float64
	RateLimitBurst int

	// Browser
	BrowserPoolSize int
	BrowserHeadless bool
	ChromePath      string
	JSWaitTime      time.Duration

	// Crawl
	Limit         int
	OutputDir     string
	Mode          string
	Selector      string
	Headers       []string
	Clean         bool
	RespectRobots bool
	NoProgress    bool
}

// Load builds a Config from defaults, an optional config file, CRAWLMD_*
// environment variables and the flags set on cmd, later sources winning.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, fs := range flagSets(cmd) {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		LogLevel:        logLevel(v),
		JSONLog:         v.GetBool("json"),
		HTTPTimeout:     v.GetDuration("timeout"),
		UserAgent:       v.GetString("user-agent"),
		Proxies:         splitList(v.GetString("proxy")),
		MaxRetries:      v.GetInt("max-retries"),
		RateLimitRPS:    v.GetFloat64("rate-limit"),
		RateLimitBurst:  v.GetInt("rate-burst"),
		BrowserPoolSize: v.GetInt("browser-pool-size"),
		BrowserHeadless: v.GetBool("headless"),
		ChromePath:      v.GetString("chrome-path"),
		JSWaitTime:      v.GetDuration("wait-time"),
		Limit:           v.GetInt("limit"),
		OutputDir:       v.GetString("output"),
		Mode:            strings.ToLower(v.GetString("mode")),
		Selector:        strings.TrimSpace(v.GetString("selector")),
		Headers:         headerFlags(cmd, v),
		Clean:           v.GetBool("clean"),
		RespectRobots:   v.GetBool("respect-robots"),
		NoProgress:      v.GetBool("no-progress"),
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		HTTPTimeout:     DefaultHTTPTimeout,
		UserAgent:       DefaultUserAgent,
		MaxRetries:      DefaultMaxRetries,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		BrowserPoolSize: DefaultBrowserPoolSize,
		BrowserHeadless: DefaultBrowserHeadless,
		JSWaitTime:      DefaultJSWaitTime,
		Limit:           DefaultLimit,
		OutputDir:       DefaultOutputDir,
		Mode:            DefaultMode,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("json", DefaultJSONLog)
	v.SetDefault("timeout", DefaultHTTPTimeout)
	v.SetDefault("user-agent", DefaultUserAgent)
	v.SetDefault("max-retries", DefaultMaxRetries)
	v.SetDefault("rate-limit", DefaultRateLimitRPS)
	v.SetDefault("rate-burst", DefaultRateLimitBurst)
	v.SetDefault("browser-pool-size", DefaultBrowserPoolSize)
	v.SetDefault("headless", DefaultBrowserHeadless)
	v.SetDefault("wait-time", DefaultJSWaitTime)
	v.SetDefault("limit", DefaultLimit)
	v.SetDefault("output", DefaultOutputDir)
	v.SetDefault("mode", DefaultMode)
}

// logLevel resolves --verbose and --quiet on top of log-level
func logLevel(v *viper.Viper) string {
	switch {
	case v.GetBool("verbose"):
		return "debug"
	case v.GetBool("quiet"):
		return "error"
	}
	return strings.ToLower(v.GetString("log-level"))
}

// headerFlags reads -H values verbatim; viper would split them on commas
func headerFlags(cmd *cobra.Command, v *viper.Viper) []string {
	if cmd != nil {
		if f := cmd.Flags().Lookup("header"); f != nil && f.Changed {
			if h, err := cmd.Flags().GetStringArray("header"); err == nil {
				return h
			}
		}
	}
	return v.GetStringSlice("header")
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
