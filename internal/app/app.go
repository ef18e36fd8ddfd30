// Package app wires configuration, scrapers, the crawler and the export
// pipeline together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/law-makers/crawlmd/internal/config"
	"github.com/law-makers/crawlmd/internal/crawler"
	"github.com/law-makers/crawlmd/internal/engine"
	"github.com/law-makers/crawlmd/internal/engine/dynamic"
	"github.com/law-makers/crawlmd/internal/engine/hybrid"
	"github.com/law-makers/crawlmd/internal/engine/static"
	"github.com/law-makers/crawlmd/internal/export"
	"github.com/law-makers/crawlmd/internal/markdown"
	"github.com/law-makers/crawlmd/internal/proxy"
	"github.com/law-makers/crawlmd/internal/ratelimit"
	"github.com/law-makers/crawlmd/internal/retry"
	"github.com/law-makers/crawlmd/internal/robots"
	"github.com/law-makers/crawlmd/internal/utils/headers"
	"github.com/law-makers/crawlmd/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all dependencies of one crawlmd run.
//
// Use Close() to release the browser pool and idle connections.
type Application struct {
	Config         *config.Config
	Logger         *zerolog.Logger
	RateLimiter    *ratelimit.DomainLimiter
	Proxies        *proxy.Pool
	HTTPClient     *http.Client
	StaticScraper  *static.Scraper
	DynamicScraper *dynamic.Scraper
	Scraper        engine.Scraper
	Robots         *robots.Checker
	Converter      *markdown.Converter

	poolMu      sync.Mutex
	browserPool *dynamic.BrowserPool
	poolErr     error
	startTime   time.Time
}

// New creates an Application from cfg. Chrome is not started until a page
// actually needs rendering.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := NewLogger(cfg, os.Stderr)
	log.Logger = logger

	proxies := proxy.NewPool(cfg.Proxies)

	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: proxies.Transport(&http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}),
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Int("proxies", proxies.Len()).
		Msg("HTTP client initialized")

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.MaxRetries

	staticScraper := static.New(rateLimiter, httpClient, retryCfg, cfg.HTTPTimeout, cfg.UserAgent)

	a := &Application{
		Config:        cfg,
		Logger:        &logger,
		RateLimiter:   rateLimiter,
		Proxies:       proxies,
		HTTPClient:    httpClient,
		StaticScraper: staticScraper,
		Converter:     markdown.NewConverter(),
		startTime:     time.Now(),
	}

	// Chrome reuses the first proxy; it cannot rotate per request
	a.DynamicScraper = dynamic.New(rateLimiter, a, a.browserOptions(), cfg.HTTPTimeout)
	a.Scraper = hybrid.New(staticScraper, a.DynamicScraper)

	if cfg.RespectRobots {
		a.Robots = robots.NewChecker(httpClient, cfg.UserAgent)
	}

	logger.Debug().Msg("Application initialized")
	return a, nil
}

// NewLogger builds the zerolog logger described by cfg, writing to w.
// Skipped pages are logged at warn, so they show up unless --quiet is set.
func NewLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func (a *Application) browserOptions() dynamic.BrowserOptions {
	return dynamic.BrowserOptions{
		Headless:   a.Config.BrowserHeadless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Proxies.First(),
		ChromePath: dynamic.FindChrome(a.Config.ChromePath),
	}
}

// EnsureBrowserPool creates the browser pool on first use. A failed start
// is remembered so later pages do not retry it.
func (a *Application) EnsureBrowserPool(ctx context.Context) (*dynamic.BrowserPool, error) {
	a.poolMu.Lock()
	defer a.poolMu.Unlock()

	if a.browserPool != nil {
		return a.browserPool, nil
	}
	if a.poolErr != nil {
		return nil, a.poolErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := a.browserOptions()
	if opts.ChromePath == "" {
		a.poolErr = engine.ErrBrowserNotFound
		return nil, a.poolErr
	}

	a.Logger.Debug().Str("chrome", opts.ChromePath).Msg("Initializing browser pool on demand")
	pool, err := dynamic.NewBrowserPool(dynamic.BrowserPoolOptions{
		Size:           a.Config.BrowserPoolSize,
		BrowserOptions: opts,
	})
	if err != nil {
		a.poolErr = fmt.Errorf("start browser pool: %w", err)
		return nil, a.poolErr
	}

	a.browserPool = pool
	a.Logger.Info().Int("pool_size", pool.Size()).Msg("Browser pool initialized on demand")
	return pool, nil
}

// BrowserRunning reports whether the browser pool has been started
func (a *Application) BrowserRunning() bool {
	a.poolMu.Lock()
	defer a.poolMu.Unlock()
	return a.browserPool != nil
}

// Crawler returns a SiteCrawler configured from the application settings
func (a *Application) Crawler(progress crawler.ProgressFunc) *crawler.SiteCrawler {
	mode, _ := models.ParseMode(a.Config.Mode)
	// Validated by config.Load
	hdrs, _ := headers.Parse(a.Config.Headers)
	opts := crawler.Options{
		Mode:     mode,
		Selector: a.Config.Selector,
		Headers:  hdrs,
		Timeout:  a.Config.HTTPTimeout,
		WaitTime: a.Config.JSWaitTime,
		Robots:   a.Robots,
		Progress: progress,
	}
	if a.Robots != nil {
		opts.Throttle = a.RateLimiter.SetDelay
	}
	return crawler.New(a.Scraper, a.Converter, opts)
}

// Pipeline returns an export pipeline around c
func (a *Application) Pipeline(c crawler.Crawler) *export.Pipeline {
	p := export.NewPipeline(c)
	p.Clean = a.Config.Clean
	return p
}

// Close releases the browser pool and idle HTTP connections.
func (a *Application) Close(ctx context.Context) error {
	a.poolMu.Lock()
	pool := a.browserPool
	a.browserPool = nil
	a.poolMu.Unlock()

	if pool != nil {
		done := make(chan struct{})
		go func() {
			if err := pool.Close(); err != nil {
				a.Logger.Warn().Err(err).Msg("Error closing browser pool")
			}
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.Logger.Warn().Msg("Timed out closing browser pool")
		}
	}

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", time.Since(a.startTime)).Msg("Application shutdown complete")
	return nil
}
