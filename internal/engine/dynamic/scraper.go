// internal/engine/dynamic/scraper.go
package dynamic

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/crawlmd/internal/engine"
	"github.com/law-makers/crawlmd/internal/ratelimit"
	"github.com/law-makers/crawlmd/pkg/models"
	"github.com/rs/zerolog/log"
)

// settleDelay lets initial JS run after the load event
const settleDelay = 300 * time.Millisecond

// PoolProvider hands out the shared browser pool, creating it on first use
type PoolProvider interface {
	EnsureBrowserPool(ctx context.Context) (*BrowserPool, error)
}

// Scraper renders pages in headless Chrome so SPAs produce real content
type Scraper struct {
	limiter  ratelimit.RateLimiter
	pools    PoolProvider
	browser  BrowserOptions
	timeout  time.Duration
	mu       sync.Mutex
	fallback bool
}

// New creates a dynamic Scraper. With a nil provider every fetch starts its own browser.
func New(lim ratelimit.RateLimiter, pools PoolProvider, browser BrowserOptions, timeout time.Duration) *Scraper {
	return &Scraper{
		limiter: lim,
		pools:   pools,
		browser: browser,
		timeout: timeout,
	}
}

// Name returns the name of this scraper
func (d *Scraper) Name() string {
	return "DynamicScraper"
}

// Fetch navigates to opts.URL in Chrome and extracts the rendered DOM
func (d *Scraper) Fetch(ctx context.Context, opts models.RequestOptions) (*models.PageData, error) {
	start := time.Now()

	log.Debug().
		Str("url", opts.URL).
		Str("scraper", d.Name()).
		Msg("Starting fetch")

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, opts.URL); err != nil {
			return nil, err
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = d.timeout
	}

	tabCtx, release, err := d.tab(ctx)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "no browser available", err).ForURL(opts.URL)
	}
	defer release()

	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	// Tie the tab to the caller's cancellation too
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	pageData := &models.PageData{
		URL:       opts.URL,
		FetchedAt: time.Now(),
		Headers:   make(map[string]string),
		Metadata:  make(map[string]string),
	}

	var (
		statusMu   sync.Mutex
		statusCode int64
	)
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			statusMu.Lock()
			defer statusMu.Unlock()
			if statusCode == 0 {
				statusCode = e.Response.Status
				for key, value := range e.Response.Headers {
					if s, ok := value.(string); ok {
						pageData.Headers[key] = s
					}
				}
			}
		}
	})

	headers := make(network.Headers, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	var (
		htmlContent string
		title       string
		finalURL    string
	)

	tasks := chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(opts.URL),
		chromedp.Sleep(settleDelay + opts.WaitTime),
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	}

	if err := chromedp.Run(runCtx, tasks); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "render failed", err).ForURL(opts.URL).WithRetry()
	}

	statusMu.Lock()
	pageData.StatusCode = int(statusCode)
	statusMu.Unlock()
	if finalURL != "" {
		pageData.URL = finalURL
	}
	pageData.Title = title

	if pageData.StatusCode >= 400 {
		return nil, engine.NewEngineError(engine.ErrCodeHTTPStatus, "", nil).
			ForURL(opts.URL).
			WithStatus(pageData.StatusCode)
	}

	if err := extractRendered(htmlContent, opts, pageData); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "failed to parse rendered HTML", err).ForURL(opts.URL)
	}

	pageData.ResponseTime = time.Since(start).Milliseconds()

	log.Debug().
		Str("url", opts.URL).
		Int("status", pageData.StatusCode).
		Int64("response_time_ms", pageData.ResponseTime).
		Int("links", len(pageData.Links)).
		Msg("Fetch completed")

	return pageData, nil
}

// tab returns a browser context to render in and a func that gives it back
func (d *Scraper) tab(ctx context.Context) (context.Context, func(), error) {
	if d.pools != nil {
		pool, err := d.pools.EnsureBrowserPool(ctx)
		if err == nil {
			t, err := pool.Acquire(ctx)
			if err != nil {
				return nil, nil, err
			}
			return t.Context(), func() { pool.Release(t) }, nil
		}

		d.mu.Lock()
		if !d.fallback {
			log.Warn().Err(err).Msg("Browser pool unavailable, launching a browser per page")
			d.fallback = true
		}
		d.mu.Unlock()
	}

	if d.browser.ChromePath == "" {
		return nil, nil, engine.ErrBrowserNotFound
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(d.browser)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		browserCancel()
		allocCancel()
	}, nil
}
