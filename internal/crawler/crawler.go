// Package crawler walks a site breadth-first and returns each page as Markdown.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/law-makers/crawlmd/internal/engine"
	"github.com/law-makers/crawlmd/internal/markdown"
	"github.com/law-makers/crawlmd/internal/robots"
	"github.com/law-makers/crawlmd/pkg/models"
	"github.com/rs/zerolog/log"
)

// ErrNoPages is returned when every fetched page failed
var ErrNoPages = errors.New("no page could be crawled")

// Crawler crawls a site and returns all pages at once
type Crawler interface {
	Crawl(ctx context.Context, req models.CrawlRequest) ([]models.PageResult, error)
}

// ProgressFunc is called after each page attempt
type ProgressFunc func(processed, queued, limit int, pageURL string)

// Options configures a SiteCrawler
type Options struct {
	Mode     models.ScraperMode
	// Selector narrows the converted content; links are still taken from the whole page
	Selector string
	Headers  map[string]string
	Timeout  time.Duration
	WaitTime time.Duration
	// Robots is consulted before each fetch when set
	Robots   *robots.Checker
	// Throttle receives each host's robots.txt Crawl-delay
	Throttle func(host string, delay time.Duration)
	Progress ProgressFunc
}

// SiteCrawler is a breadth-first Crawler restricted to URLs below the start URL
type SiteCrawler struct {
	scraper   engine.Scraper
	converter *markdown.Converter
	opts      Options
}

// New creates a SiteCrawler
func New(scraper engine.Scraper, converter *markdown.Converter, opts Options) *SiteCrawler {
	if converter == nil {
		converter = markdown.NewConverter()
	}
	if opts.Mode == "" {
		opts.Mode = models.ModeAuto
	}
	return &SiteCrawler{
		scraper:   scraper,
		converter: converter,
		opts:      opts,
	}
}

// Crawl fetches up to req.Limit pages starting at req.URL. Pages that fail
// are logged and left out of the result.
func (c *SiteCrawler) Crawl(ctx context.Context, req models.CrawlRequest) ([]models.PageResult, error) {
	base, err := Normalize(req.URL)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 1
	}

	queue := []string{base}
	seen := map[string]bool{key(base): true}
	results := make([]models.PageResult, 0, limit)

	var (
		processed int
		lastErr   error
	)

	for len(queue) > 0 && processed < limit {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		pageURL := queue[0]
		queue = queue[1:]
		processed++

		page, err := c.visit(ctx, pageURL)
		switch {
		case err == nil:
			results = append(results, *page)

			// A redirect may land on a URL the queue would otherwise revisit
			seen[key(page.URL)] = true

			for _, link := range page.Links {
				if !InScope(link, base) || seen[key(link)] {
					continue
				}
				seen[key(link)] = true
				queue = append(queue, link)
			}
		case ctx.Err() != nil:
			return results, ctx.Err()
		case errors.Is(err, engine.ErrDisallowed):
			log.Info().Str("url", pageURL).Msg("Disallowed by robots.txt")
		default:
			lastErr = err
			log.Warn().
				Err(err).
				Str("url", pageURL).
				Str("code", string(engine.CodeOf(err))).
				Msg("Skipping page")
		}

		if c.opts.Progress != nil {
			c.opts.Progress(processed, len(queue), limit, pageURL)
		}
	}

	log.Info().
		Str("url", base).
		Int("pages", len(results)).
		Int("processed", processed).
		Msg("Crawl finished")

	if len(results) == 0 && lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPages, lastErr)
	}
	return results, nil
}

func (c *SiteCrawler) visit(ctx context.Context, pageURL string) (*models.PageResult, error) {
	if c.opts.Robots != nil {
		ok, err := c.opts.Robots.Allowed(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, engine.ErrDisallowed
		}
		if c.opts.Throttle != nil {
			if u, err := url.Parse(pageURL); err == nil {
				if d := c.opts.Robots.CrawlDelay(u.Scheme, u.Host); d > 0 {
					c.opts.Throttle(u.Host, d)
				}
			}
		}
	}

	data, err := c.scraper.Fetch(ctx, models.RequestOptions{
		URL:      pageURL,
		Mode:     c.opts.Mode,
		Selector: c.opts.Selector,
		Headers:  c.opts.Headers,
		Timeout:  c.opts.Timeout,
		WaitTime: c.opts.WaitTime,
	})
	if err != nil {
		return nil, err
	}

	md, err := c.converter.Convert(data.HTML, data.URL)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", pageURL, err)
	}

	finalURL := data.URL
	if finalURL == "" {
		finalURL = pageURL
	}

	log.Debug().
		Str("url", finalURL).
		Int("status", data.StatusCode).
		Int("links", len(data.Links)).
		Msg("Page crawled")

	return &models.PageResult{
		URL:        finalURL,
		Title:      data.Title,
		Markdown:   md,
		StatusCode: data.StatusCode,
		Links:      data.Links,
		Images:     data.Images,
		Metadata:   data.Metadata,
	}, nil
}

// Normalize validates a start URL and strips its fragment and trailing slash.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https: %q", engine.ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host: %q", engine.ErrInvalidURL, raw)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// InScope reports whether link lies at or below base
func InScope(link, base string) bool {
	link = stripFragment(link)
	if link == base || strings.TrimRight(link, "/") == base {
		return true
	}
	if !strings.HasPrefix(link, base) {
		return false
	}
	// "/docs" must not match "/docs-old"
	switch link[len(base)] {
	case '/', '?', '#':
		return true
	}
	return false
}

func key(u string) string {
	return strings.TrimRight(stripFragment(u), "/")
}

func stripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}
