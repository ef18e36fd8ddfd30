// Package robots answers whether a URL may be crawled according to its
// host's robots.txt.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

const maxRobotsBytes = 512 << 10

// Checker fetches robots.txt once per scheme and host and caches the rules.
// A missing, unreachable or unparsable robots.txt allows everything.
type Checker struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	rules map[string]*robotstxt.Group
}

// NewChecker creates a Checker. client may be nil.
func NewChecker(client *http.Client, userAgent string) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Checker{
		client:    client,
		userAgent: userAgent,
		rules:     make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether rawURL may be fetched by the configured user agent.
func (c *Checker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("robots: empty host in %q", rawURL)
	}

	group := c.group(ctx, u.Scheme, strings.ToLower(u.Host))
	if group == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return group.Test(path), nil
}

// CrawlDelay returns the Crawl-delay for host, or 0 if none is known yet.
func (c *Checker) CrawlDelay(scheme, host string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g := c.rules[scheme+"://"+strings.ToLower(host)]; g != nil {
		return g.CrawlDelay
	}
	return 0
}

func (c *Checker) group(ctx context.Context, scheme, host string) *robotstxt.Group {
	key := scheme + "://" + host

	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.rules[key]; ok {
		return g
	}

	g := c.fetch(ctx, key+"/robots.txt")
	c.rules[key] = g
	return g
}

// fetch returns nil when every path is allowed
func (c *Checker) fetch(ctx context.Context, robotsURL string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", robotsURL).Msg("robots.txt unavailable, allowing all")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil
	}

	// 4xx allows everything, 5xx disallows everything
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Str("url", robotsURL).Msg("Unusable robots.txt, allowing all")
		return nil
	}

	log.Debug().Int("status", resp.StatusCode).Str("url", robotsURL).Msg("Loaded robots.txt")
	return data.FindGroup(c.userAgent)
}
