// Package ratelimit spaces out requests to each host a crawl touches.
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RateLimiter throttles requests per host so a crawl never floods one site.
type RateLimiter interface {
	// Wait blocks until a request to rawURL's host may go out, or ctx is done.
	Wait(ctx context.Context, rawURL string) error
}

// DomainLimiter keeps one token bucket per host. Hosts start at the default
// rate and can be slowed down individually, e.g. by a robots.txt Crawl-delay.
type DomainLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

// NewDomainLimiter returns a limiter allowing rps requests per second to each
// host with the given burst.
func NewDomainLimiter(rps float64, burst int) *DomainLimiter {
	if rps <= 0 {
		rps = 5
	}
	return &DomainLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Limit(rps),
		burst:   max(burst, 1),
	}
}

func (dl *DomainLimiter) Wait(ctx context.Context, rawURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b := dl.bucket(hostOf(rawURL))
	if b == nil {
		// Unparseable URLs fail later with a better error
		return nil
	}
	return b.Wait(ctx)
}

// SetDelay slows host down to one request per delay. It never speeds a host
// up past the default rate and ignores non-positive delays.
func (dl *DomainLimiter) SetDelay(host string, delay time.Duration) {
	host = strings.ToLower(host)
	if host == "" || delay <= 0 {
		return
	}
	limit := rate.Every(delay)
	if limit >= dl.every {
		return
	}

	b := dl.bucket(host)
	if b.Limit() == limit {
		return
	}
	b.SetLimit(limit)
	b.SetBurst(1)
	log.Debug().Str("host", host).Dur("delay", delay).Msg("Host throttled")
}

// Hosts returns the number of hosts that currently have a bucket.
func (dl *DomainLimiter) Hosts() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return len(dl.buckets)
}

func (dl *DomainLimiter) bucket(host string) *rate.Limiter {
	if host == "" {
		return nil
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()

	b, ok := dl.buckets[host]
	if !ok {
		b = rate.NewLimiter(dl.every, dl.burst)
		dl.buckets[host] = b
	}
	return b
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
