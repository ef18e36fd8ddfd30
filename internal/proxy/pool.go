package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// failCooldown is how long a failed proxy is skipped
const failCooldown = 5 * time.Minute

// Pool rotates requests across a list of proxies, skipping ones that failed recently
type Pool struct {
	proxies []string
	index   int
	mu      sync.Mutex
	failed  map[string]time.Time
}

// NewPool creates a Pool from raw proxy addresses
func NewPool(proxies []string) *Pool {
	cleaned := make([]string, 0, len(proxies))
	for _, p := range proxies {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &Pool{
		proxies: cleaned,
		failed:  make(map[string]time.Time),
	}
}

// ParseList splits a comma separated --proxy value into a Pool
func ParseList(raw string) *Pool {
	if raw == "" {
		return NewPool(nil)
	}
	return NewPool(strings.Split(raw, ","))
}

// Len returns the number of configured proxies
func (p *Pool) Len() int {
	return len(p.proxies)
}

// First returns the first configured proxy or "" (used for the browser, which takes one proxy)
func (p *Pool) First() string {
	if len(p.proxies) == 0 {
		return ""
	}
	return p.proxies[0]
}

// GetNext returns the next healthy proxy from the pool
func (p *Pool) GetNext() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	start := p.index
	for {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		if failTime, ok := p.failed[proxy]; ok {
			if time.Since(failTime) < failCooldown {
				if p.index == start {
					// Every proxy is cooling down; use this one anyway
					return proxy
				}
				continue
			}
			delete(p.failed, proxy)
		}

		return proxy
	}
}

// MarkFailed marks a proxy as failed so it will be skipped for a while
func (p *Pool) MarkFailed(proxy string) {
	if proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = time.Now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}

type proxyKey struct{}

// Transport sends each request through the next proxy of the pool. A proxy
// that cannot be reached is benched for failCooldown; one that carries a
// request is marked healthy again. base.Proxy is replaced. With an empty pool
// base falls back to the environment (HTTP_PROXY and friends).
func (p *Pool) Transport(base *http.Transport) http.RoundTripper {
	if p.Len() == 0 {
		base.Proxy = http.ProxyFromEnvironment
		return base
	}
	base.Proxy = func(req *http.Request) (*url.URL, error) {
		u, _ := req.Context().Value(proxyKey{}).(*url.URL)
		return u, nil
	}
	return &rotatingTransport{pool: p, base: base}
}

type rotatingTransport struct {
	pool *Pool
	base http.RoundTripper
}

func (rt *rotatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	proxy := rt.pool.GetNext()
	u, err := url.Parse(proxy)
	if err != nil || u.Host == "" {
		rt.pool.MarkFailed(proxy)
		return nil, fmt.Errorf("invalid proxy %q", proxy)
	}

	resp, err := rt.base.RoundTrip(req.WithContext(context.WithValue(req.Context(), proxyKey{}, u)))

	var opErr *net.OpError
	switch {
	case err == nil:
		rt.pool.MarkHealthy(proxy)
	case errors.As(err, &opErr) && opErr.Op == "proxyconnect":
		log.Warn().Err(err).Str("proxy", u.Redacted()).Msg("Proxy unreachable, benching it")
		rt.pool.MarkFailed(proxy)
	}
	return resp, err
}

// CloseIdleConnections lets http.Client.CloseIdleConnections reach the base transport.
func (rt *rotatingTransport) CloseIdleConnections() {
	if c, ok := rt.base.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
