// Package retry re-runs page fetches that failed for transient reasons.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config describes how many times a fetch is attempted and how long to wait
// between attempts.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// RetryOn lists the HTTP statuses worth another attempt.
	RetryOn []int
}

// DefaultConfig returns the retry configuration used for page fetches
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		RetryOn: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// WithRetry calls fn until it succeeds or returns an error that another
// attempt cannot fix. It gives up after cfg.MaxAttempts calls or when ctx is
// done, whichever comes first.
func WithRetry(ctx context.Context, cfg Config, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := max(cfg.MaxAttempts, 1)

	var err error
	for attempt := range attempts {
		if err = fn(); err == nil {
			if attempt > 0 {
				log.Debug().Int("attempts", attempt+1).Msg("Fetch recovered after retry")
			}
			return nil
		}

		if !cfg.retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		wait := cfg.delay(attempt, err)
		log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Dur("wait", wait).
			Msg("Retrying fetch")

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

// delay is the exponential backoff for attempt, stretched to any Retry-After
// the server asked for and capped at MaxBackoff.
func (c Config) delay(attempt int, err error) time.Duration {
	d := time.Duration(float64(c.InitialBackoff) * math.Pow(c.Multiplier, float64(attempt)))

	var he HTTPError
	if errors.As(err, &he) && he.RetryAfter > d {
		d = he.RetryAfter
	}
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	return d
}

func (c Config) retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var he HTTPError
	if errors.As(err, &he) {
		return slices.Contains(c.RetryOn, he.StatusCode)
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	// Timeouts, resets and DNS hiccups
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retryable is implemented by errors that know whether another attempt can help
type Retryable interface {
	Retryable() bool
}

// HTTPError is a response with an error status.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	// RetryAfter is the wait requested by the server, zero when absent.
	RetryAfter time.Duration
}

func (e HTTPError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, status string, url string) HTTPError {
	return HTTPError{StatusCode: statusCode, Status: status, URL: url}
}

// FromResponse builds an HTTPError from resp, including its Retry-After.
func FromResponse(resp *http.Response, url string) HTTPError {
	e := NewHTTPError(resp.StatusCode, resp.Status, url)
	e.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	return e
}

// ParseRetryAfter reads a Retry-After value given either in seconds or as an
// HTTP date. Unparseable or past values yield zero.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	at, err := http.ParseTime(v)
	if err != nil || !at.After(now) {
		return 0
	}
	return at.Sub(now)
}
