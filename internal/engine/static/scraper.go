// internal/engine/static/scraper.go
package static

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/crawlmd/internal/engine"
	"github.com/law-makers/crawlmd/internal/engine/metadata"
	"github.com/law-makers/crawlmd/internal/ratelimit"
	"github.com/law-makers/crawlmd/internal/retry"
	"github.com/law-makers/crawlmd/pkg/models"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes caps how much of a response is parsed
const maxBodyBytes = 20 << 20

// Scraper fetches pages over plain HTTP and parses them with goquery.
type Scraper struct {
	limiter   ratelimit.RateLimiter
	client    *http.Client
	retryCfg  retry.Config
	timeout   time.Duration
	userAgent string
}

// New creates a static Scraper. limiter may be nil.
func New(lim ratelimit.RateLimiter, client *http.Client, retryCfg retry.Config, timeout time.Duration, ua string) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Scraper{
		limiter:   lim,
		client:    client,
		retryCfg:  retryCfg,
		timeout:   timeout,
		userAgent: ua,
	}
}

// Name returns the name of this scraper
func (s *Scraper) Name() string {
	return "StaticScraper"
}

// Fetch retrieves and parses a static HTML page
func (s *Scraper) Fetch(ctx context.Context, opts models.RequestOptions) (*models.PageData, error) {
	data, _, err := s.FetchWithDoc(ctx, opts)
	return data, err
}

// FetchWithDoc retrieves and parses a static HTML page, returning both data and document
func (s *Scraper) FetchWithDoc(ctx context.Context, opts models.RequestOptions) (*models.PageData, *goquery.Document, error) {
	start := time.Now()

	log.Debug().
		Str("url", opts.URL).
		Str("scraper", s.Name()).
		Msg("Starting fetch")

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}

	var (
		pageData *models.PageData
		doc      *goquery.Document
	)

	err := retry.WithRetry(ctx, s.retryCfg, func() error {
		var err error
		pageData, doc, err = s.fetchOnce(ctx, opts, timeout)
		return err
	})
	if err != nil {
		return nil, nil, classify(opts.URL, err)
	}

	pageData.ResponseTime = time.Since(start).Milliseconds()

	log.Debug().
		Str("url", opts.URL).
		Int("status", pageData.StatusCode).
		Int64("response_time_ms", pageData.ResponseTime).
		Int("links", len(pageData.Links)).
		Msg("Fetch completed")

	return pageData, doc, nil
}

func (s *Scraper) fetchOnce(ctx context.Context, opts models.RequestOptions, timeout time.Duration) (*models.PageData, *goquery.Document, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, opts.URL); err != nil {
			return nil, nil, err
		}
	}

	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, nil, engine.NewEngineError(engine.ErrCodeValidation, "failed to create request", errors.Join(engine.ErrInvalidURL, err)).ForURL(opts.URL)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, retry.FromResponse(resp, opts.URL)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !isHTML(ct) {
		return nil, nil, engine.NewEngineError(engine.ErrCodeUnsupported, ct, engine.ErrUnsupportedType).ForURL(opts.URL)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, engine.NewEngineError(engine.ErrCodeParseError, "failed to parse HTML", errors.Join(engine.ErrParseError, err)).ForURL(opts.URL)
	}

	// Redirects change the base for relative links
	finalURL := opts.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	pageData := &models.PageData{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now(),
		Headers:    make(map[string]string),
		Metadata:   make(map[string]string),
	}

	for key, values := range resp.Header {
		if len(values) > 0 {
			pageData.Headers[key] = values[0]
		}
	}

	pageData.Content, pageData.HTML = metadata.ExtractContent(doc, opts.Selector)
	if opts.Selector != "" && opts.Selector != "body" && pageData.Content == "" {
		log.Warn().
			Str("selector", opts.Selector).
			Msg("Selector not found in document")
	}

	metadata.Extract(doc, pageData)

	return pageData, doc, nil
}

// classify maps a fetch failure onto an EngineError
func classify(url string, err error) error {
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		return err
	}

	var he retry.HTTPError
	switch {
	case errors.As(err, &he):
		code := engine.ErrCodeHTTPStatus
		if he.StatusCode == http.StatusNotFound {
			code = engine.ErrCodeNotFound
		}
		return engine.NewEngineError(code, he.Status, err).ForURL(url).WithStatus(he.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return engine.NewEngineError(engine.ErrCodeTimeout, "", errors.Join(engine.ErrTimeout, err)).ForURL(url)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return engine.NewEngineError(engine.ErrCodeNetworkError, "", errors.Join(engine.ErrNetworkError, err)).ForURL(url).WithRetry()
	}
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml") || strings.HasPrefix(ct, "text/plain")
}
