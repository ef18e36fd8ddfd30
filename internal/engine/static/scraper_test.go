package static

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/law-makers/crawlmd/internal/engine"
	"github.com/law-makers/crawlmd/internal/ratelimit"
	"github.com/law-makers/crawlmd/internal/retry"
	"github.com/law-makers/crawlmd/pkg/models"
)

func newTestScraper() *Scraper {
	cfg := retry.DefaultConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return New(
		ratelimit.NewDomainLimiter(100, 100),
		&http.Client{Timeout: 5 * time.Second},
		cfg,
		5*time.Second,
		"TestScraper/1.0",
	)
}

func TestScraper_Fetch_BasicHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `<!DOCTYPE html>
<html>
<head>
	<title>Hello World</title>
	<meta name="description" content="Test page">
</head>
<body>
	<h1>Hello World</h1>
	<p>This is a test page.</p>
	<a href="/link1">Link 1</a>
	<a href="/link2">Link 2</a>
	<img src="/image.jpg" alt="Test Image">
</body>
</html>`
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(html))
	}))
	defer server.Close()

	scraper := newTestScraper()

	pageData, err := scraper.Fetch(context.Background(), models.RequestOptions{
		URL:      server.URL,
		Mode:     models.ModeStatic,
		Selector: "body",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if pageData.StatusCode != 200 {
		t.Errorf("Expected status code 200, got %d", pageData.StatusCode)
	}
	if pageData.Title != "Hello World" {
		t.Errorf("Expected title 'Hello World', got '%s'", pageData.Title)
	}
	if len(pageData.Links) != 2 {
		t.Errorf("Expected 2 links, got %d", len(pageData.Links))
	}
	if len(pageData.Links) > 0 && pageData.Links[0] != server.URL+"/link1" {
		t.Errorf("Expected absolute link, got %s", pageData.Links[0])
	}
	if len(pageData.Images) != 1 {
		t.Errorf("Expected 1 image, got %d", len(pageData.Images))
	}
	if pageData.Metadata["description"] != "Test page" {
		t.Errorf("Expected metadata description 'Test page', got '%s'", pageData.Metadata["description"])
	}
}

func TestScraper_Fetch_CustomHeaders(t *testing.T) {
	var gotUA, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom-Header")
		w.Write([]byte(`<html><head><title>Headers</title></head><body></body></html>`))
	}))
	defer server.Close()

	_, err := newTestScraper().Fetch(context.Background(), models.RequestOptions{
		URL:     server.URL,
		Headers: map[string]string{"X-Custom-Header": "TestValue"},
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotUA != "TestScraper/1.0" {
		t.Errorf("Expected configured user agent, got %q", gotUA)
	}
	if gotCustom != "TestValue" {
		t.Errorf("Expected custom header, got %q", gotCustom)
	}
}

func TestScraper_Fetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`<html><head><title>Finally</title></head><body></body></html>`))
	}))
	defer server.Close()

	pageData, err := newTestScraper().Fetch(context.Background(), models.RequestOptions{URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if pageData.Title != "Finally" {
		t.Errorf("Expected title after retries, got %q", pageData.Title)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestScraper_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newTestScraper().Fetch(context.Background(), models.RequestOptions{URL: server.URL + "/missing"})
	if err == nil {
		t.Fatal("Expected error for 404")
	}

	var ee *engine.EngineError
	if !errors.As(err, &ee) || ee.Code != engine.ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND engine error, got %v", err)
	}
}

func TestScraper_Fetch_UnsupportedType(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	_, err := newTestScraper().Fetch(context.Background(), models.RequestOptions{URL: server.URL})
	if !errors.Is(err, engine.ErrUnsupportedType) {
		t.Errorf("Expected ErrUnsupportedType, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Unsupported content must not be retried, got %d calls", calls)
	}
}

func TestScraper_Name(t *testing.T) {
	if name := newTestScraper().Name(); name != "StaticScraper" {
		t.Errorf("Expected name 'StaticScraper', got '%s'", name)
	}
}
