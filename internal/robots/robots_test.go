package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestChecker_Allowed(t *testing.T) {
	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&fetches, 1)
		w.Write([]byte("User-agent: *\nDisallow: /private\nCrawl-delay: 2\n"))
	}))
	defer server.Close()

	c := NewChecker(server.Client(), "crawlmd-test")
	ctx := context.Background()

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/docs/intro", true},
		{"/private", false},
		{"/private/area", false},
	}
	for _, tt := range tests {
		got, err := c.Allowed(ctx, server.URL+tt.path)
		if err != nil {
			t.Fatalf("Allowed(%s) failed: %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Allowed(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}

	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("Expected robots.txt fetched once, got %d", n)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	if d := c.CrawlDelay("http", req.URL.Host); d != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", d)
	}
}

func TestChecker_MissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := NewChecker(server.Client(), "crawlmd-test")
	ok, err := c.Allowed(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("Allowed failed: %v", err)
	}
	if !ok {
		t.Error("Expected missing robots.txt to allow all")
	}
}

func TestChecker_ServerErrorDisallowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewChecker(server.Client(), "crawlmd-test")
	ok, err := c.Allowed(context.Background(), server.URL+"/docs")
	if err != nil {
		t.Fatalf("Allowed failed: %v", err)
	}
	if ok {
		t.Error("Expected a 5xx robots.txt to disallow all")
	}
}

func TestChecker_InvalidURL(t *testing.T) {
	c := NewChecker(nil, "crawlmd-test")
	if _, err := c.Allowed(context.Background(), "not a url"); err == nil {
		t.Error("Expected error for URL without host")
	}
}
