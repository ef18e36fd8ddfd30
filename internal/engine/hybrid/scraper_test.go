package hybrid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/law-makers/crawlmd/internal/engine/static"
	"github.com/law-makers/crawlmd/internal/retry"
	"github.com/law-makers/crawlmd/pkg/models"
)

type stubRenderer struct {
	calls int
	err   error
}

func (s *stubRenderer) Name() string { return "stub" }

func (s *stubRenderer) Fetch(ctx context.Context, opts models.RequestOptions) (*models.PageData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.PageData{URL: opts.URL, Title: "Rendered", Metadata: map[string]string{}}, nil
}

func newStatic() *static.Scraper {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 1
	return static.New(nil, &http.Client{Timeout: 5 * time.Second}, cfg, 5*time.Second, "Test/1.0")
}

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

const appShell = `<html><head><title></title><script src="/bundle.js"></script></head>
<body><div id="root"></div></body></html>`

func TestScraper_AutoRendersAppShell(t *testing.T) {
	server := serve(t, appShell)
	renderer := &stubRenderer{}

	data, err := New(newStatic(), renderer).Fetch(context.Background(), models.RequestOptions{
		URL:  server.URL,
		Mode: models.ModeAuto,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if renderer.calls != 1 {
		t.Errorf("Expected renderer to be used once, got %d", renderer.calls)
	}
	if data.Title != "Rendered" {
		t.Errorf("Expected rendered result, got title %q", data.Title)
	}
}

func TestScraper_StaticModeNeverRenders(t *testing.T) {
	server := serve(t, appShell)
	renderer := &stubRenderer{}

	_, err := New(newStatic(), renderer).Fetch(context.Background(), models.RequestOptions{
		URL:  server.URL,
		Mode: models.ModeStatic,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if renderer.calls != 0 {
		t.Errorf("Static mode must not render, got %d calls", renderer.calls)
	}
}

func TestScraper_RenderFailureKeepsStatic(t *testing.T) {
	server := serve(t, appShell)
	renderer := &stubRenderer{err: errors.New("chrome missing")}

	data, err := New(newStatic(), renderer).Fetch(context.Background(), models.RequestOptions{
		URL:  server.URL,
		Mode: models.ModeAuto,
	})
	if err != nil {
		t.Fatalf("Expected static fallback, got %v", err)
	}
	if data == nil || data.StatusCode != http.StatusOK {
		t.Errorf("Expected static page data, got %+v", data)
	}
}

func TestScraper_InlineScriptsFillTitle(t *testing.T) {
	html := `<html><head><title></title></head><body>
<div><div><div><p>Enough server-rendered text to count as a real page rather than an empty application shell waiting for a bundle.
This paragraph keeps going so the detector sees more than two hundred characters of visible text in the body.</p></div></div></div>
<script>document.title = "Scripted Title"; var pageId = 42;</script>
</body></html>`
	server := serve(t, html)

	data, err := New(newStatic(), nil).Fetch(context.Background(), models.RequestOptions{
		URL:  server.URL,
		Mode: models.ModeAuto,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if data.Title != "Scripted Title" {
		t.Errorf("Expected title from inline script, got %q", data.Title)
	}
	if data.Metadata["js:pageId"] != "42" {
		t.Errorf("Expected js:pageId metadata, got %q", data.Metadata["js:pageId"])
	}
}

func TestScraper_InlineScriptBudget(t *testing.T) {
	html := `<html><head><title>Loop</title></head><body>
<div><div><div><p>Enough server-rendered text to count as a real page rather than an empty application shell waiting for a bundle.
This paragraph keeps going so the detector sees more than two hundred characters of visible text in the body.</p></div></div></div>
<script>while (true) {}</script>
</body></html>`
	server := serve(t, html)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = New(newStatic(), nil).Fetch(context.Background(), models.RequestOptions{URL: server.URL, Mode: models.ModeAuto})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Inline script evaluation was not interrupted")
	}
}

func TestDetermineStrategy(t *testing.T) {
	tests := []struct {
		name string
		sig  Signals
		want Strategy
	}{
		{"no scripts", Signals{HTML: "<div></div>", TextLen: 10}, StrategyStatic},
		{"app shell", Signals{HTML: appShell, ExternalScripts: 1}, StrategyDynamic},
		{"scripted article", Signals{HTML: "<div><div><div>", TextLen: 500, InlineScripts: 3}, StrategyHybrid},
		{"server rendered with bundle", Signals{HTML: "<div><div><div>", TextLen: 500, ExternalScripts: 2}, StrategyStatic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineStrategy(tt.sig); got != tt.want {
				t.Errorf("DetermineStrategy() = %s, want %s", got, tt.want)
			}
		})
	}
}
