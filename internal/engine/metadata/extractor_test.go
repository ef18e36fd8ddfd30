package metadata

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/crawlmd/pkg/models"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title> Getting Started </title>
	<meta name="description" content="Docs home">
	<meta property="og:site_name" content="Example">
</head>
<body>
	<a href="/docs/intro">Intro</a>
	<a href="/docs/intro#install">Intro again</a>
	<a href="https://other.example.org/x">External</a>
	<a href="mailto:team@example.com">Mail</a>
	<a href="#top">Top</a>
	<img src="logo.png">
	<script src="/app.js"></script>
</body>
</html>`

func TestExtract(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	data := &models.PageData{URL: "https://example.com/docs/"}
	Extract(doc, data)

	if data.Title != "Getting Started" {
		t.Errorf("Expected trimmed title, got %q", data.Title)
	}
	if data.Metadata["description"] != "Docs home" {
		t.Errorf("Expected description meta, got %q", data.Metadata["description"])
	}
	if data.Metadata["og:site_name"] != "Example" {
		t.Errorf("Expected og:site_name meta, got %q", data.Metadata["og:site_name"])
	}

	want := []string{"https://example.com/docs/intro", "https://other.example.org/x"}
	if len(data.Links) != len(want) {
		t.Fatalf("Expected links %v, got %v", want, data.Links)
	}
	for i := range want {
		if data.Links[i] != want[i] {
			t.Errorf("link %d: expected %q, got %q", i, want[i], data.Links[i])
		}
	}

	if len(data.Images) != 1 || data.Images[0] != "https://example.com/docs/logo.png" {
		t.Errorf("Unexpected images %v", data.Images)
	}
	if len(data.Scripts) != 1 {
		t.Errorf("Expected 1 script, got %d", len(data.Scripts))
	}
}

func TestExtract_OGTitleFallback(t *testing.T) {
	html := `<html><head><meta property="og:title" content="From OG"></head><body></body></html>`
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(html))
	data := &models.PageData{URL: "https://example.com/"}
	Extract(doc, data)
	if data.Title != "From OG" {
		t.Errorf("Expected og:title fallback, got %q", data.Title)
	}
}

func TestExtractContent_Selector(t *testing.T) {
	html := `<html><body><div class="price-tag">$99.99</div><div>Other</div></body></html>`
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(html))

	content, out := ExtractContent(doc, ".price-tag")
	if content != "$99.99" {
		t.Errorf("Expected selector content, got %q", content)
	}
	if !strings.Contains(out, "price-tag") {
		t.Errorf("Expected outer HTML of selection, got %q", out)
	}
}

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/a/b?x=1#frag", "https://example.com/a/b?x=1"},
		{"c", "https://example.com/docs/c"},
		{"javascript:void(0)", ""},
		{"ftp://example.com/file", ""},
		{"", ""},
		{"#only", ""},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := NormalizeLink("https://example.com/docs/", tt.href); got != tt.want {
				t.Errorf("NormalizeLink(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestExtract_BaseHrefAndCanonical(t *testing.T) {
	html := `<html><head>
	<base href="/v2/">
	<link rel="canonical" href="guide">
	<meta name="Description" content="Versioned">
</head><body>
	<a href="guide">Guide</a>
	<a href="../about">About</a>
	<img src="img/a.png">
</body></html>`
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(html))
	data := &models.PageData{URL: "https://example.com/docs/page"}
	Extract(doc, data)

	want := []string{"https://example.com/v2/guide", "https://example.com/about"}
	if len(data.Links) != 2 || data.Links[0] != want[0] || data.Links[1] != want[1] {
		t.Errorf("Expected links %v, got %v", want, data.Links)
	}
	if data.Metadata["canonical"] != "https://example.com/v2/guide" {
		t.Errorf("Unexpected canonical %q", data.Metadata["canonical"])
	}
	if data.Metadata["description"] != "Versioned" {
		t.Errorf("Expected lowercased meta key, got %v", data.Metadata)
	}
	if len(data.Images) != 1 || data.Images[0] != "https://example.com/v2/img/a.png" {
		t.Errorf("Unexpected images %v", data.Images)
	}
}

func TestBaseURL_NoBase(t *testing.T) {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(`<html><body></body></html>`))
	if got := BaseURL(doc, "https://example.com/x"); got != "https://example.com/x" {
		t.Errorf("Expected page URL, got %q", got)
	}
}
