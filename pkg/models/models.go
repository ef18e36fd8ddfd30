package models

import "time"

// CrawlRequest is a single crawl job: where to start, how many pages, where to write.
type CrawlRequest struct {
	URL       string `json:"url"`
	Limit     int    `json:"limit"`
	OutputDir string `json:"output_dir"`
}

// PageResult is one crawled page as handed back by the crawler
type PageResult struct {
	URL        string            `json:"url"`
	Title      string            `json:"title,omitempty"`
	Markdown   string            `json:"markdown"`
	StatusCode int               `json:"status_code,omitempty"`
	Links      []string          `json:"links,omitempty"`
	Images     []string          `json:"images,omitempty"`
	// Metadata holds meta tags, the canonical link and "js:" script globals
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// PageData represents the scraped data from a web page
type PageData struct {
	URL          string            `json:"url"`
	StatusCode   int               `json:"status_code"`
	Title        string            `json:"title,omitempty"`
	Content      string            `json:"content,omitempty"`
	HTML         string            `json:"html,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Links        []string          `json:"links,omitempty"`
	Images       []string          `json:"images,omitempty"`
	Scripts      []string          `json:"scripts,omitempty"`
	FetchedAt    time.Time         `json:"fetched_at"`
	ResponseTime int64             `json:"response_time_ms"`
}

// ScraperMode defines the engine mode to use
type ScraperMode string

const (
	ModeAuto   ScraperMode = "auto"
	ModeStatic ScraperMode = "static"
	ModeSPA    ScraperMode = "spa"
)

// ParseMode maps a user supplied mode name to a ScraperMode.
func ParseMode(s string) (ScraperMode, bool) {
	switch ScraperMode(s) {
	case ModeAuto, ModeStatic, ModeSPA:
		return ScraperMode(s), true
	}
	return "", false
}

// RequestOptions contains options for making scraping requests
type RequestOptions struct {
	URL      string
	Mode     ScraperMode
	Selector string
	Headers  map[string]string
	Timeout  time.Duration
	// WaitTime is extra settle time after navigation (dynamic engine only)
	WaitTime time.Duration
}
