// Package export runs a crawl and writes the pages as Markdown files plus a
// zip archive of them.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/law-makers/crawlmd/internal/archive"
	"github.com/law-makers/crawlmd/internal/crawler"
	"github.com/law-makers/crawlmd/internal/jobctx"
	"github.com/law-makers/crawlmd/internal/naming"
	"github.com/law-makers/crawlmd/pkg/models"
	"github.com/rs/zerolog/log"
)

// DirPrefix prefixes every job directory name
const DirPrefix = "crawl_"

// Summary describes what a pipeline run produced
type Summary struct {
	JobID   string   `json:"job_id"`
	Dir     string   `json:"dir"`
	Archive string   `json:"archive"`
	Files   []string `json:"files"`
	Pages   int      `json:"pages"`
	// Manifest maps each written file back to the page it came from
	Manifest []Entry `json:"manifest"`
}

// Entry describes one written Markdown file
type Entry struct {
	File       string            `json:"file"`
	URL        string            `json:"url"`
	Title      string            `json:"title,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	Canonical  string            `json:"canonical,omitempty"`
	Images     int               `json:"images"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Pipeline delegates the crawl and persists its results
type Pipeline struct {
	crawler crawler.Crawler
	// Clean removes the job directory once it has been archived
	Clean bool
}

// NewPipeline creates a Pipeline around c
func NewPipeline(c crawler.Crawler) *Pipeline {
	return &Pipeline{crawler: c}
}

// Run crawls req.URL and writes the results below req.OutputDir.
func (p *Pipeline) Run(ctx context.Context, req models.CrawlRequest) (*Summary, error) {
	base, err := crawler.Normalize(req.URL)
	if err != nil {
		return nil, err
	}

	ctx = jobctx.Ensure(ctx)
	job := jobctx.FromContext(ctx)

	dir := filepath.Join(req.OutputDir, DirPrefix+job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, jobctx.NewJobError(ctx, fmt.Errorf("create output directory: %w", err))
	}

	logger := log.With().Str("job_id", job.ID).Logger()
	logger.Info().
		Str("url", req.URL).
		Int("limit", req.Limit).
		Str("dir", dir).
		Msg("Starting crawl")

	results, err := p.crawler.Crawl(ctx, req)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn().Err(rmErr).Str("dir", dir).Msg("Could not remove job directory")
		}
		return nil, jobctx.NewJobError(ctx, fmt.Errorf("crawl %s: %w", req.URL, err))
	}

	if len(results) == 0 {
		logger.Warn().Str("url", req.URL).Msg("Crawl returned no pages")
	}

	manifest, err := writePages(dir, base, results)
	if err != nil {
		return nil, jobctx.NewJobError(ctx, err)
	}
	files := make([]string, len(manifest))
	for i, e := range manifest {
		files[i] = e.File
	}

	archivePath := dir + ".zip"
	if _, err := archive.ZipDir(dir, archivePath); err != nil {
		return nil, jobctx.NewJobError(ctx, fmt.Errorf("archive %s: %w", dir, err))
	}

	summary := &Summary{
		JobID:    job.ID,
		Dir:      dir,
		Archive:  archivePath,
		Files:    files,
		Pages:    len(results),
		Manifest: manifest,
	}

	if p.Clean {
		if err := os.RemoveAll(dir); err != nil {
			return nil, jobctx.NewJobError(ctx, fmt.Errorf("remove %s: %w", dir, err))
		}
		summary.Dir = ""
	}

	logger.Info().
		Int("pages", summary.Pages).
		Str("archive", archivePath).
		Dur("elapsed", time.Since(job.StartTime)).
		Msg("Crawl exported")

	return summary, nil
}

// writePages stores one Markdown file per result and returns a manifest entry
// for each, in crawl order
func writePages(dir, baseURL string, results []models.PageResult) ([]Entry, error) {
	registry := naming.NewRegistry()
	manifest := make([]Entry, 0, len(results))

	for _, page := range results {
		name := registry.Unique(naming.FileName(page.Title, page.URL, baseURL))
		path := filepath.Join(dir, name)

		if err := os.WriteFile(path, []byte(page.Markdown), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}

		log.Debug().
			Str("url", page.URL).
			Str("file", name).
			Msg("Page written")

		manifest = append(manifest, Entry{
			File:       name,
			URL:        page.URL,
			Title:      page.Title,
			StatusCode: page.StatusCode,
			Canonical:  page.Metadata["canonical"],
			Images:     len(page.Images),
			Metadata:   page.Metadata,
		})
	}

	return manifest, nil
}
