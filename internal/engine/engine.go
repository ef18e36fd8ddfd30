// Package engine defines the page fetchers the crawler drives and the errors
// they report.
package engine

import (
	"context"

	"github.com/law-makers/crawlmd/pkg/models"
)

// Scraper fetches a single page and returns its HTML, links and metadata.
type Scraper interface {
	Fetch(ctx context.Context, opts models.RequestOptions) (*models.PageData, error)
	// Name identifies the implementation in logs.
	Name() string
}
