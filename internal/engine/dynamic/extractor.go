// internal/engine/dynamic/extractor.go
package dynamic

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/crawlmd/internal/engine/metadata"
	"github.com/law-makers/crawlmd/pkg/models"
)

// extractRendered parses the rendered DOM snapshot and fills pageData from it,
// keeping the title Chrome reported when the document has none.
func extractRendered(renderedHTML string, opts models.RequestOptions, pageData *models.PageData) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		return fmt.Errorf("parse rendered HTML: %w", err)
	}

	browserTitle := pageData.Title
	pageData.Content, pageData.HTML = metadata.ExtractContent(doc, opts.Selector)
	metadata.Extract(doc, pageData)
	if pageData.Title == "" {
		pageData.Title = strings.TrimSpace(browserTitle)
	}
	return nil
}
