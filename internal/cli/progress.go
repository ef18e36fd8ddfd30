package cli

import (
	"io"
	"time"

	"github.com/law-makers/crawlmd/internal/crawler"
	"github.com/schollz/progressbar/v3"
)

// progressReporter renders crawl progress on a terminal bar
type progressReporter struct {
	bar *progressbar.ProgressBar
}

func newProgressReporter(w io.Writer, limit int) *progressReporter {
	bar := progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("crawling"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &progressReporter{bar: bar}
}

// Func adapts the bar to the crawler callback
func (p *progressReporter) Func() crawler.ProgressFunc {
	return func(processed, queued, limit int, pageURL string) {
		p.bar.Describe(shorten(pageURL, 48))
		_ = p.bar.Set(processed)
	}
}

// Finish completes and clears the bar
func (p *progressReporter) Finish() {
	_ = p.bar.Finish()
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n+3:]
}
