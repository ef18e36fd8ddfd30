// internal/engine/hybrid/scraper.go
package hybrid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/law-makers/crawlmd/internal/engine"
	"github.com/law-makers/crawlmd/internal/engine/static"
	"github.com/law-makers/crawlmd/pkg/models"
	"github.com/rs/zerolog/log"
)

// scriptBudget bounds the time spent evaluating inline scripts of one page
const scriptBudget = 250 * time.Millisecond

// Scraper fetches statically first and escalates to the browser only when a page needs it
type Scraper struct {
	static  *static.Scraper
	dynamic engine.Scraper
}

// New creates a hybrid Scraper. dynamic may be nil, in which case pages are never rendered.
func New(staticScraper *static.Scraper, dynamicScraper engine.Scraper) *Scraper {
	return &Scraper{
		static:  staticScraper,
		dynamic: dynamicScraper,
	}
}

// Name returns the name of the scraper
func (s *Scraper) Name() string {
	return "HybridScraper"
}

// Fetch picks the engine according to opts.Mode; auto mode inspects the static response first
func (s *Scraper) Fetch(ctx context.Context, opts models.RequestOptions) (*models.PageData, error) {
	if opts.Mode == models.ModeSPA && s.dynamic != nil {
		return s.dynamic.Fetch(ctx, opts)
	}

	data, doc, err := s.static.FetchWithDoc(ctx, opts)
	if err != nil {
		return nil, err
	}
	if opts.Mode == models.ModeStatic {
		return data, nil
	}

	strategy := DetermineStrategy(signalsFrom(data.HTML, len(data.Content), len(data.Scripts), doc))

	log.Debug().
		Str("url", opts.URL).
		Str("strategy", strategy.String()).
		Msg("Strategy selected")

	switch strategy {
	case StrategyDynamic:
		if s.dynamic == nil {
			return data, nil
		}
		rendered, err := s.dynamic.Fetch(ctx, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("url", opts.URL).Msg("Rendering failed, keeping static result")
			return data, nil
		}
		return rendered, nil
	case StrategyHybrid:
		s.executeScripts(data, doc)
	}

	return data, nil
}

// executeScripts runs inline scripts in a minimal browser-like sandbox. Exported
// globals land in Metadata under "js:" and a title assigned via document.title
// fills an empty <title>.
func (s *Scraper) executeScripts(data *models.PageData, doc *goquery.Document) {
	vm := goja.New()

	document := vm.NewObject()
	_ = document.Set("title", data.Title)
	_ = document.Set("location", map[string]interface{}{"href": data.URL})

	_ = vm.Set("window", vm.GlobalObject())
	_ = vm.Set("self", vm.GlobalObject())
	_ = vm.Set("document", document)
	_ = vm.Set("location", map[string]interface{}{"href": data.URL})
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	_ = vm.Set("console", map[string]interface{}{"log": noop, "warn": noop, "error": noop})

	timer := time.AfterFunc(scriptBudget, func() {
		vm.Interrupt("script budget exceeded")
	})
	defer timer.Stop()

	doc.Find("script:not([src])").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if t, ok := sel.Attr("type"); ok && t != "" && !strings.Contains(t, "javascript") && t != "module" {
			return true
		}
		script := sel.Text()
		if strings.TrimSpace(script) == "" {
			return true
		}
		if _, err := vm.RunString(script); err != nil {
			if _, interrupted := err.(*goja.InterruptedError); interrupted {
				log.Debug().Str("url", data.URL).Msg("Inline script budget exceeded")
				return false
			}
			// Most scripts touch DOM APIs we don't provide
		}
		return true
	})

	if data.Title == "" {
		if v := document.Get("title"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
			data.Title = strings.TrimSpace(v.String())
		}
	}

	for _, key := range vm.GlobalObject().Keys() {
		if isStandardGlobal(key) {
			continue
		}
		val := vm.Get(key)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			continue
		}
		if _, isFunc := goja.AssertFunction(val); isFunc {
			continue
		}
		if exported := val.Export(); exported != nil {
			data.Metadata["js:"+key] = fmt.Sprintf("%v", exported)
		}
	}
}

func isStandardGlobal(key string) bool {
	switch key {
	case "window", "self", "document", "location", "console":
		return true
	}
	return false
}
