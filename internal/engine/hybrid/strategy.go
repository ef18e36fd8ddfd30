// internal/engine/hybrid/strategy.go
package hybrid

import "github.com/PuerkitoBio/goquery"

// Strategy is how a page fetched in auto mode gets its final content
type Strategy int

const (
	// StrategyStatic keeps the HTTP response as is
	StrategyStatic Strategy = iota
	// StrategyHybrid keeps the HTTP response and evaluates inline scripts in goja
	StrategyHybrid
	// StrategyDynamic re-renders the page in Chrome
	StrategyDynamic
)

func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "static"
	case StrategyHybrid:
		return "hybrid"
	case StrategyDynamic:
		return "dynamic"
	}
	return "unknown"
}

// Signals are the page properties a Strategy is chosen from
type Signals struct {
	HTML            string
	TextLen         int
	ExternalScripts int
	InlineScripts   int
}

func signalsFrom(html string, textLen, external int, doc *goquery.Document) Signals {
	return Signals{
		HTML:            html,
		TextLen:         textLen,
		ExternalScripts: external,
		InlineScripts:   doc.Find("script:not([src])").Length(),
	}
}

// DetermineStrategy picks the cheapest strategy that still yields the page text.
// Pages that already carry their text but only load external bundles stay
// static; goja cannot run those bundles anyway.
func DetermineStrategy(sig Signals) Strategy {
	scripts := sig.ExternalScripts + sig.InlineScripts
	switch {
	case scripts == 0:
		return StrategyStatic
	case NeedsJavaScript(sig.HTML, sig.TextLen, scripts):
		return StrategyDynamic
	case sig.InlineScripts > 0:
		return StrategyHybrid
	}
	return StrategyStatic
}
