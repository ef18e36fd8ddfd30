// internal/engine/hybrid/detector.go
package hybrid

import (
	"strings"
)

// frameworkMarkers maps a mount-point signature to the framework that emits it
var frameworkMarkers = []struct {
	marker    string
	framework string
}{
	{"__next_data__", "Next.js"},
	{"id=\"__nuxt\"", "Nuxt"},
	{"data-reactroot", "React"},
	{"id=\"root\"", "React"},
	{"data-v-app", "Vue"},
	{"id=\"app\"", "Vue"},
	{"ng-app", "Angular"},
	{"ng-version", "Angular"},
	{"id=\"svelte\"", "Svelte"},
	{"data-ember-extension", "Ember"},
}

// minRenderedText is the amount of body text below which a scripted page is treated as an empty shell
const minRenderedText = 200

// DetectJavaScriptFramework detects common JS frameworks in HTML
func DetectJavaScriptFramework(html string) string {
	html = strings.ToLower(html)
	for _, m := range frameworkMarkers {
		if strings.Contains(html, m.marker) {
			return m.framework
		}
	}
	return "Unknown"
}

// NeedsJavaScript reports whether a statically fetched page is an app shell that only renders in a browser
func NeedsJavaScript(html string, textLen int, scriptCount int) bool {
	if scriptCount == 0 {
		return false
	}
	if textLen >= minRenderedText {
		return false
	}
	if DetectJavaScriptFramework(html) != "Unknown" {
		return true
	}
	// Lots of script, almost no markup
	return strings.Count(strings.ToLower(html), "<div") < 3
}
