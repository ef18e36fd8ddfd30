package metadata

import (
	"net/url"
	"strings"
)

// skippedSchemes are href schemes that never point at a crawlable page
var skippedSchemes = []string{"mailto:", "javascript:", "tel:", "data:"}

// ResolveURL resolves a possibly-relative href against base
func ResolveURL(base, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// NormalizeLink turns an href found on base into an absolute http(s) URL with
// the fragment removed. It returns "" for links that cannot be crawled.
func NormalizeLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, s := range skippedSchemes {
		if strings.HasPrefix(lower, s) {
			return ""
		}
	}

	resolved, err := url.Parse(ResolveURL(base, href))
	if err != nil || resolved.Host == "" {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// FilterUniqueLinks removes duplicate links, keeping first-seen order
func FilterUniqueLinks(links []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(links))

	for _, link := range links {
		if !seen[link] {
			seen[link] = true
			result = append(result, link)
		}
	}

	return result
}
