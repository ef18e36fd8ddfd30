// Package metadata pulls the page facts a crawl needs out of parsed HTML.
package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/crawlmd/pkg/models"
)

// Extract fills pageData's title, meta tags, links, images and scripts from doc.
//
// Relative references resolve against the document's <base href> when it has
// one and against pageData.URL otherwise. Links come back absolute, without
// fragments and deduplicated.
func Extract(doc *goquery.Document, pageData *models.PageData) {
	if doc == nil || pageData == nil {
		return
	}
	if pageData.Metadata == nil {
		pageData.Metadata = make(map[string]string)
	}

	for _, sel := range doc.Find("meta[content]").EachIter() {
		content := sel.AttrOr("content", "")
		for _, key := range []string{"name", "property"} {
			if v, ok := sel.Attr(key); ok && v != "" {
				pageData.Metadata[strings.ToLower(v)] = content
			}
		}
	}

	pageData.Title = strings.TrimSpace(doc.Find("head title").First().Text())
	if pageData.Title == "" {
		pageData.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if pageData.Title == "" {
		pageData.Title = strings.TrimSpace(pageData.Metadata["og:title"])
	}

	base := BaseURL(doc, pageData.URL)

	if href, ok := doc.Find(`link[rel="canonical"][href]`).First().Attr("href"); ok {
		pageData.Metadata["canonical"] = ResolveURL(base, href)
	}

	links := make([]string, 0, 32)
	for _, a := range doc.Find("a[href]").EachIter() {
		if link := NormalizeLink(base, a.AttrOr("href", "")); link != "" {
			links = append(links, link)
		}
	}
	pageData.Links = FilterUniqueLinks(links)

	pageData.Images = attrURLs(doc, "img[src]", "src", base)
	pageData.Scripts = attrURLs(doc, "script[src]", "src", "")
}

// BaseURL returns the URL relative references on doc resolve against.
func BaseURL(doc *goquery.Document, pageURL string) string {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return pageURL
	}
	return ResolveURL(pageURL, href)
}

// attrURLs collects non-empty attr values of selector, resolved against base
// unless base is empty.
func attrURLs(doc *goquery.Document, selector, attr, base string) []string {
	var out []string
	for _, sel := range doc.Find(selector).EachIter() {
		v := strings.TrimSpace(sel.AttrOr(attr, ""))
		if v == "" {
			continue
		}
		if base != "" {
			v = ResolveURL(base, v)
		}
		out = append(out, v)
	}
	return out
}

// ExtractContent returns the text and HTML of the first match of selector.
// An empty selector, "body" or a selector with no match yields the whole
// document.
func ExtractContent(doc *goquery.Document, selector string) (text string, html string) {
	if doc == nil {
		return "", ""
	}

	if selector != "" && selector != "body" {
		if sel := doc.Find(selector); sel.Length() > 0 {
			html, _ = goquery.OuterHtml(sel.First())
			return strings.TrimSpace(sel.Text()), html
		}
	}

	html, _ = doc.Html()
	return strings.TrimSpace(doc.Find("body").Text()), html
}
