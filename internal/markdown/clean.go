package markdown

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/crawlmd/internal/engine/metadata"
	"golang.org/x/net/html"
)

// noiseSelector matches elements that never carry page content
const noiseSelector = "script, style, link, meta, noscript, iframe, svg, canvas, template, " +
	"form, input, button, select, textarea"

// overlaySelector matches modal dialogs, cookie banners and similar overlays
const overlaySelector = "dialog, [role='dialog'], [role='alertdialog'], [aria-modal='true'], " +
	".modal, .overlay, .popup, .lightbox, " +
	"#cookie-banner, .cookie-banner, .cookie-consent, #onetrust-consent-sdk, .cc-window"

// keptAttrs lists the attributes preserved per tag; everything else is dropped
var keptAttrs = map[string]map[string]bool{
	"a":    {"href": true, "title": true},
	"img":  {"src": true, "alt": true, "title": true},
	"code": {"class": true},
	"pre":  {"class": true},
	"td":   {"colspan": true, "rowspan": true},
	"th":   {"colspan": true, "rowspan": true},
}

// CleanHTML strips noise and overlays, drops presentational attributes and
// resolves link and image URLs against baseURL.
func CleanHTML(htmlContent, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find(noiseSelector).Remove()
	doc.Find(overlaySelector).Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			cleanAttrs(node, baseURL)
		}
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		out, err := doc.Html()
		return strings.TrimSpace(out), err
	}
	out, err := body.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func cleanAttrs(node *html.Node, baseURL string) {
	allowed := keptAttrs[node.Data]
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if !allowed[attr.Key] {
			continue
		}
		if baseURL != "" && (attr.Key == "href" || attr.Key == "src") {
			if !strings.HasPrefix(attr.Val, "#") {
				attr.Val = metadata.ResolveURL(baseURL, attr.Val)
			}
		}
		kept = append(kept, attr)
	}
	node.Attr = kept
}
