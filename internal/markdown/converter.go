// Package markdown turns crawled HTML into GitHub-flavoured Markdown.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Converter converts page HTML to Markdown
type Converter struct {
	conv *md.Converter
}

// NewConverter creates a Converter with GitHub-flavoured tables, strikethrough and task lists
func NewConverter() *Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		CodeBlockStyle:   "fenced",
		BulletListMarker: "-",
	})
	conv.Use(plugin.GitHubFlavored())
	return &Converter{conv: conv}
}

// Convert cleans htmlContent and renders it as Markdown. Relative links and
// images are made absolute using pageURL.
func (c *Converter) Convert(htmlContent, pageURL string) (string, error) {
	cleaned, err := CleanHTML(htmlContent, pageURL)
	if err != nil {
		return "", fmt.Errorf("clean html: %w", err)
	}

	out, err := c.conv.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	out = blankRuns.ReplaceAllString(strings.TrimSpace(out), "\n\n")
	if out != "" {
		out += "\n"
	}
	return out, nil
}
