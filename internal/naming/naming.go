// Package naming derives Markdown file names from page titles and URLs.
package naming

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
)

const (
	// Untitled is used when a page has no usable title
	Untitled = "untitled"

	maxStemLen = 120
)

var (
	// Unicode aware equivalents of \w, \s and -
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// CleanTitle lowercases a title, drops punctuation and joins words with underscores.
func CleanTitle(title string) string {
	cleaned := clean(title)
	if cleaned == "" {
		return Untitled
	}
	return cleaned
}

// CleanPath turns the part of pageURL below baseURL into a file name fragment.
// A URL fragment takes precedence over the path; the query is ignored. The
// result is empty for the base page itself.
func CleanPath(pageURL, baseURL string) string {
	p := unquote(pageURL)
	if baseURL != "" {
		p = strings.TrimPrefix(p, unquote(baseURL))
	}
	p = strings.TrimLeft(p, "/")

	if i := strings.Index(p, "#"); i >= 0 {
		p = p[i+1:]
	} else if i := strings.Index(p, "?"); i >= 0 {
		p = p[:i]
	}

	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	p = strings.ReplaceAll(p, "/", "_")
	return clean(p)
}

// unquote decodes every well-formed %XX escape in s and keeps malformed
// ones as they are. Invalid UTF-8 in the result becomes U+FFFD.
func unquote(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if hi, ok := unhex(s[i+1]); ok {
				if lo, ok := unhex(s[i+2]); ok {
					b.WriteByte(hi<<4 | lo)
					i += 2
					continue
				}
			}
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// FileName builds "<title>[_<path>].md" for a crawled page.
func FileName(title, pageURL, baseURL string) string {
	stem := CleanTitle(title)
	if p := CleanPath(pageURL, baseURL); p != "" {
		stem += "_" + p
	}
	if len(stem) > maxStemLen {
		stem = truncate(stem, maxStemLen)
	}
	return stem + ".md"
}

func clean(s string) string {
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "_")
	return strings.ToLower(s)
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return strings.TrimRight(s[:cut], "_")
}

// Registry hands out file names that are unique within one output directory.
type Registry struct {
	mu   sync.Mutex
	used map[string]int
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{used: make(map[string]int)}
}

// Unique returns name, or name with a numeric suffix if it was already taken.
func (r *Registry) Unique(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, taken := r.used[key]; !taken {
		r.used[key] = 1
		return name
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := r.used[key] + 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		ckey := strings.ToLower(candidate)
		if _, taken := r.used[ckey]; taken {
			continue
		}
		r.used[key] = n
		r.used[ckey] = 1
		return candidate
	}
}
