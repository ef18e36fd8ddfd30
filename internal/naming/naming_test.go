package naming

import (
	"strings"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Getting Started", "getting_started"},
		{"  API: Reference (v2)!  ", "api_reference_v2"},
		{"multi   space\ttabs", "multi_space_tabs"},
		{"keep-dashes_and_underscores", "keep-dashes_and_underscores"},
		{"Über Café", "über_café"},
		{"", Untitled},
		{"?!*", Untitled},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanPath(t *testing.T) {
	base := "https://example.com/docs"
	tests := []struct {
		name, page, want string
	}{
		{"base page", "https://example.com/docs", ""},
		{"base with slash", "https://example.com/docs/", ""},
		{"nested", "https://example.com/docs/guide/install", "guide_install"},
		{"query dropped", "https://example.com/docs/search?q=go", "search"},
		{"fragment wins", "https://example.com/docs/page#Section One", "section_one"},
		{"escaped", "https://example.com/docs/hello%20world", "hello_world"},
		{"dot segments", "https://example.com/docs/a/./b/../c", "a_c"},
		{"stray percent", "https://example.com/docs/a%20b/100%", "a_b_100"},
		{"bad escape kept", "https://example.com/docs/x%zzy%41", "xzzya"},
		{"utf8 escape", "https://example.com/docs/caf%C3%A9", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPath(tt.page, base); got != tt.want {
				t.Errorf("CleanPath(%q) = %q, want %q", tt.page, got, tt.want)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	base := "https://example.com/docs"

	if got := FileName("Docs Home", base, base); got != "docs_home.md" {
		t.Errorf("Expected docs_home.md, got %s", got)
	}
	if got := FileName("Install", base+"/guide/install", base); got != "install_guide_install.md" {
		t.Errorf("Expected install_guide_install.md, got %s", got)
	}
	if got := FileName("", base+"/faq", base); got != "untitled_faq.md" {
		t.Errorf("Expected untitled_faq.md, got %s", got)
	}

	long := FileName(strings.Repeat("word ", 100), base, base)
	if len(long) > maxStemLen+len(".md") {
		t.Errorf("Expected name capped at %d bytes, got %d", maxStemLen+3, len(long))
	}
	if !strings.HasSuffix(long, ".md") {
		t.Errorf("Expected .md suffix, got %s", long)
	}
}

func TestRegistry_Unique(t *testing.T) {
	r := NewRegistry()

	got := []string{
		r.Unique("page.md"),
		r.Unique("page.md"),
		r.Unique("Page.md"),
		r.Unique("page_2.md"),
		r.Unique("other.md"),
	}
	want := []string{"page.md", "page_2.md", "Page_3.md", "page_2_2.md", "other.md"}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Unique #%d = %q, want %q", i, got[i], want[i])
		}
	}

	seen := make(map[string]bool)
	for _, name := range got {
		key := strings.ToLower(name)
		if seen[key] {
			t.Errorf("Duplicate name %s", name)
		}
		seen[key] = true
	}
}
