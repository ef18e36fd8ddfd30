package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestZipDir(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "crawl_abc")
	writeFile(t, filepath.Join(src, "b.md"), "# B\n")
	writeFile(t, filepath.Join(src, "a.md"), "# A\n")
	writeFile(t, filepath.Join(src, "nested", "c.md"), "# C\n")

	dest := src + ".zip"
	entries, err := ZipDir(src, dest)
	if err != nil {
		t.Fatalf("ZipDir failed: %v", err)
	}

	want := []string{"a.md", "b.md", "nested/c.md"}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got %v", len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("Entry %d = %q, want %q", i, entries[i], want[i])
		}
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer zr.Close()

	contents := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		contents[f.Name] = string(b)
	}

	if contents["nested/c.md"] != "# C\n" {
		t.Errorf("Unexpected content for nested/c.md: %q", contents["nested/c.md"])
	}
	if len(contents) != 3 {
		t.Errorf("Expected 3 files in archive, got %d", len(contents))
	}
}

func TestZipDir_Empty(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "empty.zip")

	entries, err := ZipDir(src, dest)
	if err != nil {
		t.Fatalf("ZipDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %v", entries)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("Expected a valid empty archive: %v", err)
	}
	zr.Close()
}

func TestZipDir_MissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "x.zip")
	if _, err := ZipDir(filepath.Join(t.TempDir(), "nope"), dest); err == nil {
		t.Fatal("Expected error for missing source")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("Expected no archive to be created")
	}
}
