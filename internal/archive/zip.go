// Package archive packs a crawl output directory into a zip file.
package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

// ZipDir writes every regular file below src into a new zip archive at dest.
// Entry names are relative to src and use forward slashes. The returned
// slice lists the entries in the order they were written.
func ZipDir(src, dest string) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", src)
	}

	var files []string
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", src, err)
	}
	sort.Strings(files)

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	entries, err := writeEntries(out, src, files)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close archive: %w", cerr)
	}
	if err != nil {
		os.Remove(dest)
		return nil, err
	}

	log.Debug().
		Str("archive", dest).
		Int("entries", len(entries)).
		Msg("Archive written")

	return entries, nil
}

func writeEntries(w io.Writer, root string, files []string) ([]string, error) {
	zw := zip.NewWriter(w)
	entries := make([]string, 0, len(files))

	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			zw.Close()
			return nil, err
		}
		name := filepath.ToSlash(rel)
		if err := addFile(zw, path, name); err != nil {
			zw.Close()
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
		entries = append(entries, name)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return entries, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
