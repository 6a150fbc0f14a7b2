// Package backup writes the panel's tar.gz backup archives.
package backup

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Entry is one file inside a backup archive.
type Entry struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// WriteArchive writes entries into a tar.gz at path and returns the archive
// size. Content goes to a temp file first so the archive appears whole.
func WriteArchive(path string, entries []Entry) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create backup directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	gz := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gz)
	for _, entry := range entries {
		modTime := entry.ModTime
		if modTime.IsZero() {
			modTime = time.Now()
		}
		hdr := &tar.Header{
			Name:    entry.Name,
			Mode:    0o644,
			Size:    int64(len(entry.Data)),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return 0, fmt.Errorf("failed to write tar header for %s: %w", entry.Name, err)
		}
		if _, err := tw.Write(entry.Data); err != nil {
			return 0, fmt.Errorf("failed to write tar entry %s: %w", entry.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return 0, err
	}
	if err := gz.Close(); err != nil {
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}

	info, err := os.Stat(tmp.Name())
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to move archive into place: %w", err)
	}
	return info.Size(), nil
}

// ReadArchive returns all entries of an archive.
func ReadArchive(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	var entries []Entry
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar stream: %w", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read tar entry %s: %w", hdr.Name, err)
		}
		entries = append(entries, Entry{Name: hdr.Name, Data: data, ModTime: hdr.ModTime})
	}
}
