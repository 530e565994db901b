// Package workspace manages the per-council working artifacts: the latest raw
// document and its extracted text.
package workspace

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	latestSuffix = "_latest"
	textExt      = ".txt"
)

// Dir writes artifacts into a single directory, one pair per council.
type Dir struct {
	root string
}

// New creates root if needed.
func New(root string) (*Dir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("workspace directory is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the workspace directory.
func (d *Dir) Root() string { return d.root }

// WriteDocument stores the raw document as <council>_latest.<ext>, replacing
// the previous run's file.
func (d *Dir) WriteDocument(council string, data []byte) (string, error) {
	path := filepath.Join(d.root, baseName(council)+documentExt(data))
	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("write document artifact: %w", err)
	}
	return path, nil
}

// WriteText stores the extracted text as <council>_latest.txt.
func (d *Dir) WriteText(council, text string) (string, error) {
	path := d.TextPath(council)
	if err := writeAtomic(path, []byte(text)); err != nil {
		return "", fmt.Errorf("write text artifact: %w", err)
	}
	return path, nil
}

// TextPath returns where the council's extracted text lives.
func (d *Dir) TextPath(council string) string {
	return filepath.Join(d.root, baseName(council)+textExt)
}

// Remove deletes every artifact for the council. Missing files are not an error.
func (d *Dir) Remove(council string) error {
	matches, err := filepath.Glob(filepath.Join(d.root, baseName(council)+".*"))
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	var errs []error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// baseName maps the council's registry key to a file name prefix. Bytes
// outside [a-z0-9-] are written as _xx, so distinct keys ("glen eira",
// "glen_eira") never share artifacts.
func baseName(council string) string {
	key := strings.ToLower(strings.TrimSpace(council))
	if key == "" {
		return "_" + latestSuffix
	}
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String() + latestSuffix
}

func documentExt(data []byte) string {
	ct := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(ct, "application/pdf"):
		return ".pdf"
	case strings.HasPrefix(ct, "text/html"):
		return ".html"
	case strings.HasPrefix(ct, "text/plain"):
		return ".doc.txt"
	default:
		return ".bin"
	}
}

// writeAtomic writes via a temp file so a crash never leaves a half-written artifact.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
