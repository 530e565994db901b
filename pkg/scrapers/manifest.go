package scrapers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"gopkg.in/yaml.v3"
)

// Package scrapers contains the council adapters, the manifest that declares
// them and the registry the pipeline iterates.

// Entry is one council declared in the manifest.
type Entry struct {
	Name    string            `json:"name" yaml:"name"`
	Region  string            `json:"region" yaml:"region"`
	BaseURL string            `json:"base_url" yaml:"base_url"`
	Type    string            `json:"type" yaml:"type"`
	Config  map[string]any    `json:"config" yaml:"config"`
	Fields  map[string]string `json:"fields" yaml:"fields"`
}

// Council returns the identity the built scraper reports.
func (e Entry) Council() domain.Council {
	return domain.Council{Name: e.Name, Region: e.Region, BaseURL: e.BaseURL}
}

type manifest struct {
	Councils []Entry `json:"councils" yaml:"councils"`
}

// LoadManifest reads and validates the councils manifest (YAML or JSON).
func LoadManifest(path string) ([]Entry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("councils file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open councils file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read councils file: %w", err)
	}

	return ParseManifest(raw, filepath.Ext(path))
}

// ParseManifest decodes manifest bytes; ext selects the decoder and may be empty.
func ParseManifest(data []byte, ext string) ([]Entry, error) {
	m, err := decodeManifest(data, ext)
	if err != nil {
		return nil, err
	}
	if len(m.Councils) == 0 {
		return nil, errors.New("councils file contains no councils entries")
	}

	seen := make(map[string]struct{}, len(m.Councils))
	for i := range m.Councils {
		e := sanitizeEntry(m.Councils[i])
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("council[%d]: %w", i, err)
		}
		key := e.Council().Key()
		if _, exists := seen[key]; exists {
			return nil, fmt.Errorf("duplicate council name %q", e.Name)
		}
		seen[key] = struct{}{}
		m.Councils[i] = e
	}
	return m.Councils, nil
}

func decodeManifest(data []byte, ext string) (manifest, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var m manifest
		if err := d.fn(data, &m); err == nil {
			return m, nil
		}
	}

	return manifest{}, errors.New("councils file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func sanitizeEntry(e Entry) Entry {
	e.Name = strings.TrimSpace(e.Name)
	e.Region = strings.TrimSpace(e.Region)
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))

	if e.Config == nil {
		e.Config = map[string]any{}
	}
	return e
}

func validateEntry(e Entry) error {
	if e.Name == "" {
		return errors.New("name is required")
	}
	if e.Type == "" {
		return fmt.Errorf("type is required for council %q", e.Name)
	}
	if e.BaseURL == "" {
		return fmt.Errorf("base_url is required for council %q", e.Name)
	}
	if !strings.HasPrefix(e.BaseURL, "http://") && !strings.HasPrefix(e.BaseURL, "https://") {
		return fmt.Errorf("base_url for council %q must be http(s)", e.Name)
	}
	return nil
}
