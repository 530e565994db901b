package domain

import (
	"errors"
	"strings"
	"time"
)

// Domain contains core models shared by scrapers, the pipeline and storage.

// ErrNothingFound is wrapped by scrapers when the source yielded no agenda
// (page structure changed, access blocked). It is a soft failure.
var ErrNothingFound = errors.New("no agenda found")

// Council identifies a municipality and the scraper that serves it.
type Council struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	BaseURL string `json:"base_url"`
}

// Key is the normalized registry key for the council.
func (c Council) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// ResultRecord is the normalized output of a single scrape attempt.
type ResultRecord struct {
	Titles       []string `json:"titles"`
	Date         string   `json:"date,omitempty"`
	Time         string   `json:"time,omitempty"`
	WebpageURL   string   `json:"webpage_url"`
	DownloadURLs []string `json:"download_urls"`
}

// Empty reports whether the scrape found no document to download.
func (r *ResultRecord) Empty() bool {
	return r == nil || len(r.DownloadURLs) == 0
}

// DedupKey returns the first download URL verbatim. URLs are not normalized:
// a trailing slash or reordered query string yields a different key.
func (r *ResultRecord) DedupKey() string {
	if r.Empty() {
		return ""
	}
	return r.DownloadURLs[0]
}

// AgendaRecord is the durable, append-only record of a processed agenda.
type AgendaRecord struct {
	ID           string            `json:"id"`
	Council      string            `json:"council"`
	Region       string            `json:"region"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	WebpageURL   string            `json:"webpage_url"`
	DownloadURLs []string          `json:"download_urls"`
	Titles       []string          `json:"titles,omitempty"`
	Fields       map[string]string `json:"fields"`
	DedupKey     string            `json:"dedup_key"`
	CreatedAt    time.Time         `json:"created_at"`
}
