package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/httpclient"
)

// FetchError describes a failed document download.
type FetchError struct {
	URI    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URI, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher downloads agenda documents over HTTP.
type HTTPFetcher struct {
	client   httpclient.Client
	maxBytes int64
	headers  map[string]string
}

// NewHTTPFetcher builds a fetcher; maxBytes <= 0 disables the size limit.
func NewHTTPFetcher(client httpclient.Client, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		client:   client,
		maxBytes: maxBytes,
		headers: map[string]string{
			"Accept": "application/pdf,text/html;q=0.9,*/*;q=0.8",
		},
	}
}

// Fetch returns the raw document body for uri.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, &FetchError{URI: uri, Err: fmt.Errorf("empty uri")}
	}

	var opts []httpclient.RequestOption
	if f.maxBytes > 0 {
		opts = append(opts, httpclient.WithBodyLimit(f.maxBytes))
	}
	resp, err := f.client.Get(ctx, uri, f.headers, opts...)
	if err != nil {
		if errors.Is(err, httpclient.ErrBodyTooLarge) {
			return nil, &FetchError{URI: uri, Err: fmt.Errorf("document exceeds limit %d: %w", f.maxBytes, err)}
		}
		return nil, &FetchError{URI: uri, Err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{
			URI:    uri,
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("unexpected response: %s", httpclient.Snippet(body)),
		}
	}
	if len(body) == 0 {
		return nil, &FetchError{URI: uri, Status: resp.StatusCode(), Err: fmt.Errorf("empty body")}
	}
	// Clients that ignore the body limit are still held to it here.
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, &FetchError{
			URI:    uri,
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("document is %d bytes, limit %d", len(body), f.maxBytes),
		}
	}
	return body, nil
}
