package httpclient

import (
	"context"
	"errors"
)

// ErrBodyTooLarge is returned when a response body exceeds the limit set
// with WithBodyLimit. The body is abandoned as soon as the limit is crossed.
var ErrBodyTooLarge = errors.New("response body too large")

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header(key string) string
}

// Client abstracts HTTP calls so scrapers and the document fetcher can be
// tested against canned responses.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string, opts ...RequestOption) (Response, error)
}

// RequestOptions carries per-request settings.
type RequestOptions struct {
	// BodyLimit caps the number of body bytes read; <= 0 means unlimited.
	BodyLimit int64
}

// RequestOption tunes a single request.
type RequestOption func(*RequestOptions)

// WithBodyLimit stops reading the response once n bytes have been exceeded.
func WithBodyLimit(n int64) RequestOption {
	return func(o *RequestOptions) { o.BodyLimit = n }
}

// ApplyOptions folds opts into a RequestOptions value.
func ApplyOptions(opts ...RequestOption) RequestOptions {
	var o RequestOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
