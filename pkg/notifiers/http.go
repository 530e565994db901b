package notifiers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/httpclient"
)

// Webhook headers describing the agenda, so receivers can route without
// decoding the body.
const (
	headerCouncil        = "X-Agenda-Council"
	headerMeetingDate    = "X-Agenda-Meeting-Date"
	headerIdempotencyKey = "Idempotency-Key"
)

// httpSink posts the message as JSON to a webhook.
type httpSink struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
}

func newHTTPSink(_ context.Context, cfg SinkConfig, _ logger.Logger) (Sink, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("notifier %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second, "")

	return &httpSink{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  client,
	}, nil
}

func (h *httpSink) ID() string   { return h.id }
func (h *httpSink) Type() string { return TypeHTTP }

// Deliver posts msg. The idempotency key is derived from the agenda document,
// so a receiver sees the same key if a run is repeated.
func (h *httpSink) Deliver(ctx context.Context, msg Message) error {
	req := h.client.R().
		SetContext(ctx).
		SetBody(msg)

	if len(h.headers) > 0 {
		req.SetHeaders(h.headers)
	}
	req.SetHeader("Content-Type", "application/json")
	if msg.Council != "" {
		req.SetHeader(headerCouncil, msg.Council)
	}
	if msg.MeetingDate != "" {
		req.SetHeader(headerMeetingDate, msg.MeetingDate)
	}
	if msg.DocumentURL != "" {
		req.SetHeader(headerIdempotencyKey, dedupID(msg, nil))
	}

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s: status %d: %s", h.id, resp.StatusCode(), httpclient.Snippet(resp.Body()))
	}
	return nil
}
