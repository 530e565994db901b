package scrapers

import (
	"context"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/parser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/browser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/httpclient"
)

// Scraper locates the current agenda for one council.
//
// Scrape returns nil, nil or an error wrapping domain.ErrNothingFound when no
// agenda could be found; any other error is treated as a fault for the run.
// Implementations keep no state between runs.
type Scraper interface {
	Council() domain.Council
	Scrape(ctx context.Context) (*domain.ResultRecord, error)
}

// FieldPatterner is implemented by scrapers that contribute council-specific
// field patterns on top of the defaults.
type FieldPatterner interface {
	FieldPatterns() []parser.Field
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within scrapers.
type HTTPClient = httpclient.Client

// Renderer aliases browser.Renderer for scrapers that need a real browser.
type Renderer = browser.Renderer
