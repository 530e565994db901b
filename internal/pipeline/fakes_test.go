package pipeline

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/parser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/storage"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/workspace"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4 fake agenda")

type fakeScraper struct {
	council  domain.Council
	rec      *domain.ResultRecord
	err      error
	panicMsg string
	patterns []parser.Field
	calls    int
}

func (f *fakeScraper) Council() domain.Council { return f.council }

func (f *fakeScraper) Scrape(context.Context) (*domain.ResultRecord, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.rec, f.err
}

type patternScraper struct {
	*fakeScraper
}

func (p patternScraper) FieldPatterns() []parser.Field { return p.patterns }

func councilA(urls ...string) *fakeScraper {
	return &fakeScraper{
		council: domain.Council{Name: "A", Region: "VIC", BaseURL: "http://x"},
		rec: &domain.ResultRecord{
			Titles:       []string{"Ordinary Meeting"},
			WebpageURL:   "http://x",
			DownloadURLs: urls,
		},
	}
}

type fakeFetcher struct {
	mu    sync.Mutex
	data  []byte
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uri)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractText(context.Context, []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type sentMessage struct {
	recipient, subject, body string
	council                  string
}

type fakeNotifier struct {
	err  error
	sent []sentMessage
}

func (f *fakeNotifier) Notify(_ context.Context, recipient string, rec domain.AgendaRecord, subject, body string) error {
	f.sent = append(f.sent, sentMessage{recipient, subject, body, rec.Council})
	return f.err
}

// countingStore wraps a real store and counts Insert calls.
type countingStore struct {
	storage.Store
	inserts   int
	insertErr error
}

func (c *countingStore) Insert(ctx context.Context, rec domain.AgendaRecord) (bool, error) {
	c.inserts++
	if c.insertErr != nil {
		return false, c.insertErr
	}
	return c.Store.Insert(ctx, rec)
}

type brokenWorkspace struct {
	*workspace.Dir
}

func (brokenWorkspace) Remove(string) error { return errors.New("disk gone") }

// textlessWorkspace never writes the text artifact, so cleanup finds it absent.
type textlessWorkspace struct {
	*workspace.Dir
}

func (w textlessWorkspace) WriteText(council, _ string) (string, error) {
	return w.TextPath(council), nil
}

type harness struct {
	fetcher   *fakeFetcher
	extractor *fakeExtractor
	notifier  *fakeNotifier
	store     *countingStore
	ws        *workspace.Dir
	deps      Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st, err := storage.NewStore(storage.TypeMemory, "", storage.Options{})
	require.NoError(t, err)
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)

	h := &harness{
		fetcher:   &fakeFetcher{data: pdfBytes},
		extractor: &fakeExtractor{text: "Agenda\n1. Item 1 Call to order\nheld on Tuesday 30 January 2024, from 7pm."},
		notifier:  &fakeNotifier{},
		store:     &countingStore{Store: st},
		ws:        ws,
	}
	h.deps = Deps{
		Fetcher:   h.fetcher,
		Extractor: h.extractor,
		Parser:    parser.Regex{},
		Notifier:  h.notifier,
		Records:   h.store,
		Ledger:    h.store,
		Workspace: ws,
	}
	return h
}

func (h *harness) orchestrator(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	o, err := New(h.deps, opts)
	require.NoError(t, err)
	return o
}

func titleField() []parser.Field {
	return []parser.Field{{Name: "title", Pattern: regexp.MustCompile(`Item \d+`)}}
}
