package scrapers

import (
	"context"
	"errors"
	"testing"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/browser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/httpclient"
)

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte           { return r.body }
func (r mockResponse) StatusCode() int        { return r.statusCode }
func (r mockResponse) Header(_ string) string { return "" }

// mockHTTPClient serves canned bodies by URL and records request headers.
type mockHTTPClient struct {
	t      *testing.T
	bodies map[string]string
	status int
	seen   map[string]map[string]string
}

func (m *mockHTTPClient) Get(_ context.Context, url string, headers map[string]string, _ ...httpclient.RequestOption) (httpclient.Response, error) {
	if m.seen == nil {
		m.seen = map[string]map[string]string{}
	}
	m.seen[url] = headers
	body, ok := m.bodies[url]
	if !ok {
		m.t.Fatalf("unexpected url %q", url)
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(body), statusCode: status}, nil
}

type mockRenderer struct {
	pages map[string]browser.Page
	err   error
}

func (m *mockRenderer) Render(_ context.Context, url, _ string) (browser.Page, error) {
	if m.err != nil {
		return browser.Page{}, m.err
	}
	p, ok := m.pages[url]
	if !ok {
		return browser.Page{}, errors.New("no page for " + url)
	}
	return p, nil
}

type stubScraper struct {
	council domain.Council
	rec     *domain.ResultRecord
	err     error
}

func (s stubScraper) Council() domain.Council { return s.council }
func (s stubScraper) Scrape(context.Context) (*domain.ResultRecord, error) {
	return s.rec, s.err
}

type logEntry struct {
	level, msg string
	obj        interface{}
}

// recordingLogger keeps every entry for assertions.
type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, obj interface{}) {
	l.entries = append(l.entries, logEntry{level: level, msg: msg, obj: obj})
}

func (l *recordingLogger) InfoObj(msg, _ string, obj interface{})  { l.add("info", msg, obj) }
func (l *recordingLogger) DebugObj(msg, _ string, obj interface{}) { l.add("debug", msg, obj) }
func (l *recordingLogger) WarnObj(msg, _ string, obj interface{})  { l.add("warn", msg, obj) }
func (l *recordingLogger) ErrorObj(msg, _ string, obj interface{}) { l.add("error", msg, obj) }

func (l *recordingLogger) find(msg string) (logEntry, bool) {
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}
