package scrapers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	monashBase      = "https://www.monash.vic.gov.au"
	monashListPage  = `<html><body><div class="minutes-list-container"><article><a href="#" data-cvid="d90947c9-1626">Council Meeting</a></article></div></body></html>`
	monashFragment  = `<div class="meeting-container"><h3>Council Meeting</h3></div><p>Agenda of the Meeting of Monash Council held on Tuesday 30 January 2024, from 7pm.</p><div class="meeting-document-title"> 7.1.1. Town Planning Schedule Report </div><div class="alt-formats"><a href="/files/7.1.1.pdf">PDF</a></div><div class="meeting-document-title">7.1.2. 319-321 Springvale Road</div><div class="alt-formats"><a href="/files/7.1.2.pdf">PDF</a><a href="/files/7.1.2.docx">DOCX</a></div>`
	monashCachebust = "2024-02-07T05%3A28%3A43.655Z"
)

func monashEndpoint() string {
	return monashBase + monashRendererPath + "&cvid=d90947c9-1626&cachebuster=" + monashCachebust
}

func newTestMonash(t *testing.T, page browser.Page, fragment string) (*monashScraper, *mockHTTPClient) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"html": fragment})
	require.NoError(t, err)

	client := &mockHTTPClient{t: t, bodies: map[string]string{monashEndpoint(): string(payload)}}
	renderer := &mockRenderer{pages: map[string]browser.Page{monashBase + monashAgendasPath: page}}

	s, err := NewMonashScraper(Entry{Name: "monash", Region: "VIC", BaseURL: monashBase, Type: TypeMonash}, Deps{
		Client:  client,
		Browser: renderer,
		Now: func() time.Time {
			return time.Date(2024, 2, 7, 5, 28, 43, 655_000_000, time.UTC)
		},
	})
	require.NoError(t, err)
	return s.(*monashScraper), client
}

func TestMonashScraperUsesSessionCookie(t *testing.T) {
	page := browser.Page{
		HTML:    monashListPage,
		Cookies: []browser.Cookie{{Name: "incap_ses_413_2508499", Value: "abc"}},
	}
	s, client := newTestMonash(t, page, monashFragment)

	rec, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.monash.vic.gov.au/files/7.1.1.pdf",
		"https://www.monash.vic.gov.au/files/7.1.2.pdf",
	}, rec.DownloadURLs)
	assert.Equal(t, []string{"7.1.1. Town Planning Schedule Report", "7.1.2. 319-321 Springvale Road"}, rec.Titles)
	assert.Equal(t, "30 January 2024", rec.Date)
	assert.Equal(t, "7pm", rec.Time)
	assert.Equal(t, monashBase, rec.WebpageURL)

	headers := client.seen[monashEndpoint()]
	assert.Equal(t, "incap_ses_413_2508499=abc", headers["Cookie"])
	assert.True(t, strings.HasSuffix(headers["Referer"], monashAgendasPath))
}

func TestMonashScraperBotCheckIsSoftFailure(t *testing.T) {
	page := browser.Page{HTML: `<body><iframe id="main-iframe">Request unsuccessful. Incapsula incident ID: 1-2</iframe></body>`}
	s, _ := newTestMonash(t, page, monashFragment)

	_, err := s.Scrape(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNothingFound))
	assert.Contains(t, err.Error(), "bot check")
}

func TestMonashScraperMissingCvid(t *testing.T) {
	page := browser.Page{HTML: `<div class="minutes-list-container"><article><a href="#">x</a></article></div>`}
	s, _ := newTestMonash(t, page, monashFragment)

	_, err := s.Scrape(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNothingFound), "got %v", err)
}

func TestMonashScraperRenderErrorIsFault(t *testing.T) {
	s, _ := newTestMonash(t, browser.Page{}, monashFragment)
	s.browser = &mockRenderer{err: errors.New("chrome not found")}

	_, err := s.Scrape(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNothingFound))
}

func TestParseMonashDocumentsWithoutLinks(t *testing.T) {
	_, err := parseMonashDocuments(monashBase, `<div class="meeting-document-title">Only a title</div>`)
	assert.True(t, errors.Is(err, domain.ErrNothingFound))
}

func TestParseMonashDocumentsDateInsideContainer(t *testing.T) {
	rec, err := parseMonashDocuments(monashBase, `<div class="meeting-container"><p>Agenda of the Meeting of Monash Council held on Monday 5 February 2024, from 6:30 pm.</p></div><div class="alt-formats"><a href="/a.pdf">PDF</a></div>`)
	require.NoError(t, err)
	assert.Equal(t, "5 February 2024", rec.Date)
	assert.Equal(t, "6:30 pm", rec.Time)
	assert.Equal(t, "https://www.monash.vic.gov.au/a.pdf", rec.DedupKey())
}

const monashSchedulePage = `<html><body><div class="page-header"><h1 class="oc-page-title">Council Meetings Schedule</h1></div>
<div class="content"><p>The next Council Meeting will be held on <strong>Tuesday 27 February 2024</strong> at 7pm.</p>
<p>The agenda will be available after <strong>Friday 23 February 2024</strong>.</p></div></body></html>`

func TestMonashScraperLogsNextMeeting(t *testing.T) {
	page := browser.Page{HTML: monashListPage}
	s, _ := newTestMonash(t, page, monashFragment)
	log := &recordingLogger{}
	s.log = log
	s.browser = &mockRenderer{pages: map[string]browser.Page{
		monashBase + monashAgendasPath:  page,
		monashBase + monashSchedulePath: {HTML: monashSchedulePage},
	}}

	rec, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Len(t, rec.DownloadURLs, 2)

	entry, ok := log.find("monash next meeting")
	require.True(t, ok, "entries: %v", log.entries)
	assert.Equal(t, "info", entry.level)
	fields := entry.obj.(map[string]any)
	assert.Equal(t, "Tuesday 27 February 2024", fields["next_meeting"])
	assert.Equal(t, "Friday 23 February 2024", fields["agenda_available"])
}

func TestMonashScheduleFailuresDoNotFailScrape(t *testing.T) {
	blocked := browser.Page{HTML: `<body><iframe id="main-iframe">Request unsuccessful. Incapsula incident ID: 1-2</iframe></body>`}
	for name, pages := range map[string]map[string]browser.Page{
		"bot check": {
			monashBase + monashAgendasPath:  {HTML: monashListPage},
			monashBase + monashSchedulePath: blocked,
		},
		"render error": {
			monashBase + monashAgendasPath: {HTML: monashListPage},
		},
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestMonash(t, browser.Page{HTML: monashListPage}, monashFragment)
			log := &recordingLogger{}
			s.log = log
			s.browser = &mockRenderer{pages: pages}

			rec, err := s.Scrape(context.Background())
			require.NoError(t, err)
			assert.False(t, rec.Empty())
			_, ok := log.find("monash next meeting")
			assert.False(t, ok)
			for _, e := range log.entries {
				assert.NotEqual(t, "error", e.level, e.msg)
			}
		})
	}
}

func TestParseMonashScheduleWithoutTitle(t *testing.T) {
	_, ok := parseMonashSchedule(`<p><strong>Tuesday 27 February 2024</strong></p>`)
	assert.False(t, ok)

	sched, ok := parseMonashSchedule(`<h1 class="oc-page-title">Schedule</h1><p><strong> Monday 4 March 2024 </strong></p>`)
	require.True(t, ok)
	assert.Equal(t, "Monday 4 March 2024", sched.NextMeeting)
	assert.Empty(t, sched.AgendaAvailable)
}
