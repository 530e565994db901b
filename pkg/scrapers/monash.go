package scrapers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/parser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/browser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/httpclient"
)

const (
	monashAgendasPath  = "/About-Us/Council/Council-Meetings/Agendas-Minutes"
	monashSchedulePath = "/About-Us/Council/Council-Meetings/Council-Meetings-Schedule"
	monashRendererPath = "/OCServiceHandler.axd?url=ocsvc/Public/meetings/documentrenderer&keywords="
	monashAgendaPrefix = "Agenda of the Meeting of Monash Council held on "
	monashSessionCk    = "incap_ses_"
	monashListSelector = "div.minutes-list-container"
	monashBotCheckText = "Request unsuccessful. Incapsula incident ID"
	cacheBusterLayout  = "2006-01-02T15:04:05.000Z"
)

var monashDatePattern = regexp.MustCompile(`\b\d{1,2}\s(?:January|February|March|April|May|June|July|August|September|October|November|December)\s\d{4}\b`)

// monashScraper handles the Monash site: the agendas page sits behind an
// Incapsula check and only links to a document renderer endpoint that
// returns the meeting documents as an HTML fragment inside JSON.
type monashScraper struct {
	council domain.Council
	headers map[string]string
	client  HTTPClient
	browser Renderer
	log     logger.Logger
	now     func() time.Time
}

// NewMonashScraper builds the Monash scraper. It needs both a browser (for
// the session cookie) and an HTTP client (for the renderer endpoint).
func NewMonashScraper(e Entry, deps Deps) (Scraper, error) {
	deps = deps.withDefaults()
	if deps.Browser == nil {
		return nil, fmt.Errorf("council %q needs a browser renderer", e.Name)
	}
	return &monashScraper{
		council: e.Council(),
		headers: Headers(e),
		client:  deps.Client,
		browser: deps.Browser,
		log:     logger.Ensure(deps.Log),
		now:     deps.Now,
	}, nil
}

func (m *monashScraper) Council() domain.Council { return m.council }

func (m *monashScraper) Scrape(ctx context.Context) (*domain.ResultRecord, error) {
	m.logSchedule(ctx)

	listURL := m.council.BaseURL + monashAgendasPath
	page, err := m.browser.Render(ctx, listURL, "body")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse monash agendas page: %w", err)
	}
	container := doc.Find(monashListSelector).First()
	if container.Length() == 0 {
		if strings.Contains(doc.Find("iframe").Text(), monashBotCheckText) {
			return nil, fmt.Errorf("monash agendas page blocked by bot check: %w", domain.ErrNothingFound)
		}
		return nil, fmt.Errorf("monash agendas list not found: %w", domain.ErrNothingFound)
	}
	if container.Find("article").Length() == 0 {
		return nil, fmt.Errorf("monash agendas list has no article: %w", domain.ErrNothingFound)
	}
	cvid, ok := container.Find("a[data-cvid]").First().Attr("data-cvid")
	if !ok || strings.TrimSpace(cvid) == "" {
		return nil, fmt.Errorf("monash agendas list has no cvid: %w", domain.ErrNothingFound)
	}

	fragment, err := m.fetchDocuments(ctx, listURL, strings.TrimSpace(cvid), page)
	if err != nil {
		return nil, err
	}

	rec, err := parseMonashDocuments(m.council.BaseURL, fragment)
	if err != nil {
		return nil, err
	}
	m.log.InfoObj("monash documents parsed", "scraper_result", map[string]any{
		"council": m.council.Name,
		"titles":  rec.Titles,
		"date":    rec.Date,
		"time":    rec.Time,
		"links":   len(rec.DownloadURLs),
	})
	return rec, nil
}

// monashSchedule is the next meeting announced on the schedule page.
type monashSchedule struct {
	NextMeeting     string
	AgendaAvailable string
}

// logSchedule reports when the next agenda is due. It never fails the scrape.
func (m *monashScraper) logSchedule(ctx context.Context) {
	scheduleURL := m.council.BaseURL + monashSchedulePath
	page, err := m.browser.Render(ctx, scheduleURL, "body")
	if err != nil {
		m.log.DebugObj("monash schedule page unavailable", "scraper_schedule", map[string]any{
			"council": m.council.Name,
			"url":     scheduleURL,
			"error":   err.Error(),
		})
		return
	}
	sched, ok := parseMonashSchedule(page.HTML)
	if !ok {
		m.log.DebugObj("monash schedule not found", "scraper_schedule", map[string]any{
			"council":   m.council.Name,
			"url":       scheduleURL,
			"bot_check": strings.Contains(page.HTML, monashBotCheckText),
		})
		return
	}
	m.log.InfoObj("monash next meeting", "scraper_schedule", map[string]any{
		"council":          m.council.Name,
		"next_meeting":     sched.NextMeeting,
		"agenda_available": sched.AgendaAvailable,
	})
}

// parseMonashSchedule reads the two paragraphs after the page title: the
// first holds the meeting date, the second when its agenda is published,
// each in a <strong>.
func parseMonashSchedule(html string) (monashSchedule, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return monashSchedule{}, false
	}
	// Walk in document order so paragraphs nested in a sibling container count.
	var strongs []string
	seenTitle := false
	doc.Find("h1.oc-page-title, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Is("h1") {
			seenTitle = true
			return true
		}
		if seenTitle {
			strongs = append(strongs, collapseSpace(sel.Find("strong").First().Text()))
		}
		return len(strongs) < 2
	})
	if len(strongs) == 0 || strongs[0] == "" {
		return monashSchedule{}, false
	}
	sched := monashSchedule{NextMeeting: strongs[0]}
	if len(strongs) > 1 {
		sched.AgendaAvailable = strongs[1]
	}
	return sched, true
}

// fetchDocuments calls the renderer endpoint with the session cookie the
// browser obtained and returns the HTML fragment.
func (m *monashScraper) fetchDocuments(ctx context.Context, referer, cvid string, page browser.Page) (string, error) {
	if _, ok := page.CookieWithPrefix(monashSessionCk); !ok {
		m.log.WarnObj("monash session cookie missing", "scraper_warning", map[string]any{
			"council": m.council.Name,
			"cookies": len(page.Cookies),
		})
	}

	endpoint := m.council.BaseURL + monashRendererPath +
		"&cvid=" + url.QueryEscape(cvid) +
		"&cachebuster=" + url.QueryEscape(m.now().UTC().Format(cacheBusterLayout))

	headers := map[string]string{
		"Accept":          "application/json, text/javascript, */*; q=0.01",
		"Accept-Language": "en-US,en;q=0.8",
		"Referer":         referer,
	}
	for k, v := range m.headers {
		headers[k] = v
	}
	if ck := page.CookieHeader(); ck != "" {
		headers["Cookie"] = ck
	}

	resp, err := m.client.Get(ctx, endpoint, headers)
	if err != nil {
		return "", fmt.Errorf("fetch monash documents: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("monash documents returned status %d body: %s", resp.StatusCode(), httpclient.Snippet(resp.Body()))
	}

	var payload struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("decode monash documents: %w", err)
	}
	return payload.HTML, nil
}

func parseMonashDocuments(baseURL, fragment string) (*domain.ResultRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(fragment)))
	if err != nil {
		return nil, fmt.Errorf("parse monash documents: %w", err)
	}

	rec := &domain.ResultRecord{WebpageURL: baseURL}
	doc.Find(".meeting-document-title").Each(func(_ int, sel *goquery.Selection) {
		if t := collapseSpace(sel.Text()); t != "" {
			rec.Titles = append(rec.Titles, t)
		}
	})
	doc.Find(".alt-formats").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Find("a").First().Attr("href")
		if !ok {
			return
		}
		if link := resolveURL(href, baseURL+"/"); link != "" {
			rec.DownloadURLs = appendUnique(rec.DownloadURLs, link)
		}
	})
	if len(rec.DownloadURLs) == 0 {
		return nil, fmt.Errorf("monash documents contain no links: %w", domain.ErrNothingFound)
	}

	line := collapseSpace(meetingLine(doc))
	held := strings.TrimPrefix(line, monashAgendaPrefix)
	if i := strings.Index(held, ","); i >= 0 {
		held = held[:i]
	}
	rec.Date = monashDatePattern.FindString(held)
	rec.Time = parser.Regex{}.Parse(line, []parser.Field{{Name: "time", Pattern: parser.TimePattern}})["time"]
	return rec, nil
}

// meetingLine returns the first paragraph after the meeting container,
// which reads "Agenda of the Meeting of Monash Council held on <date>, from <time>."
func meetingLine(doc *goquery.Document) string {
	container := doc.Find(".meeting-container").First()
	if container.Length() == 0 {
		return ""
	}
	if p := container.Find("p").First(); p.Length() > 0 {
		return p.Text()
	}
	return container.NextAllFiltered("p").First().Text()
}
