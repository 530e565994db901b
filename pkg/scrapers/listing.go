package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/parser"
)

// Listing config keys.
const (
	ConfigPathKey          = "path"
	ConfigLinkSelectorKey  = "link_selector"
	ConfigTitleSelectorKey = "title_selector"
	ConfigDateSelectorKey  = "date_selector"
	ConfigRenderKey        = "render"
	ConfigWaitSelectorKey  = "wait_selector"
	ConfigLimitKey         = "limit"

	renderBrowser       = "browser"
	defaultLinkSelector = `a[href$=".pdf"]`
	defaultLinkLimit    = 1
)

// listingScraper serves councils that publish agendas as plain links on a
// page: the first matching links are the current agenda.
type listingScraper struct {
	council       domain.Council
	pageURL       string
	headers       map[string]string
	linkSelector  string
	titleSelector string
	dateSelector  string
	waitSelector  string
	limit         int
	useBrowser    bool

	client  HTTPClient
	browser Renderer
	log     logger.Logger
}

// NewListingScraper builds a config-driven scraper for a council agenda page.
func NewListingScraper(e Entry, deps Deps) (Scraper, error) {
	deps = deps.withDefaults()
	s := &listingScraper{
		council:       e.Council(),
		pageURL:       e.BaseURL + ConfigString(e, ConfigPathKey, ""),
		headers:       Headers(e),
		linkSelector:  ConfigString(e, ConfigLinkSelectorKey, defaultLinkSelector),
		titleSelector: ConfigString(e, ConfigTitleSelectorKey, ""),
		dateSelector:  ConfigString(e, ConfigDateSelectorKey, ""),
		waitSelector:  ConfigString(e, ConfigWaitSelectorKey, ""),
		limit:         ConfigInt(e, ConfigLimitKey, defaultLinkLimit),
		useBrowser:    strings.EqualFold(ConfigString(e, ConfigRenderKey, ""), renderBrowser),
		client:        deps.Client,
		browser:       deps.Browser,
		log:           deps.Log,
	}
	if s.useBrowser && s.browser == nil {
		return nil, fmt.Errorf("council %q needs a browser renderer", e.Name)
	}
	return s, nil
}

func (s *listingScraper) Council() domain.Council { return s.council }

func (s *listingScraper) Scrape(ctx context.Context) (*domain.ResultRecord, error) {
	html, pageURL, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", s.council.Name, err)
	}

	rec := &domain.ResultRecord{WebpageURL: pageURL}
	var linkText []string
	doc.Find(s.linkSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		link := resolveURL(href, pageURL)
		if link == "" {
			return true
		}
		before := len(rec.DownloadURLs)
		rec.DownloadURLs = appendUnique(rec.DownloadURLs, link)
		if len(rec.DownloadURLs) > before {
			linkText = append(linkText, collapseSpace(sel.Text()))
		}
		return s.limit <= 0 || len(rec.DownloadURLs) < s.limit
	})
	if len(rec.DownloadURLs) == 0 {
		return nil, fmt.Errorf("%s: no links match %q: %w", s.council.Name, s.linkSelector, domain.ErrNothingFound)
	}

	if s.titleSelector != "" {
		doc.Find(s.titleSelector).Each(func(_ int, sel *goquery.Selection) {
			if t := collapseSpace(sel.Text()); t != "" {
				rec.Titles = append(rec.Titles, t)
			}
		})
	} else {
		for _, t := range linkText {
			if t != "" {
				rec.Titles = append(rec.Titles, t)
			}
		}
	}

	dateText := strings.Join(linkText, "\n")
	if s.dateSelector != "" {
		dateText = collapseSpace(doc.Find(s.dateSelector).First().Text())
	}
	when := parser.Regex{}.Parse(dateText, parser.DefaultFields())
	rec.Date = when["date"]
	rec.Time = when["time"]

	s.log.InfoObj("listing scraped", "scraper_result", map[string]any{
		"council":   s.council.Name,
		"links":     len(rec.DownloadURLs),
		"date":      rec.Date,
		"page_url":  pageURL,
		"rendering": s.useBrowser,
	})
	return rec, nil
}

func (s *listingScraper) load(ctx context.Context) ([]byte, string, error) {
	if s.useBrowser {
		page, err := s.browser.Render(ctx, s.pageURL, s.waitSelector)
		if err != nil {
			return nil, "", err
		}
		pageURL := s.pageURL
		if page.URL != "" {
			pageURL = page.URL
		}
		return []byte(page.HTML), pageURL, nil
	}
	body, err := fetchPage(ctx, s.client, s.pageURL, s.council.Name, s.headers)
	return body, s.pageURL, err
}
