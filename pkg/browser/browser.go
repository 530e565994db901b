// Package browser renders pages in headless Chrome for council sites that
// sit behind script-based bot protection.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Cookie is a browser cookie captured after rendering.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Page is the rendered document together with the cookies the site set.
type Page struct {
	URL     string
	HTML    string
	Cookies []Cookie
}

// CookieWithPrefix returns the first cookie whose name starts with prefix.
func (p Page) CookieWithPrefix(prefix string) (Cookie, bool) {
	for _, c := range p.Cookies {
		if strings.HasPrefix(c.Name, prefix) {
			return c, true
		}
	}
	return Cookie{}, false
}

// CookieHeader joins the cookies into a Cookie request header value.
func (p Page) CookieHeader() string {
	parts := make([]string, 0, len(p.Cookies))
	for _, c := range p.Cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Renderer loads url, waits for waitSelector (body when empty) and returns
// the resulting DOM.
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string) (Page, error)
}

// Options configures the Chrome renderer.
type Options struct {
	Headless  bool
	Timeout   time.Duration
	UserAgent string
}

const defaultTimeout = 90 * time.Second

// Chrome starts a fresh browser per Render call; sessions never leak
// between councils.
type Chrome struct {
	opts Options
}

// NewChrome builds a chromedp-backed renderer.
func NewChrome(opts Options) *Chrome {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Chrome{opts: opts}
}

func (c *Chrome) Render(ctx context.Context, url, waitSelector string) (Page, error) {
	if strings.TrimSpace(url) == "" {
		return Page{}, fmt.Errorf("render: url is empty")
	}
	if waitSelector == "" {
		waitSelector = "body"
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if c.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(c.opts.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var (
		html     string
		location string
		cookies  []*network.Cookie
	)
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return Page{}, fmt.Errorf("render %s: %w", url, err)
	}

	page := Page{URL: location, HTML: html, Cookies: make([]Cookie, 0, len(cookies))}
	for _, ck := range cookies {
		if ck == nil {
			continue
		}
		page.Cookies = append(page.Cookies, Cookie{Name: ck.Name, Value: ck.Value, Domain: ck.Domain, Path: ck.Path})
	}
	return page, nil
}
