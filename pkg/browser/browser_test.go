package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCookieWithPrefix(t *testing.T) {
	page := Page{Cookies: []Cookie{
		{Name: "visid_incap_1", Value: "v"},
		{Name: "incap_ses_123_456", Value: "session"},
	}}

	c, ok := page.CookieWithPrefix("incap_ses_")
	assert.True(t, ok)
	assert.Equal(t, "session", c.Value)

	_, ok = page.CookieWithPrefix("missing")
	assert.False(t, ok)
}

func TestPageCookieHeader(t *testing.T) {
	page := Page{Cookies: []Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}}
	assert.Equal(t, "a=1; b=2", page.CookieHeader())
	assert.Equal(t, "", Page{}.CookieHeader())
}

func TestNewChromeDefaultsTimeout(t *testing.T) {
	c := NewChrome(Options{Headless: true})
	assert.Equal(t, defaultTimeout, c.opts.Timeout)
}
