package scrapers

import (
	"fmt"
	"strings"
)

// ConfigString returns the trimmed string value for key from entry.Config or a fallback.
func ConfigString(e Entry, key, fallback string) string {
	if e.Config != nil {
		if raw, ok := e.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

// ConfigInt returns the integer value for key. YAML decodes numbers as int,
// JSON as float64; both are accepted.
func ConfigInt(e Entry, key string, fallback int) int {
	if e.Config == nil {
		return fallback
	}
	switch v := e.Config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscan(strings.TrimSpace(v), &n); err == nil {
			return n
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
)

// Headers builds the common request headers from a council config (skips empty values).
func Headers(e Entry) map[string]string {
	headers := make(map[string]string, 4)

	if v := ConfigString(e, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	if v := ConfigString(e, ConfigAcceptKey, ""); v != "" {
		headers["Accept"] = v
	}
	if v := ConfigString(e, ConfigAcceptLanguageKey, ""); v != "" {
		headers["Accept-Language"] = v
	}
	if v := ConfigString(e, ConfigCacheControlKey, ""); v != "" {
		headers["Cache-Control"] = v
	}

	return headers
}
