package scrapers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
)

// Registry holds the scrapers for one process, keyed by council name and
// iterated in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []Scraper
	index map[string]Scraper
	log   logger.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		index: make(map[string]Scraper),
		log:   logger.Ensure(log),
	}
}

// Register adds s. A second scraper for the same council name is an error.
func (r *Registry) Register(s Scraper) error {
	if s == nil {
		return fmt.Errorf("register: scraper is nil")
	}
	council := s.Council()
	key := council.Key()
	if key == "" {
		return fmt.Errorf("register: council name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[key]; exists {
		return fmt.Errorf("scraper for council %q already registered", council.Name)
	}
	r.index[key] = s
	r.order = append(r.order, s)
	return nil
}

// List returns the scrapers to run. An empty allow-list selects every
// scraper; otherwise only the named councils are returned, still in
// registration order. Names that match nothing are logged and returned.
func (r *Registry) List(allow []string) (selected []Scraper, unknown []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(allow))
	for _, name := range allow {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := wanted[key]; dup {
			continue
		}
		wanted[key] = struct{}{}
		if _, ok := r.index[key]; !ok {
			unknown = append(unknown, strings.TrimSpace(name))
		}
	}

	for _, s := range r.order {
		if len(wanted) > 0 {
			if _, ok := wanted[s.Council().Key()]; !ok {
				continue
			}
		}
		selected = append(selected, s)
	}

	if len(unknown) > 0 {
		r.log.WarnObj("unknown councils requested", "registry", map[string]any{
			"unknown":   unknown,
			"available": r.namesLocked(),
		})
	}
	return selected, unknown
}

// Names returns the registered council names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	out := make([]string, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, s.Council().Name)
	}
	return out
}

// ParseAllowList splits a comma separated list of council names.
func ParseAllowList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
