package scrapers

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/parser"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/httpclient"
)

// Deps are the shared collaborators handed to every builder.
type Deps struct {
	Client  HTTPClient
	Browser Renderer
	Log     logger.Logger
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Client == nil {
		d.Client = DefaultHTTPClient()
	}
	d.Log = logger.Ensure(d.Log)
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Builder constructs a scraper for a manifest entry.
type Builder func(e Entry, deps Deps) (Scraper, error)

const (
	TypeListing = "listing"
	TypeMonash  = "monash"
)

// Builders maps manifest types to constructors.
type Builders struct {
	mu     sync.RWMutex
	byType map[string]Builder
}

// NewBuilders returns a builder table with the given entries.
func NewBuilders(builders map[string]Builder) *Builders {
	b := &Builders{byType: make(map[string]Builder, len(builders))}
	for typ, fn := range builders {
		b.Register(typ, fn)
	}
	return b
}

// DefaultBuilders wires up the known scraper types.
func DefaultBuilders() *Builders {
	return NewBuilders(map[string]Builder{
		TypeListing: NewListingScraper,
		TypeMonash:  NewMonashScraper,
	})
}

// Register adds or replaces the builder for typ.
func (b *Builders) Register(typ string, fn Builder) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" || fn == nil {
		return
	}
	b.mu.Lock()
	b.byType[key] = fn
	b.mu.Unlock()
}

// Build selects the builder for the entry's type and applies the entry's
// field overrides to the result.
func (b *Builders) Build(e Entry, deps Deps) (Scraper, error) {
	if b == nil {
		return nil, fmt.Errorf("builder table is nil")
	}
	b.mu.RLock()
	fn, ok := b.byType[strings.ToLower(strings.TrimSpace(e.Type))]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no scraper type %q for council %q", e.Type, e.Name)
	}

	s, err := fn(e, deps.withDefaults())
	if err != nil {
		return nil, fmt.Errorf("build scraper for council %q: %w", e.Name, err)
	}
	if len(e.Fields) == 0 {
		return s, nil
	}

	fields, err := parser.Compile(e.Fields)
	if err != nil {
		return nil, fmt.Errorf("council %q fields: %w", e.Name, err)
	}
	if fp, ok := s.(FieldPatterner); ok {
		fields = parser.Merge(fp.FieldPatterns(), fields)
	}
	return &withFields{Scraper: s, fields: fields}, nil
}

// RegisterAll builds every entry and registers it. All failures are
// collected so one broken entry does not hide the others.
func RegisterAll(reg *Registry, b *Builders, entries []Entry, deps Deps) error {
	if reg == nil {
		return fmt.Errorf("registry is nil")
	}
	var errs []error
	for _, e := range entries {
		s, err := b.Build(e, deps)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reg.Register(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultHTTPClient returns a resty-backed client for scrapers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(30*time.Second, "") }

type withFields struct {
	Scraper
	fields []parser.Field
}

func (w *withFields) FieldPatterns() []parser.Field { return w.fields }
