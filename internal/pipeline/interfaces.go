package pipeline

import (
	"context"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/parser"
)

// Fetcher downloads a document.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Extractor turns raw document bytes into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// Parser applies named patterns to text. Every field is present in the
// result, empty when its pattern did not match.
type Parser interface {
	Parse(text string, fields []parser.Field) map[string]string
}

// Notifier delivers the agenda summary to a subscriber. rec is the agenda
// the summary describes, so sinks can route or tag by council.
type Notifier interface {
	Notify(ctx context.Context, recipient string, rec domain.AgendaRecord, subject, body string) error
}

// RecordStore persists agenda records. Insert reports false, without
// writing, when the record's dedup key is already recorded.
type RecordStore interface {
	Insert(ctx context.Context, rec domain.AgendaRecord) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Ledger is the durable set of processed dedup keys.
type Ledger interface {
	Contains(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string) error
}

// Workspace owns the per-council working files.
type Workspace interface {
	WriteDocument(council string, data []byte) (string, error)
	WriteText(council, text string) (string, error)
	Remove(council string) error
}
