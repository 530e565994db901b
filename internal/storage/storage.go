package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
)

// Package storage persists the dedup ledger and agenda records.

// Store is the durable ledger of processed download URLs together with the
// append-only agenda records keyed by (council, dedup key).
type Store interface {
	Close() error

	// Contains reports whether key has been recorded in the ledger.
	Contains(ctx context.Context, key string) (bool, error)
	// Add records key in the ledger. Adding an existing key is a no-op.
	Add(ctx context.Context, key string) error
	// Exists is Contains under the record store's name.
	Exists(ctx context.Context, key string) (bool, error)
	// Insert writes rec and its ledger key in one transaction. It returns
	// false without writing anything when the key is already recorded.
	Insert(ctx context.Context, rec domain.AgendaRecord) (bool, error)
	// Get loads the record stored for (council, key).
	Get(ctx context.Context, council, key string) (domain.AgendaRecord, bool, error)
	// List returns the council's records, oldest first.
	List(ctx context.Context, council string) ([]domain.AgendaRecord, error)
}

// Options controls backend behaviour.
type Options struct {
	OpenTimeout time.Duration
}

const (
	TypeBBolt  = "bbolt"
	TypeSQLite = "sqlite"
	TypeMemory = "memory"

	defaultOpenTimeout = time.Second
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case TypeMemory:
		return newMemoryStore(), nil
	case "", TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	case TypeSQLite:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return openSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	return opts
}

// prepare validates rec and fills the id and creation time.
func prepare(rec domain.AgendaRecord) (domain.AgendaRecord, error) {
	if rec.DedupKey == "" {
		if len(rec.DownloadURLs) == 0 {
			return rec, fmt.Errorf("record for %q has no dedup key", rec.Council)
		}
		rec.DedupKey = rec.DownloadURLs[0]
	}
	if strings.TrimSpace(rec.Council) == "" {
		return rec, fmt.Errorf("record for %q has no council", rec.DedupKey)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}
	return rec, nil
}

func councilKey(name string) string {
	return domain.Council{Name: name}.Key()
}
