package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
)

// backends returns a fresh store of every type for contract tests.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	out := map[string]Store{}
	for typ, path := range map[string]string{
		TypeBBolt:  filepath.Join(dir, "bolt", "agendas.db"),
		TypeSQLite: filepath.Join(dir, "sqlite", "agendas.sqlite"),
		TypeMemory: "",
	} {
		s, err := NewStore(typ, path, Options{})
		if err != nil {
			t.Fatalf("NewStore(%s): %v", typ, err)
		}
		t.Cleanup(func() { s.Close() })
		out[typ] = s
	}
	return out
}

func sampleRecord() domain.AgendaRecord {
	return domain.AgendaRecord{
		Council:      "monash",
		Region:       "VIC",
		Date:         "30 January 2024",
		Time:         "7pm",
		WebpageURL:   "https://www.monash.vic.gov.au",
		DownloadURLs: []string{"http://x/a.pdf", "http://x/b.pdf"},
		Titles:       []string{"Agenda"},
		Fields:       map[string]string{"date": "30 January 2024", "ward": ""},
		DedupKey:     "http://x/a.pdf",
		CreatedAt:    time.Date(2024, 1, 25, 9, 0, 0, 0, time.UTC),
	}
}

func TestStoreRoundTripByCouncilAndKey(t *testing.T) {
	ctx := context.Background()
	for typ, store := range backends(t) {
		t.Run(typ, func(t *testing.T) {
			rec := sampleRecord()
			inserted, err := store.Insert(ctx, rec)
			if err != nil || !inserted {
				t.Fatalf("Insert: inserted=%v err=%v", inserted, err)
			}

			got, found, err := store.Get(ctx, "Monash", "http://x/a.pdf")
			if err != nil || !found {
				t.Fatalf("Get: found=%v err=%v", found, err)
			}
			if got.ID == "" {
				t.Fatalf("expected generated id")
			}
			rec.ID = got.ID
			if diff := cmp.Diff(rec, got); diff != "" {
				t.Fatalf("record mismatch (-want +got):\n%s", diff)
			}

			ok, err := store.Contains(ctx, "http://x/a.pdf")
			if err != nil || !ok {
				t.Fatalf("expected ledger to contain key, ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStoreInsertIsIdempotentPerKey(t *testing.T) {
	ctx := context.Background()
	for typ, store := range backends(t) {
		t.Run(typ, func(t *testing.T) {
			if _, err := store.Insert(ctx, sampleRecord()); err != nil {
				t.Fatalf("first Insert: %v", err)
			}
			again := sampleRecord()
			again.Date = "changed"
			inserted, err := store.Insert(ctx, again)
			if err != nil {
				t.Fatalf("second Insert: %v", err)
			}
			if inserted {
				t.Fatalf("expected duplicate insert to be a no-op")
			}

			recs, err := store.List(ctx, "monash")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(recs) != 1 || recs[0].Date != "30 January 2024" {
				t.Fatalf("expected original single record, got %#v", recs)
			}
		})
	}
}

func TestStoreLedgerKeysAreExactStrings(t *testing.T) {
	ctx := context.Background()
	for typ, store := range backends(t) {
		t.Run(typ, func(t *testing.T) {
			if err := store.Add(ctx, "http://x/a.pdf"); err != nil {
				t.Fatalf("Add: %v", err)
			}
			if err := store.Add(ctx, "http://x/a.pdf"); err != nil {
				t.Fatalf("Add twice: %v", err)
			}
			for _, variant := range []string{"http://x/a.pdf/", "https://x/a.pdf", "HTTP://x/a.pdf"} {
				ok, err := store.Exists(ctx, variant)
				if err != nil {
					t.Fatalf("Exists(%q): %v", variant, err)
				}
				if ok {
					t.Fatalf("variant %q must not match", variant)
				}
			}
		})
	}
}

func TestStoreInsertSkipsKeysAlreadyInLedger(t *testing.T) {
	ctx := context.Background()
	for typ, store := range backends(t) {
		t.Run(typ, func(t *testing.T) {
			if err := store.Add(ctx, "http://x/a.pdf"); err != nil {
				t.Fatalf("Add: %v", err)
			}
			inserted, err := store.Insert(ctx, sampleRecord())
			if err != nil || inserted {
				t.Fatalf("expected no-op insert, inserted=%v err=%v", inserted, err)
			}
			if _, found, _ := store.Get(ctx, "monash", "http://x/a.pdf"); found {
				t.Fatalf("record must not be written for a recorded key")
			}
		})
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agendas.db")

	first, err := NewStore(TypeBBolt, path, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := first.Insert(ctx, sampleRecord()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewStore(TypeBBolt, path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	ok, err := second.Contains(ctx, "http://x/a.pdf")
	if err != nil || !ok {
		t.Fatalf("ledger lost after reopen, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreReopensExistingSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agendas.sqlite")
	for i := 0; i < 2; i++ {
		s, err := NewStore(TypeSQLite, path, Options{})
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close #%d: %v", i, err)
		}
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if _, err := NewStore(TypeBBolt, " ", Options{}); err == nil {
		t.Fatalf("expected missing path error")
	}
	if _, err := NewStore(TypeSQLite, "", Options{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestInsertRejectsRecordWithoutCouncil(t *testing.T) {
	store, _ := NewStore(TypeMemory, "", Options{})
	rec := sampleRecord()
	rec.Council = ""
	if _, err := store.Insert(context.Background(), rec); err == nil {
		t.Fatalf("expected validation error")
	}
}
