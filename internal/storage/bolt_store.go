package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	ledgerBucket  = "ledger"
	agendasBucket = "agendas"
	ledgerMarker  = "-"
)

// boltStore implements a Store backed by BoltDB. Ledger keys live in one
// bucket; records live in a nested bucket per council keyed by dedup key.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{ledgerBucket, agendasBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Contains(_ context.Context, key string) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, ledgerBucket)
		if err != nil {
			return err
		}
		exists = bucket.Get([]byte(key)) != nil
		return nil
	})
	return exists, err
}

func (b *boltStore) Exists(ctx context.Context, key string) (bool, error) {
	return b.Contains(ctx, key)
}

func (b *boltStore) Add(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("ledger key is empty")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, ledgerBucket)
		if err != nil {
			return err
		}
		if bucket.Get([]byte(key)) != nil {
			return nil
		}
		// Values are never empty so Get can tell a present key from a missing one.
		return bucket.Put([]byte(key), []byte(ledgerMarker))
	})
}

func (b *boltStore) Insert(_ context.Context, rec domain.AgendaRecord) (bool, error) {
	rec, err := prepare(rec)
	if err != nil {
		return false, err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}

	inserted := false
	err = b.db.Update(func(tx *bolt.Tx) error {
		ledger, err := bucketOf(tx, ledgerBucket)
		if err != nil {
			return err
		}
		key := []byte(rec.DedupKey)
		if ledger.Get(key) != nil {
			return nil
		}

		agendas, err := bucketOf(tx, agendasBucket)
		if err != nil {
			return err
		}
		council, err := agendas.CreateBucketIfNotExists([]byte(councilKey(rec.Council)))
		if err != nil {
			return fmt.Errorf("council bucket: %w", err)
		}
		if err := council.Put(key, payload); err != nil {
			return err
		}
		if err := ledger.Put(key, []byte(councilKey(rec.Council))); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

func (b *boltStore) Get(_ context.Context, council, key string) (domain.AgendaRecord, bool, error) {
	var (
		rec   domain.AgendaRecord
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		agendas, err := bucketOf(tx, agendasBucket)
		if err != nil {
			return err
		}
		cb := agendas.Bucket([]byte(councilKey(council)))
		if cb == nil {
			return nil
		}
		raw := cb.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		found = true
		return nil
	})
	return rec, found, err
}

func (b *boltStore) List(_ context.Context, council string) ([]domain.AgendaRecord, error) {
	var out []domain.AgendaRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		agendas, err := bucketOf(tx, agendasBucket)
		if err != nil {
			return err
		}
		cb := agendas.Bucket([]byte(councilKey(council)))
		if cb == nil {
			return nil
		}
		return cb.ForEach(func(_, v []byte) error {
			var rec domain.AgendaRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			out = append(out, rec)
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func bucketOf(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket missing", name)
	}
	return bucket, nil
}
