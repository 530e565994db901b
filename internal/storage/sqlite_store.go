package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"

	_ "modernc.org/sqlite"
)

const sqliteSchemaVersion = 1

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS ledger (
	dedup_key   TEXT PRIMARY KEY,
	council     TEXT NOT NULL DEFAULT '',
	recorded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS agendas (
	id            TEXT PRIMARY KEY,
	council       TEXT NOT NULL,
	council_key   TEXT NOT NULL,
	region        TEXT NOT NULL DEFAULT '',
	meeting_date  TEXT NOT NULL DEFAULT '',
	meeting_time  TEXT NOT NULL DEFAULT '',
	webpage_url   TEXT NOT NULL DEFAULT '',
	download_urls TEXT NOT NULL,
	titles        TEXT NOT NULL DEFAULT '[]',
	fields        TEXT NOT NULL DEFAULT '{}',
	dedup_key     TEXT NOT NULL UNIQUE,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS agendas_council_key ON agendas(council_key, dedup_key);
`

// sqliteStore implements Store with SQLite, matching the agendas.db layout
// earlier deployments used.
type sqliteStore struct {
	db *sql.DB
}

func openSQLite(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers; the ledger check-then-insert
	// relies on transactions, not on process-level locking.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &sqliteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) migrate() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", sqliteSchemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v != sqliteSchemaVersion:
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Contains(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger WHERE dedup_key = ?", key).Scan(&n); err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return n > 0, nil
}

func (s *sqliteStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.Contains(ctx, key)
}

func (s *sqliteStore) Add(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("ledger key is empty")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO ledger(dedup_key, council, recorded_at) VALUES(?, '', ?)",
		key, nowUTC())
	if err != nil {
		return fmt.Errorf("insert ledger key: %w", err)
	}
	return nil
}

func (s *sqliteStore) Insert(ctx context.Context, rec domain.AgendaRecord) (bool, error) {
	rec, err := prepare(rec)
	if err != nil {
		return false, err
	}
	urls, titles, fields, err := encodeColumns(rec)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO ledger(dedup_key, council, recorded_at) VALUES(?, ?, ?)",
		rec.DedupKey, councilKey(rec.Council), nowUTC())
	if err != nil {
		return false, fmt.Errorf("insert ledger key: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("ledger rows affected: %w", err)
	} else if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO agendas
		(id, council, council_key, region, meeting_date, meeting_time, webpage_url,
		 download_urls, titles, fields, dedup_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Council, councilKey(rec.Council), rec.Region, rec.Date, rec.Time, rec.WebpageURL,
		urls, titles, fields, rec.DedupKey, rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("insert agenda: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

const agendaColumns = `id, council, region, meeting_date, meeting_time, webpage_url,
	download_urls, titles, fields, dedup_key, created_at`

func (s *sqliteStore) Get(ctx context.Context, council, key string) (domain.AgendaRecord, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+agendaColumns+" FROM agendas WHERE council_key = ? AND dedup_key = ?",
		councilKey(council), key)
	rec, err := scanAgenda(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AgendaRecord{}, false, nil
	}
	if err != nil {
		return domain.AgendaRecord{}, false, err
	}
	return rec, true, nil
}

func (s *sqliteStore) List(ctx context.Context, council string) ([]domain.AgendaRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+agendaColumns+" FROM agendas WHERE council_key = ? ORDER BY created_at",
		councilKey(council))
	if err != nil {
		return nil, fmt.Errorf("query agendas: %w", err)
	}
	defer rows.Close()

	var out []domain.AgendaRecord
	for rows.Next() {
		rec, err := scanAgenda(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgenda(row rowScanner) (domain.AgendaRecord, error) {
	var (
		rec                  domain.AgendaRecord
		urls, titles, fields string
		createdAt            string
	)
	if err := row.Scan(&rec.ID, &rec.Council, &rec.Region, &rec.Date, &rec.Time, &rec.WebpageURL,
		&urls, &titles, &fields, &rec.DedupKey, &createdAt); err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(urls), &rec.DownloadURLs); err != nil {
		return rec, fmt.Errorf("decode download_urls: %w", err)
	}
	if err := json.Unmarshal([]byte(titles), &rec.Titles); err != nil {
		return rec, fmt.Errorf("decode titles: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return rec, fmt.Errorf("decode fields: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return rec, fmt.Errorf("decode created_at: %w", err)
	}
	rec.CreatedAt = ts
	return rec, nil
}

func encodeColumns(rec domain.AgendaRecord) (urls, titles, fields string, err error) {
	u, err := json.Marshal(rec.DownloadURLs)
	if err != nil {
		return "", "", "", fmt.Errorf("encode download_urls: %w", err)
	}
	t, err := json.Marshal(rec.Titles)
	if err != nil {
		return "", "", "", fmt.Errorf("encode titles: %w", err)
	}
	f, err := json.Marshal(rec.Fields)
	if err != nil {
		return "", "", "", fmt.Errorf("encode fields: %w", err)
	}
	return string(u), string(t), string(f), nil
}

// nowUTC returns the current UTC time as an RFC 3339 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
