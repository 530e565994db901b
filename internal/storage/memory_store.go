package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
)

// memoryStore keeps everything in process. It is not durable and exists for
// trial runs against new councils and for tests.
type memoryStore struct {
	mu      sync.RWMutex
	ledger  map[string]struct{}
	records map[string]map[string]domain.AgendaRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		ledger:  make(map[string]struct{}),
		records: make(map[string]map[string]domain.AgendaRecord),
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Contains(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ledger[key]
	return ok, nil
}

func (m *memoryStore) Exists(ctx context.Context, key string) (bool, error) {
	return m.Contains(ctx, key)
}

func (m *memoryStore) Add(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("ledger key is empty")
	}
	m.mu.Lock()
	m.ledger[key] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Insert(_ context.Context, rec domain.AgendaRecord) (bool, error) {
	rec, err := prepare(rec)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ledger[rec.DedupKey]; ok {
		return false, nil
	}
	ck := councilKey(rec.Council)
	if m.records[ck] == nil {
		m.records[ck] = make(map[string]domain.AgendaRecord)
	}
	m.records[ck][rec.DedupKey] = cloneRecord(rec)
	m.ledger[rec.DedupKey] = struct{}{}
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, council, key string) (domain.AgendaRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[councilKey(council)][key]
	if !ok {
		return domain.AgendaRecord{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (m *memoryStore) List(_ context.Context, council string) ([]domain.AgendaRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.AgendaRecord, 0, len(m.records[councilKey(council)]))
	for _, rec := range m.records[councilKey(council)] {
		out = append(out, cloneRecord(rec))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneRecord(rec domain.AgendaRecord) domain.AgendaRecord {
	rec.DownloadURLs = append([]string(nil), rec.DownloadURLs...)
	rec.Titles = append([]string(nil), rec.Titles...)
	fields := make(map[string]string, len(rec.Fields))
	for k, v := range rec.Fields {
		fields[k] = v
	}
	rec.Fields = fields
	return rec
}
