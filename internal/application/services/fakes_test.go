package services

import (
	"context"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"localdrop/internal/domain/media"
)

// memStore is an in-memory media.BlobStore. PutFunc and ListFunc, when set,
// replace the default behaviour.
type memStore struct {
	mu    sync.Mutex
	recs  map[string]media.FileRecord
	clock int64

	PutFunc  func(ctx context.Context, blob media.Blob) (*media.FileRecord, error)
	ListFunc func(ctx context.Context) (media.Snapshot, error)
}

func newMemStore() *memStore {
	return &memStore{recs: map[string]media.FileRecord{}, clock: 1_700_000_000_000}
}

func (m *memStore) Put(ctx context.Context, blob media.Blob) (*media.FileRecord, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, blob)
	}
	return m.put(blob)
}

func (m *memStore) put(blob media.Blob) (*media.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recs[blob.Identifier]; ok {
		return nil, &media.StorageError{Op: "put", Identifier: blob.Identifier, Err: media.ErrAlreadyExists}
	}
	m.clock++
	rec := media.FileRecord{
		Identifier:      blob.Identifier,
		DisplayName:     blob.DisplayName,
		Kind:            media.KindOf(blob.Identifier),
		SizeBytes:       int64(len(blob.Content)),
		CreatedAtMillis: m.clock,
	}
	m.recs[blob.Identifier] = rec
	return &rec, nil
}

func (m *memStore) List(ctx context.Context) (media.Snapshot, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.list(), nil
}

func (m *memStore) list() media.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := make(media.Snapshot, 0, len(m.recs))
	for _, r := range m.recs {
		snap = append(snap, r)
	}
	sort.Slice(snap, func(i, j int) bool { return snap[i].CreatedAtMillis > snap[j].CreatedAtMillis })
	return snap
}

func (m *memStore) has(identifier string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recs[identifier]
	return ok
}

func newTestCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_counters"}, []string{"result"})
}

func newTestGauge() prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_sessions"})
}
