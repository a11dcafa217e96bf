package respcache

import (
	"context"
	"time"

	"github.com/kailas-cloud/modelsearch/internal/db"
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
)

type mockSearcher struct {
	items []item.Item
	err   error
	calls int
}

func (m *mockSearcher) Search(_ context.Context, _ string, _ int) ([]item.Item, error) {
	m.calls++
	return m.items, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	deleted []string
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockKVStore) Del(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.data, key)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }
