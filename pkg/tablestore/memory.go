package tablestore

import (
	"context"
	"sync"
	"time"
)

type memoryRow struct {
	properties []byte
	etag       string
	timestamp  time.Time
}

// MemoryStore keeps entities in process. Properties go through the same JSON
// encoding as the persistent stores, so reads look identical.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]memoryRow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: map[string]map[string]map[string]memoryRow{}}
}

func (m *MemoryStore) partition(table, pk string, create bool) map[string]memoryRow {
	t, ok := m.tables[table]
	if !ok {
		if !create {
			return nil
		}
		t = map[string]map[string]memoryRow{}
		m.tables[table] = t
	}
	p, ok := t[pk]
	if !ok && create {
		p = map[string]memoryRow{}
		t[pk] = p
	}
	return p
}

func (m *MemoryStore) Get(_ context.Context, table, pk, rk string) (*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.partition(table, pk, false)[rk]
	if !ok {
		return nil, ErrNotFound
	}
	return row.entity(pk, rk)
}

func (m *MemoryStore) Insert(_ context.Context, table string, e *Entity) error {
	if err := validateKey(e); err != nil {
		return err
	}
	raw, err := encodeProperties(e.Properties)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.partition(table, e.PartitionKey, true)
	if _, exists := p[e.RowKey]; exists {
		return ErrEntityExists
	}
	p[e.RowKey] = m.stamp(e, raw)
	return nil
}

func (m *MemoryStore) Upsert(_ context.Context, table string, e *Entity) error {
	if err := validateKey(e); err != nil {
		return err
	}
	raw, err := encodeProperties(e.Properties)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.partition(table, e.PartitionKey, true)[e.RowKey] = m.stamp(e, raw)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, table string, e *Entity, etag string) error {
	if err := validateKey(e); err != nil {
		return err
	}
	raw, err := encodeProperties(e.Properties)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.partition(table, e.PartitionKey, false)
	current, ok := p[e.RowKey]
	if !ok {
		return ErrNotFound
	}
	if current.etag != etag {
		return ErrVersionConflict
	}
	p[e.RowKey] = m.stamp(e, raw)
	return nil
}

func (m *MemoryStore) QueryPartition(_ context.Context, table, pk string) ([]*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.partition(table, pk, false)
	out := make([]*Entity, 0, len(p))
	for rk, row := range p {
		e, err := row.entity(pk, rk)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// stamp assigns a new ETag and timestamp to e and returns the row to store.
func (m *MemoryStore) stamp(e *Entity, raw []byte) memoryRow {
	e.ETag = newETag()
	e.Timestamp = time.Now().UTC()
	return memoryRow{properties: raw, etag: e.ETag, timestamp: e.Timestamp}
}

func (r memoryRow) entity(pk, rk string) (*Entity, error) {
	props, err := decodeProperties(r.properties)
	if err != nil {
		return nil, err
	}
	return &Entity{
		PartitionKey: pk,
		RowKey:       rk,
		Properties:   props,
		ETag:         r.etag,
		Timestamp:    r.timestamp,
	}, nil
}
