// Package tablestore is a partition/row keyed entity store with optimistic
// versioning. Every write issues a fresh ETag; Update only succeeds when the
// caller presents the ETag it last read.
package tablestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("entity not found")
	ErrEntityExists    = errors.New("entity already exists")
	ErrVersionConflict = errors.New("entity version conflict")
)

// Entity is a single stored row. Properties hold plain scalar values; numbers
// read back from a store are json.Number, so callers decode tolerantly.
type Entity struct {
	PartitionKey string
	RowKey       string
	Properties   map[string]any
	ETag         string
	Timestamp    time.Time
}

type Store interface {
	Get(ctx context.Context, table, partitionKey, rowKey string) (*Entity, error)
	// Insert fails with ErrEntityExists when the key is taken.
	Insert(ctx context.Context, table string, e *Entity) error
	// Upsert writes unconditionally.
	Upsert(ctx context.Context, table string, e *Entity) error
	// Update fails with ErrVersionConflict when the stored ETag differs from etag.
	Update(ctx context.Context, table string, e *Entity, etag string) error
	QueryPartition(ctx context.Context, table, partitionKey string) ([]*Entity, error)
	Ping(ctx context.Context) error
}

func newETag() string {
	return uuid.NewString()
}

func encodeProperties(props map[string]any) ([]byte, error) {
	if props == nil {
		props = map[string]any{}
	}
	return json.Marshal(props)
}

func decodeProperties(raw []byte) (map[string]any, error) {
	props := map[string]any{}
	if len(raw) == 0 {
		return props, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&props); err != nil {
		return nil, err
	}
	return props, nil
}

func validateKey(e *Entity) error {
	if e == nil || e.PartitionKey == "" || e.RowKey == "" {
		return errors.New("tablestore: partition key and row key are required")
	}
	return nil
}
