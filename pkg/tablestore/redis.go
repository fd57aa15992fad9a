package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"
)

type redisRecord struct {
	PartitionKey string          `json:"pk"`
	RowKey       string          `json:"rk"`
	Properties   json.RawMessage `json:"props"`
	ETag         string          `json:"etag"`
	Timestamp    time.Time       `json:"ts"`
}

// RedisStore keeps one JSON document per entity plus a set of row keys per
// partition. Versioned updates run inside WATCH/MULTI.
type RedisStore struct {
	Redis *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{Redis: rdb}
}

func entityKey(table, pk, rk string) string {
	return fmt.Sprintf("ts:%s:%s:%s", table, url.PathEscape(pk), url.PathEscape(rk))
}

func partitionKey(table, pk string) string {
	return fmt.Sprintf("tsidx:%s:%s", table, url.PathEscape(pk))
}

func (s *RedisStore) Get(ctx context.Context, table, pk, rk string) (*Entity, error) {
	raw, err := s.Redis.Get(ctx, entityKey(table, pk, rk)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

func (s *RedisStore) Insert(ctx context.Context, table string, e *Entity) error {
	payload, rec, err := encodeRecord(e)
	if err != nil {
		return err
	}
	key := entityKey(table, e.PartitionKey, e.RowKey)

	err = s.Redis.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrEntityExists
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, payload, 0)
			p.SAdd(ctx, partitionKey(table, e.PartitionKey), e.RowKey)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// someone wrote the key between EXISTS and EXEC
		return ErrEntityExists
	}
	if err != nil {
		return err
	}

	e.ETag, e.Timestamp = rec.ETag, rec.Timestamp
	return nil
}

func (s *RedisStore) Upsert(ctx context.Context, table string, e *Entity) error {
	payload, rec, err := encodeRecord(e)
	if err != nil {
		return err
	}
	_, err = s.Redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, entityKey(table, e.PartitionKey, e.RowKey), payload, 0)
		p.SAdd(ctx, partitionKey(table, e.PartitionKey), e.RowKey)
		return nil
	})
	if err != nil {
		return err
	}

	e.ETag, e.Timestamp = rec.ETag, rec.Timestamp
	return nil
}

func (s *RedisStore) Update(ctx context.Context, table string, e *Entity, etag string) error {
	payload, rec, err := encodeRecord(e)
	if err != nil {
		return err
	}
	key := entityKey(table, e.PartitionKey, e.RowKey)

	err = s.Redis.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var current redisRecord
		if err := json.Unmarshal(raw, &current); err != nil {
			return err
		}
		if current.ETag != etag {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	e.ETag, e.Timestamp = rec.ETag, rec.Timestamp
	return nil
}

func (s *RedisStore) QueryPartition(ctx context.Context, table, pk string) ([]*Entity, error) {
	rowKeys, err := s.Redis.SMembers(ctx, partitionKey(table, pk)).Result()
	if err != nil {
		return nil, err
	}
	if len(rowKeys) == 0 {
		return []*Entity{}, nil
	}

	keys := make([]string, len(rowKeys))
	for i, rk := range rowKeys {
		keys[i] = entityKey(table, pk, rk)
	}

	values, err := s.Redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Entity, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// index entry without a document
			continue
		}
		e, err := decodeRecord([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Redis.Ping(ctx).Err()
}

func encodeRecord(e *Entity) ([]byte, redisRecord, error) {
	if err := validateKey(e); err != nil {
		return nil, redisRecord{}, err
	}
	props, err := encodeProperties(e.Properties)
	if err != nil {
		return nil, redisRecord{}, err
	}
	rec := redisRecord{
		PartitionKey: e.PartitionKey,
		RowKey:       e.RowKey,
		Properties:   props,
		ETag:         newETag(),
		Timestamp:    time.Now().UTC(),
	}
	payload, err := json.Marshal(rec)
	return payload, rec, err
}

func decodeRecord(raw []byte) (*Entity, error) {
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	props, err := decodeProperties(rec.Properties)
	if err != nil {
		return nil, err
	}
	return &Entity{
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		Properties:   props,
		ETag:         rec.ETag,
		Timestamp:    rec.Timestamp,
	}, nil
}
