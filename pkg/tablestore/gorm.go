package tablestore

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tableEntity is the single relation backing every logical table.
type tableEntity struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"`
	Table        string         `gorm:"column:table_name;size:64;not null;uniqueIndex:idx_table_entity_key,priority:1"`
	PartitionKey string         `gorm:"size:191;not null;uniqueIndex:idx_table_entity_key,priority:2"`
	RowKey       string         `gorm:"size:191;not null;uniqueIndex:idx_table_entity_key,priority:3"`
	Properties   datatypes.JSON `gorm:"type:json"`
	ETag         string         `gorm:"column:etag;size:36;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (tableEntity) TableName() string {
	return "table_entities"
}

// GormStore runs on any gorm dialect with duplicate-key translation enabled
// (gorm.Config.TranslateError).
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&tableEntity{}); err != nil {
		return nil, err
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) keyScope(ctx context.Context, table, pk, rk string) *gorm.DB {
	return s.DB.WithContext(ctx).Where("table_name = ? AND partition_key = ? AND row_key = ?", table, pk, rk)
}

func (s *GormStore) Get(ctx context.Context, table, pk, rk string) (*Entity, error) {
	var row tableEntity
	err := s.keyScope(ctx, table, pk, rk).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.entity()
}

func (s *GormStore) Insert(ctx context.Context, table string, e *Entity) error {
	row, err := newTableEntity(table, e)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEntityExists
	}
	if err != nil {
		return err
	}
	e.ETag, e.Timestamp = row.ETag, row.UpdatedAt
	return nil
}

func (s *GormStore) Upsert(ctx context.Context, table string, e *Entity) error {
	row, err := newTableEntity(table, e)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_name"}, {Name: "partition_key"}, {Name: "row_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"properties", "etag", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return err
	}
	e.ETag, e.Timestamp = row.ETag, row.UpdatedAt
	return nil
}

func (s *GormStore) Update(ctx context.Context, table string, e *Entity, etag string) error {
	if err := validateKey(e); err != nil {
		return err
	}
	raw, err := encodeProperties(e.Properties)
	if err != nil {
		return err
	}

	newTag, now := newETag(), time.Now().UTC()
	res := s.keyScope(ctx, table, e.PartitionKey, e.RowKey).
		Model(&tableEntity{}).
		Where("etag = ?", etag).
		Updates(map[string]any{
			"properties": datatypes.JSON(raw),
			"etag":       newTag,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		// tell a missing row apart from a stale ETag
		var count int64
		if err := s.keyScope(ctx, table, e.PartitionKey, e.RowKey).Model(&tableEntity{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	e.ETag, e.Timestamp = newTag, now
	return nil
}

func (s *GormStore) QueryPartition(ctx context.Context, table, pk string) ([]*Entity, error) {
	var rows []tableEntity
	err := s.DB.WithContext(ctx).
		Where("table_name = ? AND partition_key = ?", table, pk).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*Entity, 0, len(rows))
	for i := range rows {
		e, err := rows[i].entity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func newTableEntity(table string, e *Entity) (*tableEntity, error) {
	if err := validateKey(e); err != nil {
		return nil, err
	}
	raw, err := encodeProperties(e.Properties)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &tableEntity{
		Table:        table,
		PartitionKey: e.PartitionKey,
		RowKey:       e.RowKey,
		Properties:   datatypes.JSON(raw),
		ETag:         newETag(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (r *tableEntity) entity() (*Entity, error) {
	props, err := decodeProperties(r.Properties)
	if err != nil {
		return nil, err
	}
	return &Entity{
		PartitionKey: r.PartitionKey,
		RowKey:       r.RowKey,
		Properties:   props,
		ETag:         r.ETag,
		Timestamp:    r.UpdatedAt,
	}, nil
}
