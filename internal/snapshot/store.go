// Package snapshot persists opaque state blobs keyed by name. The store is a
// plain key-value table: one row per snapshot key, last write wins.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound indicates that no snapshot exists under the requested key.
var ErrNotFound = errors.New("snapshot: not found")

// Gateway is the persistence contract the state store depends on.
type Gateway interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// Record is the persisted snapshot row.
type Record struct {
	Key              string `gorm:"column:key;primaryKey;size:190;not null"`
	Blob             string `gorm:"column:blob;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "snapshots"
}

// Store implements Gateway over a GORM database handle.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// StoreConfig collects the Store dependencies.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// NewStore validates the configuration and returns a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, errors.New("snapshot: database handle is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Save upserts the blob under the given key.
func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return fmt.Errorf("snapshot: save requires a key")
	}
	record := Record{
		Key:              key,
		Blob:             string(blob),
		UpdatedAtSeconds: s.clock().UTC().Unix(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"blob", "updated_at_s"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("snapshot: save %q: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under the key, or ErrNotFound.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var record Record
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %q: %w", key, err)
	}
	return []byte(record.Blob), nil
}
