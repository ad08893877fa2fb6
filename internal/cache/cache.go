// Package cache keeps raw source bodies in a local SQLite database so repeated
// runs against the same remote datasets skip the download.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is one cached source body.
type Entry struct {
	Location  string `gorm:"primaryKey"`
	Body      []byte
	FetchedAt time.Time `gorm:"index"`
}

func (Entry) TableName() string { return "source_bodies" }

// Store is a TTL-bounded body cache.
type Store struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (creating if needed) the cache database at path. A zero ttl
// keeps entries forever.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating cache: %w", err)
	}
	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the body stored for location. ok is false on a miss or when
// the entry is older than the ttl.
func (s *Store) Get(ctx context.Context, location string) (body []byte, ok bool, err error) {
	var e Entry
	err = s.db.WithContext(ctx).First(&e, "location = ?", location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(e.FetchedAt) > s.ttl {
		return nil, false, nil
	}
	return e.Body, true, nil
}

// Put stores body for location, replacing any previous entry.
func (s *Store) Put(ctx context.Context, location string, body []byte) error {
	e := Entry{Location: location, Body: body, FetchedAt: s.now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&e).Error
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Prune deletes entries older than the ttl and returns how many went.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("fetched_at < ?", s.now().Add(-s.ttl)).
		Delete(&Entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("pruning cache: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
