package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/recipehub/backend/config"
)

// Entry is a single row of the kv_store table.
type Entry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value []byte `gorm:"column:value;type:jsonb;not null"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (Entry) TableName() string { return "kv_store" }

// GormStore implements Store on a single-table relational schema. Prefix
// scans go through an indexed LIKE on the primary key, so the per-user
// namespacing keeps the same cost profile as a real prefix scan.
type GormStore struct {
	db *gorm.DB
}

// NewPostgresDB opens the postgres connection and migrates the kv_store table.
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_store table: %w", err)
	}

	log.Printf("Successfully connected to Postgres at %s:%s", cfg.DBHost, cfg.DBPort)
	return db, nil
}

// NewGormStore wraps an existing gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return json.RawMessage(entry.Value), true, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	entry := Entry{Key: key, Value: []byte(value)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("kv del %q: %w", key, err)
	}
	return nil
}

func (s *GormStore) ScanPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	var entries []Entry
	pattern := escapeLike(prefix) + "%"
	if err := s.db.WithContext(ctx).Where("key LIKE ?", pattern).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("kv scan %q: %w", prefix, err)
	}

	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, json.RawMessage(e.Value))
	}
	return out, nil
}

// escapeLike neutralizes LIKE metacharacters so a prefix containing % or _
// cannot widen the scan.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
