// Package storage keeps the node's log lines and preferences in a sqlite database.
package storage

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/exepirit/loratext/pkg/loratext"
)

// KeyRoster is the preference holding the comma-separated peer roster.
const KeyRoster = "users"

// LogEntry is one human-readable log line.
type LogEntry struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Line      string
}

// Preference is a small persisted setting.
type Preference struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// DB is the node storage.
type DB struct {
	db *gorm.DB
}

var _ loratext.LogStore = &DB{}

// Open opens or creates the database at path and migrates it.
func Open(path string) (*DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&LogEntry{}, &Preference{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate storage: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the database.
func (s *DB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append adds a log line.
func (s *DB) Append(line string) error {
	return s.db.Create(&LogEntry{Line: line}).Error
}

// Logs returns up to limit most recent lines, oldest first. A non-positive limit returns every line.
func (s *DB) Logs(limit int) ([]LogEntry, error) {
	var entries []LogEntry
	query := s.db.Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	return entries, nil
}

// GetOrDefault returns the preference stored under key, or def when there is none.
func (s *DB) GetOrDefault(key, def string) (string, error) {
	var pref Preference
	err := s.db.Where(map[string]any{"key": key}).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return pref.Value, nil
}

// Put stores value under key, replacing any previous value.
func (s *DB) Put(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Preference{Key: key, Value: value}).Error
}

// Roster returns the persisted roster, or def when none was saved.
func (s *DB) Roster(def []string) ([]string, error) {
	raw, err := s.GetOrDefault(KeyRoster, strings.Join(def, ","))
	if err != nil {
		return nil, err
	}
	return SplitRoster(raw), nil
}

// SetRoster validates and persists names.
func (s *DB) SetRoster(names []string) error {
	for _, name := range names {
		if strings.Contains(name, ",") {
			return fmt.Errorf("%w: %q contains a comma", loratext.ErrInvalidName, name)
		}
		if err := loratext.ValidateName(name); err != nil {
			return err
		}
	}
	return s.Put(KeyRoster, strings.Join(names, ","))
}

// SplitRoster parses a comma-separated roster, dropping blanks.
func SplitRoster(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
