package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"raritystake/core/events"
)

// ErrDSNRequired is returned when no journal DSN is configured.
var ErrDSNRequired = errors.New("journal dsn must be configured")

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Entry is a committed ledger event as persisted in the journal.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position   int64     `gorm:"uniqueIndex"`
	Type       string    `gorm:"index"`
	Attributes string    `gorm:"type:text"`
	CreatedAt  time.Time
}

// TableName pins the table name independent of the struct name.
func (Entry) TableName() string { return "ledger_events" }

// Decoded returns the entry attributes as a map.
func (e Entry) Decoded() (map[string]string, error) {
	attrs := map[string]string{}
	if strings.TrimSpace(e.Attributes) == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(e.Attributes), &attrs); err != nil {
		return nil, fmt.Errorf("decode journal entry %s: %w", e.ID, err)
	}
	return attrs, nil
}

// Store appends committed events to a SQL journal. It implements events.Emitter.
type Store struct {
	db       *gorm.DB
	logger   *slog.Logger
	mu       sync.Mutex
	position int64
	now      func() time.Time
}

// Open connects to dsn. DSNs starting with postgres:// or postgresql:// use the
// Postgres driver; anything else is treated as a sqlite path or URI.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrDSNRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	var dialector gorm.Dialector
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		dialector = postgres.Open(trimmed)
	} else {
		dialector = sqlite.Open(trimmed)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return New(db, logger)
}

// New wraps an existing gorm handle and migrates the journal schema.
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("journal: database handle required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	var last Entry
	res := db.Order("position desc").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, fmt.Errorf("load journal head: %w", res.Error)
	}
	return &Store{
		db:       db,
		logger:   logger.With(slog.String("component", "journal")),
		position: last.Position,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Append persists a single event.
func (s *Store) Append(ctx context.Context, evt events.Event) (*Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("journal not configured")
	}
	if evt == nil {
		return nil, fmt.Errorf("journal: nil event")
	}
	payload := evt.Event()
	attrs := map[string]string{}
	if payload != nil && payload.Attributes != nil {
		attrs = payload.Attributes
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", evt.EventType(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := &Entry{
		ID:         uuid.New(),
		Position:   s.position + 1,
		Type:       evt.EventType(),
		Attributes: string(encoded),
		CreatedAt:  s.now(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("append event %s: %w", entry.Type, err)
	}
	s.position = entry.Position
	return entry, nil
}

// Emit implements events.Emitter. Failures are logged; the ledger state is
// authoritative and the journal is a derived index.
func (s *Store) Emit(evt events.Event) {
	if s == nil || evt == nil {
		return
	}
	if _, err := s.Append(context.Background(), evt); err != nil {
		s.logger.Error("journal append failed", slog.String("type", evt.EventType()), slog.Any("error", err))
	}
}

// List returns the most recent entries, newest first, optionally filtered by type.
func (s *Store) List(ctx context.Context, eventType string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("journal not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	query := s.db.WithContext(ctx).Order("position desc").Limit(limit)
	if trimmed := strings.TrimSpace(eventType); trimmed != "" {
		query = query.Where("type = ?", trimmed)
	}
	var entries []Entry
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return entries, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
