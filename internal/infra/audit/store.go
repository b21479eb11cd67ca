// Package audit persists the service audit trail with GORM so the colony
// history feed survives restarts.
package audit

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mousecolony/internal/core"
)

// Record is the audit_records row.
type Record struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	Operation      string    `gorm:"size:64;index"`
	Entity         string    `gorm:"size:32"`
	Action         string    `gorm:"size:16"`
	EntityID       string    `gorm:"size:64;index"`
	Status         string    `gorm:"size:16"`
	Error          string    `gorm:"type:text"`
	DurationMicros int64     `gorm:"not null;default:0"`
	OccurredAt     time.Time `gorm:"index"`
}

// TableName pins the table name.
func (Record) TableName() string { return "audit_records" }

// Dialect selects the SQL backend.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config locates the audit database.
type Config struct {
	Dialect Dialect `yaml:"dialect"`
	DSN     string  `yaml:"dsn"`
}

// Store records and lists audit entries. It implements core.AuditRecorder.
type Store struct {
	db  *gorm.DB
	log core.Logger
}

// Open connects to the configured database and migrates the audit table. An
// empty dialect selects sqlite.
func Open(cfg Config, log core.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case "", DialectSQLite:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("audit: sqlite dsn required")
		}
		dialector = sqlite.Open(cfg.DSN)
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("audit: unknown dialect %q", cfg.Dialect)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("audit: connect %s: %w", cfg.Dialect, err)
	}
	return New(db, log)
}

// New wraps an open connection and migrates the audit table.
func New(db *gorm.DB, log core.Logger) (*Store, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	if log == nil {
		log = core.NopLogger()
	}
	return &Store{db: db, log: log}, nil
}

// Record implements core.AuditRecorder. Write failures are logged, never
// returned, so the audited operation is not affected.
func (s *Store) Record(ctx context.Context, entry core.AuditEntry) {
	row := Record{
		Operation:      entry.Operation,
		Entity:         string(entry.Entity),
		Action:         string(entry.Action),
		EntityID:       entry.EntityID,
		Status:         string(entry.Status),
		Error:          entry.Error,
		DurationMicros: entry.Duration.Microseconds(),
		OccurredAt:     entry.Timestamp.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Error("audit write failed", "operation", entry.Operation, "entity_id", entry.EntityID, "error", err)
	}
}

// Filter narrows List.
type Filter struct {
	EntityID  string
	Operation string
	Since     time.Time
	// Limit caps the number of entries; zero means 50.
	Limit int
}

const defaultLimit = 50

// List returns the matching entries, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]core.AuditEntry, error) {
	q := s.db.WithContext(ctx).Model(&Record{})
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Operation != "" {
		q = q.Where("operation = ?", f.Operation)
	}
	if !f.Since.IsZero() {
		q = q.Where("occurred_at >= ?", f.Since.UTC())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	var rows []Record
	if err := q.Order("occurred_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	out := make([]core.AuditEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.AuditEntry{
			Operation: r.Operation,
			Entity:    core.EntityType(r.Entity),
			Action:    core.Action(r.Action),
			EntityID:  r.EntityID,
			Status:    core.AuditStatus(r.Status),
			Error:     r.Error,
			Duration:  time.Duration(r.DurationMicros) * time.Microsecond,
			Timestamp: r.OccurredAt.UTC(),
		})
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
