package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// PersistedToken is the single row of persisted_tokens.
type PersistedToken struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (PersistedToken) TableName() string {
	return "persisted_tokens"
}

type SQLStore struct {
	db   *gorm.DB
	name string
}

// NewSQLStore wraps an open gorm handle whose schema is already migrated.
func NewSQLStore(db *gorm.DB, name string) *SQLStore {
	return &SQLStore{db: db, name: name}
}

// OpenSQLStore connects, migrates and returns a store keyed by name.
func OpenSQLStore(ctx context.Context, driver, dsn, name string) (*SQLStore, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	case "postgres":
		conn, connErr := sqlx.ConnectContext(ctx, "pgx", dsn)
		if connErr != nil {
			return nil, fmt.Errorf("failed to connect token database: %w", connErr)
		}
		db, err = gorm.Open(postgres.New(postgres.Config{Conn: conn.DB}), cfg)
	default:
		return nil, fmt.Errorf("tokenstore: unsupported sql driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, sqlDB, driver); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return NewSQLStore(db, name), nil
}

func (s *SQLStore) Load(ctx context.Context) (string, bool, error) {
	var row PersistedToken
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load token: %w", err)
	}
	return row.Value, row.Value != "", nil
}

func (s *SQLStore) Save(ctx context.Context, token string) error {
	row := PersistedToken{Name: s.name, Value: token, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("name = ?", s.name).Delete(&PersistedToken{}).Error; err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
