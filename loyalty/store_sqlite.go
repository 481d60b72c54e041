package loyalty

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const defaultTokenName = "default"

// StoredToken is the sqlite row holding a named token.
type StoredToken struct {
	Name      string `gorm:"primaryKey;size:64"`
	Token     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (StoredToken) TableName() string {
	return "loyalty_tokens"
}

// SQLiteStore keeps the token in a sqlite table through gorm.
type SQLiteStore struct {
	db   *gorm.DB
	name string
}

// NewSQLiteStore opens the database at cfg.SQLiteDSN and migrates the token
// table.
func NewSQLiteStore(cfg StoreConfig) (*SQLiteStore, error) {
	if cfg.SQLiteDSN == "" {
		return nil, newErr(KindConfig, "sqlite.new", "sqlite dsn required")
	}

	db, err := gorm.Open(sqlite.Open(cfg.SQLiteDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, wrapErr(KindStore, "sqlite.new", "could not open database", err)
	}
	return newSQLiteStore(db, cfg.Name)
}

func newSQLiteStore(db *gorm.DB, name string) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&StoredToken{}); err != nil {
		return nil, wrapErr(KindStore, "sqlite.new", "could not migrate token table", err)
	}
	if name == "" {
		name = defaultTokenName
	}
	return &SQLiteStore{db: db, name: name}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (string, error) {
	var row StoredToken
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", wrapErr(KindStore, "sqlite.load", "could not read token", err)
	}
	return row.Token, nil
}

func (s *SQLiteStore) Save(ctx context.Context, token string) error {
	row := StoredToken{Name: s.name, Token: token, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return wrapErr(KindWriteFailure, "sqlite.save", "could not write token", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
