package loyalty

import (
	"context"
	"fmt"
)

// TokenStore persists the single API token between runs.
//
// Load returns "" with a nil error when nothing has been stored yet.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Close() error
}

// Driver identifiers supported by NewTokenStore.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// StoreConfig selects and configures a TokenStore.
type StoreConfig struct {
	Driver string

	// File driver.
	Path string

	// Redis driver.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	// SQLite driver.
	SQLiteDSN string
	Name      string
}

// NewTokenStore creates a token store based on the provided configuration.
func NewTokenStore(cfg StoreConfig) (TokenStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		if cfg.Path == "" {
			return nil, newErr(KindConfig, "store.new", "file driver requires a token file path")
		}
		return NewFileStore(cfg.Path), nil
	case DriverRedis:
		return NewRedisStore(cfg)
	case DriverSQLite:
		return NewSQLiteStore(cfg)
	default:
		return nil, newErr(KindConfig, "store.new", fmt.Sprintf("unsupported token store driver: %s", driver))
	}
}
