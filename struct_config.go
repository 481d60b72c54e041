package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"loyaltygo/loyalty"
)

type config struct {
	File string `yaml:"-"`

	Account struct {
		APIKey   string `yaml:"API Key"`
		Username string `yaml:"Username"`
		Password string `yaml:"Password"`
	} `yaml:"Account"`

	API struct {
		Host               string `yaml:"Host"`
		InsecureSkipVerify bool   `yaml:"Skip TLS certificate verification"`
	} `yaml:"API"`

	Files struct {
		Token string `yaml:"Token"`
		Log   string `yaml:"Log"`
	} `yaml:"Files"`

	TokenStore struct {
		Driver string `yaml:"Driver"` // file | redis | sqlite
		Redis  struct {
			Address  string `yaml:"Address"`
			Password string `yaml:"Password"`
			DB       int    `yaml:"DB"`
			Key      string `yaml:"Key"`
		} `yaml:"Redis"`
		SQLite struct {
			DSN string `yaml:"DSN"`
		} `yaml:"SQLite"`
	} `yaml:"Token Store"`

	Server struct {
		Address string `yaml:"Address"`
		Port    string `yaml:"Port"`
	} `yaml:"Server"`

	Options struct {
		Debug bool `yaml:"Debug"`
	} `yaml:"Options"`
}

// applyEnv overrides file values with LOYALTY_* variables, after loading a
// .env file from the working directory when one exists. The overrides are
// never written back to the YAML file.
func (c *config) applyEnv() {
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded environment from .env")
	}

	c.Account.APIKey = getEnv("LOYALTY_API_KEY", c.Account.APIKey)
	c.Account.Username = getEnv("LOYALTY_USERNAME", c.Account.Username)
	c.Account.Password = getEnv("LOYALTY_PASSWORD", c.Account.Password)
	c.API.Host = getEnv("LOYALTY_HOST", c.API.Host)
	c.Files.Token = getEnv("LOYALTY_TOKEN_FILE", c.Files.Token)
	c.Files.Log = getEnv("LOYALTY_LOG_FILE", c.Files.Log)
	c.TokenStore.Driver = getEnv("LOYALTY_TOKEN_STORE", c.TokenStore.Driver)
	c.TokenStore.Redis.Address = getEnv("LOYALTY_REDIS_ADDR", c.TokenStore.Redis.Address)
	c.TokenStore.Redis.Password = getEnv("LOYALTY_REDIS_PASSWORD", c.TokenStore.Redis.Password)
	c.Options.Debug = getBool("LOYALTY_DEBUG", c.Options.Debug)
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	return lo.Ternary(v != "", v, def)
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (c *config) storeConfig() loyalty.StoreConfig {
	return loyalty.StoreConfig{
		Driver:        c.TokenStore.Driver,
		Path:          c.Files.Token,
		RedisAddr:     c.TokenStore.Redis.Address,
		RedisPassword: c.TokenStore.Redis.Password,
		RedisDB:       c.TokenStore.Redis.DB,
		RedisKey:      c.TokenStore.Redis.Key,
		SQLiteDSN:     c.TokenStore.SQLite.DSN,
	}
}
