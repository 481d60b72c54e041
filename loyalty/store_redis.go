package loyalty

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "loyalty:token"

// RedisStore shares one token between processes through a redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to redis and checks the connection with a PING.
func NewRedisStore(cfg StoreConfig) (*RedisStore, error) {
	if cfg.RedisAddr == "" {
		return nil, newErr(KindConfig, "redis.new", "redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, wrapErr(KindStore, "redis.new", "redis ping failed", err)
	}

	key := cfg.RedisKey
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", wrapErr(KindStore, "redis.load", "could not read token", err)
	}
	return token, nil
}

// Save stores the token without a TTL; expiry is decided from the token's
// own exp claim.
func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return wrapErr(KindWriteFailure, "redis.save", "could not write token", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
