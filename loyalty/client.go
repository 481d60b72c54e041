// Package loyalty is a client for the loyalty-card partner API. It keeps a
// bearer token cached in a TokenStore, logs in again when the token is
// missing, malformed or expired, and registers new customers.
package loyalty

import (
	"context"
	"log/slog"
)

type Client struct {
	cfg       Config
	store     TokenStore
	transport *Transport
	tokens    *TokenManager
	logger    *slog.Logger
}

// NewClient builds a client and loads the cached token from store. The
// token is not validated until the first call.
func NewClient(ctx context.Context, cfg Config, store TokenStore) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, newErr(KindConfig, "client.new", "token store required")
	}
	cfg = cfg.withDefaults()

	transport := NewTransport(cfg)
	tokens := NewTokenManager(cfg, store, transport)
	tokens.setToken(tokens.LoadToken(ctx))

	return &Client{
		cfg:       cfg,
		store:     store,
		transport: transport,
		tokens:    tokens,
		logger:    cfg.Logger,
	}, nil
}

func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

func (c *Client) Close() error {
	return c.store.Close()
}
