package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"loyaltygo/loyalty"
)

// openOperationalLog opens the append-only anomaly log. Without a log file
// anomalies go to the console logger.
func openOperationalLog(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return logger, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }, nil
}

// openClient builds the API client from cfg, with its token store and the
// operational log. The returned func closes the log file.
func openClient(ctx context.Context, cfg *config) (*loyalty.Client, func(), error) {
	opLog, closeLog, err := openOperationalLog(cfg.Files.Log)
	if err != nil {
		return nil, nil, err
	}

	store, err := loyalty.NewTokenStore(cfg.storeConfig())
	if err != nil {
		closeLog()
		return nil, nil, err
	}

	client, err := loyalty.NewClient(ctx, loyalty.Config{
		APIKey:             cfg.Account.APIKey,
		Username:           cfg.Account.Username,
		Password:           cfg.Account.Password,
		Host:               cfg.API.Host,
		Debug:              cfg.Options.Debug,
		DebugOut:           os.Stdout,
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
		UserAgent:          userAgent(),
		Logger:             opLog,
	}, store)
	if err != nil {
		store.Close()
		closeLog()
		return nil, nil, err
	}

	return client, closeLog, nil
}

// printTokenState makes sure the client holds a valid token and reports it.
func printTokenState(ctx context.Context, client *loyalty.Client) error {
	tokens := client.Tokens()
	before := loyalty.ClassifyToken(tokens.Token(), time.Now())

	token := tokens.Ensure(ctx)
	after := loyalty.ClassifyToken(token, time.Now())

	logger.Info("API token", "cached", before, "current", after)
	if after != loyalty.TokenValid {
		return fmt.Errorf("could not obtain a valid API token (state: %s)", after)
	}
	return nil
}

func tokenCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Check the cached API token and renew it when needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configFile)
			if err != nil {
				return err
			}
			cfg.Options.Debug = cfg.Options.Debug || opts.debug

			client, closeLog, err := openClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			defer client.Close()

			return printTokenState(cmd.Context(), client)
		},
	}
}
