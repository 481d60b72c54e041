package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// AppName : App name
const AppName = "loyaltygo"

// Version : Version
const Version = "1.0.0"

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type globalOptions struct {
	configFile string
	logLevel   string
	debug      bool
}

func main() {
	log.SetOutput(os.Stdout)

	if err := rootCmd().Execute(); err != nil {
		ShowErr(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   AppName,
		Short: "Loyalty card API client",
		Long: `loyaltygo registers customers with the loyalty card partner API.

It logs in with the configured partner account, keeps the API token cached
between runs and renews it when it expires.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newConsoleLogger(opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Configuration file [filename.yaml]")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Echo request headers and attach raw responses to results")

	cmd.AddCommand(
		configureCmd(),
		addCustomerCmd(opts),
		tokenCmd(opts),
		serveCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(Version)
			},
		},
	)

	return cmd
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure <filename.yaml>",
		Short: "Create or modify the configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Configure(args[0])
		},
	}
}

func newConsoleLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// ShowErr : Show error on screen
func ShowErr(err error) {
	var msg = fmt.Sprintf("%s", err)
	logger.Error(msg)
}
