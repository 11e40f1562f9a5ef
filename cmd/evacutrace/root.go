package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aparekh02/EvacuTrace/internal/config"
)

// Global flags shared by all subcommands.
var (
	configPath string
	dbPath     string
	verbose    bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "evacutrace",
	Short: "EvacuTrace - risk-aware multi-agent rescue simulation",
	Long: `EvacuTrace plans and executes repeated rescue attempts through a
multi-level structure while a spreading fire or a patrolling attacker
degrades traversal safety. Outcomes of past attempts feed back into the
planning cost function, so agents learn across missions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "knowledge database file (overrides config; empty = in-memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration from file and flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.Knowledge.Path = dbPath
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("evacutrace %s\n", version)
	},
}

// version is overridden at build time via -ldflags.
var version = "dev"
