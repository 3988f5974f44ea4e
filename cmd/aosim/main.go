package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aosim/pkg/aosim"
)

var (
	flagLogLevel  string
	flagLogFormat string
	flagConfig    string

	cfg    aosim.Config
	logger *slog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aosim",
		Short: "Atmospheric turbulence simulation and image quality metrics",
		Long: `aosim simulates atmospheric seeing over astronomical images and measures
how much an adaptive optics style correction recovers. It runs two pipelines:
a synthetic star distorted by a seeded turbulence field, and a real image
degraded by noise and blur.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format (text|json)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path (or set AOSIM_CONFIG)")

	rootCmd.AddCommand(newStarCmd())
	rootCmd.AddCommand(newObserveCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup builds the logger and loads the configuration before any
// subcommand runs. Flags override loaded values in each command.
func setup(cmd *cobra.Command, args []string) error {
	logger = newLogger(flagLogLevel, flagLogFormat)

	path := flagConfig
	if path == "" {
		path = os.Getenv("AOSIM_CONFIG")
	}
	if path == "" {
		cfg = aosim.NewConfig()
		return nil
	}

	loaded, err := aosim.LoadConfig(path)
	if err != nil {
		return err
	}
	cfg = loaded
	logger.Debug("configuration loaded", "path", path)
	return nil
}

// newLogger returns a slog.Logger for the given level string (debug, info,
// warn, error). format may be "json" or "text".
func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("aosim v1.0.0")
		},
	}
}
