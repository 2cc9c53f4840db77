package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/clvecsum/internal/config"
)

var (
	logLevel   string
	configPath string
	logger     *slog.Logger

	// settings is resolved from the config file and flags before any command runs.
	settings = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "clvecsum",
	Short: "Vector sum on an OpenCL device",
	Long: `clvecsum sets up an OpenCL compute context, uploads two float vectors,
runs the sum kernel (result[i] = a[i] + 2*b[i]) and prints the result.
Without an OpenCL build it falls back to host emulation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		settings = cfg

		// Stdout carries the element listing, so logs go to stderr.
		opts := &slog.HandlerOptions{Level: parseLogLevel(settings.LogLevel)}
		handler := slog.NewJSONHandler(os.Stderr, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
		return nil
	},
	RunE: runSum,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "auto", "Compute backend: auto, host, opencl")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for run records and traces (empty = don't record)")
}

// parseLogLevel maps a validated level name to its slog level. Names are
// case insensitive, matching config.Validate.
func parseLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// resolveSettings layers the config file and then explicitly set flags over
// the defaults.
func resolveSettings(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("backend") {
		cfg.Backend = backendName
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("elements") {
		cfg.Elements = elements
	}
	if flags.Changed("platform") {
		cfg.Platform = platformName
	}
	if flags.Changed("device-type") {
		cfg.DeviceType = deviceType
	}
	if flags.Changed("extension") {
		cfg.Extensions = extensions
	}
	if flags.Changed("quiet") {
		cfg.Quiet = quiet
	}
	if flags.Changed("verify") {
		cfg.Verify = verify
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}
