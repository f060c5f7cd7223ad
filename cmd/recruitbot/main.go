// Package main is the recruitbot CLI: crawl the listing site, keep the history,
// and send reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-recruit-crawler/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:          "recruitbot",
	Short:        "Incremental crawler for campus and internship listings",
	Long:         "recruitbot scrapes recruitment listings, merges them into a persistent history, writes an Excel sheet and mails the changes.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config.Build()
}

// setup loads the config and builds the logger every subcommand needs.
func setup() (*config.Config, *zap.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("🔧 Config loaded", zap.String("path", configPath), zap.String("job_type", string(cfg.Site.Type())))
	return cfg, logger, nil
}
