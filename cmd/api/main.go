package main

import (
	"log/slog"
	"os"

	"construction-platform/internal/config"
	"construction-platform/pkg/logger"

	"github.com/spf13/cobra"
)

// rootCmd is the api binary. Subcommands live in serve.go, migrate.go and user.go.
var rootCmd = &cobra.Command{
	Use:          "api",
	Short:        "Construction platform API server and operations",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and installs the process logger. The
// returned func closes the production log files.
func bootstrap() (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log, closeLogs := logger.New(cfg.Log.Level, cfg.App.Env, cfg.Log.Dir)
	slog.SetDefault(log)
	return cfg, log, func() { _ = closeLogs() }, nil
}
