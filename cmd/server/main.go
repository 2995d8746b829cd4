package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/app"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/config"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		dbPath     string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "alo-server",
		Short: "Messaging backend with REST API and WebSocket live updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrapLog := log.New("info", true)

			cfg, cfgPath, err := config.Load(bootstrapLog, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Flags win over config file and env.
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			logger := log.New(cfg.LogLevel, cfg.LogPretty)
			logger.Info().Str("config", cfgPath).Str("addr", cfg.Addr).Msg("starting alo server")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("run: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite database file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
