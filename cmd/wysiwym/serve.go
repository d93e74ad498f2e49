package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shodgson/wysiwym/internal/config"
	"github.com/shodgson/wysiwym/internal/metrics"
	"github.com/shodgson/wysiwym/internal/server"
	"github.com/shodgson/wysiwym/internal/storage"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wiki server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if dir, _ := cmd.Flags().GetString("data"); dir != "" {
			cfg.DataDir = dir
		}
		logger := newLogger(cfg)

		conv, err := newConverter(logger)
		if err != nil {
			return err
		}

		var store storage.Storage
		switch cfg.Storage.Driver {
		case config.DriverRedis:
			rs := storage.NewRedisStorage(cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB,
				storage.WithPrefix(cfg.Storage.Redis.Prefix))
			defer rs.Close()
			store = rs
		default:
			store = storage.NewFileStorage(cfg.DataDir)
		}

		opts := []server.Option{server.WithLogger(logger)}
		if cfg.Metrics.Enabled {
			opts = append(opts, server.WithMetrics(metrics.New(), cfg.Metrics.Path))
		}
		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           server.New(conv, store, opts...).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting wiki server", "addr", srv.Addr, "storage", cfg.Storage.Driver, "data", cfg.DataDir)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("data", "", "Directory holding the pages (overrides config)")
}
