package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shodgson/wysiwym/editor"
	"github.com/shodgson/wysiwym/internal/config"
	"github.com/shodgson/wysiwym/internal/logging"
	"github.com/shodgson/wysiwym/registry"
	"github.com/shodgson/wysiwym/schema/basic"
	"github.com/shodgson/wysiwym/schema/list"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wysiwym",
	Short: "wysiwym converts documents to editor trees and back",
	Long: `wysiwym is a wiki whose pages are Markdown documents, edited through the
editor tree built from the registered document kinds.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level, cfg.LogFormat)
}

func newConverter(logger *slog.Logger) (*editor.Converter, error) {
	reg := registry.New(basic.Register, list.Register)
	logger.Debug("registered kinds", "nodes", reg.NodeKinds(), "marks", reg.MarkKinds())
	if err := reg.Check(); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return editor.NewConverter(reg)
}
