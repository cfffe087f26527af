package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"codeintel/internal/config"
	"codeintel/internal/logging"
	"codeintel/internal/workspace"
)

const version = "0.1.0"

var (
	logger = logging.Nop()

	configPath string
	formatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "codeintel",
	Short: "Workspace code intelligence engine",
	Long: `codeintel indexes a source tree, answers symbol and text queries over it,
and serves diagnostics, completions and hover to editors over the Language
Server Protocol.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("codeintel version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (json, human)")
}

// loadConfig loads configuration and applies a positional root argument.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Workspace.Root = args[0]
	}
	root, err := filepath.Abs(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	cfg.Workspace.Root = root
	return cfg, nil
}

// buildIndex walks the configured root into a fresh index.
func buildIndex(ctx context.Context, cfg *config.Config) (*workspace.Index, workspace.WalkStats) {
	idx := workspace.New(workspace.WithLogger(logging.Component(logger, "workspace")))

	start := time.Now()
	stats := idx.IndexDirectory(ctx, cfg.Workspace.Root, cfg.WalkOptions())
	logger.Info("indexing complete",
		slog.String("root", cfg.Workspace.Root),
		slog.Int("files", stats.Indexed),
		slog.Int("failed", stats.Failed),
		slog.Int("symbols", idx.SymbolCount()),
		slog.Duration("duration", time.Since(start).Round(time.Millisecond)))
	return idx, stats
}
