package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"codeintel/internal/langserver"
	"codeintel/internal/logging"
	"codeintel/internal/watcher"
	"codeintel/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server over stdio",
	Long: `Speak the Language Server Protocol on stdin/stdout. The workspace root sent
in initialize is indexed in the background and, when watching is enabled,
kept up to date as files change. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// stdio joins stdin and stdout into one stream.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdio) Close() error {
	return errors.Join(os.Stdin.Close(), os.Stdout.Close())
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	idx := workspace.New(workspace.WithLogger(logging.Component(logger, "workspace")))
	opts := []langserver.Option{
		langserver.WithLogger(logging.Component(logger, "langserver")),
	}
	if cfg.Server.IndexOnInitialize {
		opts = append(opts, langserver.WithIndexOnInitialize(cfg.WalkOptions()))
	}
	if cfg.Watch.Enabled {
		wcfg := watcher.Config{
			Debounce: cfg.Debounce(),
			Walk:     cfg.WalkOptions(),
		}
		opts = append(opts, langserver.WithRootHook(func(ctx context.Context, root string) {
			w, err := watcher.New(idx, root, wcfg, watcher.WithLogger(logging.Component(logger, "watcher")))
			if err != nil {
				logger.Error("watcher unavailable", "root", root, "error", err)
				return
			}
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped", "root", root, "error", err)
			}
		}))
	}

	srv := langserver.NewServer("codeintel", version, idx, opts...)
	logger.Info("language server starting", "version", version, "watch", cfg.Watch.Enabled)

	err = srv.Serve(cmd.Context(), stdio{})
	logger.Info("language server stopped",
		"root", srv.Root(),
		"open_documents", len(srv.Documents().URIs()),
		"files", idx.Len())
	if errors.Is(err, context.Canceled) {
		logger.Info("language server interrupted")
		return nil
	}
	return err
}
