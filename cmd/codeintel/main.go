package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"codeintel/internal/logging"
)

func main() {
	logger = logging.Default("codeintel")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
