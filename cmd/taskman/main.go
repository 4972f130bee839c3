// Package main is the entry point for the taskman CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"taskman/internal/cli"
	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/logging"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	var logger *zap.Logger
	newLogger := func(cfg *config.Config) (*zap.Logger, error) {
		l, err := logging.New(cfg, os.Stderr)
		if err == nil {
			logger = l
		}
		return l, err
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry,
		cli.HTTPFactory(newLogger, commands.NewTermPrompter(os.Stdin, os.Stderr)))

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if logger != nil {
		_ = logging.Sync(logger)
	}
	cancel()
	os.Exit(code)
}
