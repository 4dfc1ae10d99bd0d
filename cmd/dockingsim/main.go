// Package main runs docking sessions against the simulated robot and prints a report of each.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.viam.com/docking/logging"
)

func main() {
	logger := logging.NewLogger("dockingsim")
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp(logger).RunContext(ctx, os.Args); err != nil {
		logger.Error(err)
		cancel()
		os.Exit(1)
	}
}
