// Package main is the entry point for the GitBugger CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mr-Squirrely-Net/GitBugger/cmd"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/github"
	"github.com/Mr-Squirrely-Net/GitBugger/internal/logging"
)

// main is the entry point of the application.
// It executes the root command and handles any errors that occur.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Debug("starting gitbugger", "version", github.Version)

	if err := cmd.Execute(ctx); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
