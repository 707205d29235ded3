// Package main provides the roomharvest command line entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyellow/roomharvest/cmd/roomharvest/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
