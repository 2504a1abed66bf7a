package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ekaya-inc/ekaya-features/pkg/cli"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(Version)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
