package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lk2023060901/rrdump/internal/cli"
)

func main() {
	// Interrupts cancel the in-flight request; the destination file is left untouched
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
