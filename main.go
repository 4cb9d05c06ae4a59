package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dpshade/promptlib/internal/cli"
)

var version = "0.2.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, version)
	cancel()
	os.Exit(code)
}
