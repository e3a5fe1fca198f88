package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oraportal/claude-api/internal/cli"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], cli.Options{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})
	stop()
	os.Exit(code)
}
