package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/laws-africa/akn-migrate/internal/cli"
	"github.com/laws-africa/akn-migrate/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.RunBB(ctx, os.Args[1:], os.Stdout)
	stop()
	if err == nil || cli.IsHelp(err) {
		return
	}
	logger := logging.BuildLogger("info", "text")
	logger.Error("bb-migrate failed", "error", err)
	os.Exit(1)
}
