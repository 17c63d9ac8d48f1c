// Command historycourt turns browsing histories into "two truths and a lie"
// rounds.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/historycourt/internal/adapters/driving/cli"
	"github.com/custodia-labs/historycourt/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = ""

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(os.Getenv(envConfigDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetServices(a.services)
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
