package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	app "github.com/valter-silva-au/confluence-assistant/internal"
	"github.com/valter-silva-au/confluence-assistant/internal/cli"
	"github.com/valter-silva-au/confluence-assistant/internal/config"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)

	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	basePath := app.ResolveBasePath()
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directory: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg, basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing cfa: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	if err := cli.ExecuteContext(ctx); err != nil {
		_ = a.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
