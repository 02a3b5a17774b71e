package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/restyadapter/internal/app"
	"github.com/samvad-hq/restyadapter/internal/config"
	"github.com/samvad-hq/restyadapter/internal/logger"
	"github.com/samvad-hq/restyadapter/pkg/abstractions"
)

func main() {
	if err := run(); err != nil {
		if apiErr, ok := abstractions.IsApiError(err); ok {
			fmt.Fprintf(os.Stderr, "probe failed with status %d: %v\n", apiErr.ResponseStatusCode, err)
		} else {
			fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime, err := app.NewRuntime(cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize runtime", "error", err)
		return err
	}
	defer runtime.Close()

	result, err := runtime.Probe(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
