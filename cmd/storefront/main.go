package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/museeloquente/storefront/internal/app"
	"github.com/museeloquente/storefront/pkg/config"
	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
	"github.com/museeloquente/storefront/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to start", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logg.Error(ctx, "error closing local state", err)
		}
	}()

	if err := application.Run(ctx, os.Args[1:]); err != nil {
		renderFailure(err)
		os.Exit(1)
	}
}

// renderFailure turns a coded error into the terminal message the shopper
// acts on; everything is non-fatal and leaves the flow retryable.
func renderFailure(err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	fmt.Fprintf(os.Stderr, "error: %s\n", typed.Message())
	if details, ok := typed.Details().(map[string]string); ok {
		for field, message := range details {
			fmt.Fprintf(os.Stderr, "  %s %s\n", field, message)
		}
	}
	fmt.Fprintf(os.Stderr, "%s\n", typed.UserMessage())
}
