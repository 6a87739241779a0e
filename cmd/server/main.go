package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/rental-booking/internal/app"
	"github.com/iliyamo/rental-booking/internal/config"
	"github.com/iliyamo/rental-booking/internal/logger"
)

const serviceName = "rental-booking"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrate := pflag.Bool("migrate", true, "apply pending schema migrations at startup")
	modeFlag := pflag.String("mode", string(app.ModeAll), "loops to run: all (HTTP + notification consumer), api or consumer")
	pflag.Parse()

	mode, err := app.ParseMode(*modeFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(serviceName, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	defer startCancel()
	application, err := app.New(startCtx, cfg, log, app.Options{Migrate: *migrate, Mode: mode})
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}
	log.Info("service stopped")
	return nil
}
