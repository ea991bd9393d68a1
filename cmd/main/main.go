package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"bestsellers/scraper/internal/config"
	"bestsellers/scraper/internal/container"
	"bestsellers/scraper/internal/domain"

	log "github.com/sirupsen/logrus"
)

const (
	exitOK     = 0
	exitSetup  = 1 // argument, configuration or output errors
	exitFailed = 2 // at least one page could not be fetched or parsed
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	outputPath, err := parseArgs(args)
	if err != nil {
		log.Errorf("❌ %v", err)
		log.Error("Usage: scraper <output-file>")
		return exitSetup
	}

	log.Info("Starting best-seller scraper...")

	cfg, err := config.Load()
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		return exitSetup
	}
	configureLogging(cfg.Log)
	log.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg, outputPath)
	if err != nil {
		log.Errorf("Failed to initialize container: %v", err)
		return exitSetup
	}

	report, runErr := app.Run(ctx)
	if err := app.Close(); err != nil && runErr == nil {
		runErr = err
	}

	if runErr != nil {
		log.Errorf("Application exited with error: %v", runErr)
		if errors.Is(runErr, context.Canceled) {
			return exitFailed
		}
		return exitSetup
	}

	log.Infof("Identifiers have been saved to file: %s", outputPath)

	if failures := report.FailureCount(); failures > 0 {
		log.Warnf("⚠️ Finished with %d failed seeds or branches", failures)
		return exitFailed
	}

	log.Info("Application finished successfully")
	return exitOK
}

func parseArgs(args []string) (string, error) {
	if len(args) < 1 || args[0] == "" {
		return "", &domain.ArgumentError{Name: "output filename"}
	}
	return args[0], nil
}

func configureLogging(cfg config.LogConfig) {
	if level, err := log.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, keeping %s", cfg.Level, log.GetLevel())
	}

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
