// Command npsgd-worker runs the polling driver: it has no inbound HTTP
// surface of its own, only outbound calls to the queue daemon, so it
// manages its own lifecycle rather than using server.Server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/internal/applog"
	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/worker"
)

func main() {
	configPath := flag.String("c", "", "config file path (overrides embedded defaults)")
	logPath := flag.String("l", "-", "log file path, or - for stderr")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warn, error")
	flag.Parse()

	level := parseLevel(*logLevel)
	logger, closeLog, err := applog.New(*logPath, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "npsgd-worker: failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("npsgd-worker: failed to load config", "error", err)
		os.Exit(1)
	}
	provider := config.NewProvider(cfg)

	if err := os.MkdirAll(cfg.Worker.WorkDir, 0755); err != nil {
		logger.Error("npsgd-worker: failed to create work directory", "dir", cfg.Worker.WorkDir, "error", err)
		os.Exit(1)
	}

	registry := model.NewRegistry()
	loader := &model.Loader{
		Dir:      cfg.Worker.ModelDir,
		Interval: 60 * time.Second,
		Registry: registry,
		Logger:   logger,
	}
	if err := loader.Start(); err != nil {
		logger.Error("npsgd-worker: failed to start model loader", "error", err)
		os.Exit(1)
	}

	mail := mailer.New(func() config.Smtp { return provider.Get().Smtp }, logger)
	if err := mail.Start(); err != nil {
		logger.Error("npsgd-worker: failed to start mail dispatcher", "error", err)
		os.Exit(1)
	}

	w := &worker.Worker{
		Client:   worker.NewClient(cfg.Worker.QueueBaseURL, cfg.Worker.RequestSecret),
		Registry: registry,
		Cfg:      provider,
		Mail:     mail,
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("npsgd-worker: starting", "queue", cfg.Worker.QueueBaseURL)
	w.Run(ctx)

	logger.Info("npsgd-worker: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := loader.Stop(shutdownCtx); err != nil {
		logger.Error("npsgd-worker: model loader failed to stop cleanly", "error", err)
	}
	if err := mail.Stop(shutdownCtx); err != nil {
		logger.Error("npsgd-worker: mail dispatcher failed to stop cleanly", "error", err)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
