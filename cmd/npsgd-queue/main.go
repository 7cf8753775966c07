// Command npsgd-queue runs the queue daemon: the only component holding
// durable task state. The web frontend and worker driver both talk to it
// over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/confirmation"
	"github.com/npsgd-project/npsgd/internal/applog"
	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/notify"
	"github.com/npsgd-project/npsgd/notify/discord"
	"github.com/npsgd-project/npsgd/queued"
	"github.com/npsgd-project/npsgd/server"
	"github.com/npsgd-project/npsgd/taskqueue"
)

func main() {
	configPath := flag.String("c", "", "config file path (overrides embedded defaults)")
	logPath := flag.String("l", "-", "log file path, or - for stderr")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warn, error")
	flag.Parse()

	level := parseLevel(*logLevel)
	logger, closeLog, err := applog.New(*logPath, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "npsgd-queue: failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("npsgd-queue: failed to load config", "error", err)
		os.Exit(1)
	}
	provider := config.NewProvider(cfg)

	registry := model.NewRegistry()
	loader := &model.Loader{
		Dir:      cfg.Queue.ModelDir,
		Interval: cfg.Queue.ModelScanInterval.Duration,
		Registry: registry,
		Logger:   logger,
	}
	// RescanNow runs one synchronous scan so the registry is populated
	// before LoadState needs it to validate persisted (name, version)
	// pairs; Start (added as a server.Daemon below) takes over the
	// periodic/fsnotify-driven scanning from here.
	if err := loader.RescanNow(context.Background()); err != nil {
		logger.Error("npsgd-queue: failed initial model scan", "error", err)
		os.Exit(1)
	}

	mail := mailer.New(func() config.Smtp { return provider.Get().Smtp }, logger)

	queue, confirmations, err := queued.LoadState(cfg, registry, mail, logger)
	if err != nil {
		logger.Error("npsgd-queue: failed to load persisted state", "error", err)
		os.Exit(1)
	}

	var notifier notify.Notifier = notify.NewNilNotifier()
	if url := cfg.Queue.AlarmDiscordWebhookURL; url != "" {
		dn, err := discord.New(discord.Options{WebhookURL: url}, logger)
		if err != nil {
			logger.Error("npsgd-queue: failed to start discord notifier", "error", err)
			os.Exit(1)
		}
		notifier = dn
	}

	daemon := queued.NewDaemon(provider, registry, queue, confirmations, mail, loader, notifier, logger)

	sweeper := taskqueue.NewSweeper(
		queue,
		func() time.Duration { return provider.Get().Queue.KeepAliveInterval.Duration },
		func() time.Duration { return provider.Get().Queue.KeepAliveTimeout.Duration },
		func() int { return provider.Get().Queue.MaxJobFailures },
		daemon.OnSweep,
		logger,
	)

	srv := server.NewServer(provider, queued.NewHandler(daemon), logger)
	srv.AddDaemon(loader)
	srv.AddDaemon(mail)
	srv.AddDaemon(sweeper)
	srv.OnReload(func() error {
		newCfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		provider.Update(newCfg)
		return nil
	})

	logger.Info("npsgd-queue: starting", "addr", cfg.Server.Addr)
	srv.Run()
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
