// Command npsgd-web runs the stateless client-facing web frontend: model
// forms and the confirm-submission link, both forwarded to the queue
// daemon. It holds no task state of its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/internal/applog"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/server"
	"github.com/npsgd-project/npsgd/webfrontend"
)

func main() {
	configPath := flag.String("c", "", "config file path (overrides embedded defaults)")
	logPath := flag.String("l", "-", "log file path, or - for stderr")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warn, error")
	flag.Parse()

	level := parseLevel(*logLevel)
	logger, closeLog, err := applog.New(*logPath, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "npsgd-web: failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("npsgd-web: failed to load config", "error", err)
		os.Exit(1)
	}
	// [server] is the shared net/http.Server tuning; this process listens
	// on [web].addr, not [server].addr, since the queue daemon and the web
	// frontend are separate processes with separate listen addresses.
	if cfg.Web.Addr != "" {
		cfg.Server.Addr = cfg.Web.Addr
	}
	provider := config.NewProvider(cfg)

	// The frontend needs the model registry only to render forms; it
	// never writes to it, so a local loader with its own scan interval is
	// enough, independent of the queue daemon's own loader.
	registry := model.NewRegistry()
	loader := &model.Loader{
		Dir:      cfg.Queue.ModelDir,
		Interval: cfg.Queue.ModelScanInterval.Duration,
		Registry: registry,
		Logger:   logger,
	}
	if err := loader.RescanNow(context.Background()); err != nil {
		logger.Error("npsgd-web: failed initial model scan", "error", err)
		os.Exit(1)
	}

	frontend := webfrontend.New(registry, provider, logger, 10*time.Second)

	srv := server.NewServer(provider, webfrontend.NewHandler(frontend), logger)
	srv.AddDaemon(loader)
	srv.OnReload(func() error {
		newCfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		provider.Update(newCfg)
		return nil
	})

	logger.Info("npsgd-web: starting", "addr", cfg.Server.Addr)
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
