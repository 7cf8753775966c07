// Package server provides the shared daemon lifecycle used by the queue
// daemon and web frontend binaries: an HTTP listener plus a set of
// background Daemons started right after, and stopped alongside, that
// listener.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/npsgd-project/npsgd/config"
	"golang.org/x/sync/errgroup"
)

// Daemon defines the contract for background components managed by the
// server's lifecycle (Start/Stop).
type Daemon interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

// ReloadFunc re-reads configuration from disk and, on success, swaps it
// into the provider. Returning an error leaves the running config intact.
type ReloadFunc func() error

type Server struct {
	configProvider *config.Provider
	handler        http.Handler
	logger         *slog.Logger
	daemons        []Daemon
	onReload       ReloadFunc
}

// NewServer constructs a Server; daemons are added via AddDaemon, and an
// optional reload hook is set via OnReload.
func NewServer(provider *config.Provider, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		configProvider: provider,
		handler:        handler,
		logger:         logger,
	}
}

// AddDaemon registers a daemon for lifecycle management.
func (s *Server) AddDaemon(daemon Daemon) {
	if daemon == nil {
		s.logger.Warn("server: attempted to add a nil daemon")
		return
	}
	s.logger.Info("server: adding daemon", "daemon_name", daemon.Name())
	s.daemons = append(s.daemons, daemon)
}

// OnReload sets the hook invoked on SIGHUP.
func (s *Server) OnReload(fn ReloadFunc) { s.onReload = fn }

func (s *Server) handleSIGHUP() {
	s.logger.Info("server: received SIGHUP, reloading configuration")
	if s.onReload == nil {
		return
	}
	if err := s.onReload(); err != nil {
		s.logger.Error("server: configuration reload failed", "error", err)
		return
	}
	s.logger.Info("server: configuration reloaded")
}

// Run starts the HTTP listener and every registered daemon, then blocks
// until a termination signal or a fatal error, and performs a graceful
// shutdown of both. It calls os.Exit and does not return.
func (s *Server) Run() {
	serverCfg := s.configProvider.Get().Server

	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       serverCfg.ReadTimeout.Duration,
		ReadHeaderTimeout: serverCfg.ReadHeaderTimeout.Duration,
		WriteTimeout:      serverCfg.WriteTimeout.Duration,
		IdleTimeout:       serverCfg.IdleTimeout.Duration,
	}

	serverError := make(chan error, 1)
	go func() {
		s.logger.Info("server: starting HTTP listener", "addr", serverCfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server: listener error", "err", err)
			serverError <- err
		}
	}()

	s.logger.Info("server: starting daemons")
	var startupFailed bool
	for _, daemon := range s.daemons {
		if err := daemon.Start(); err != nil {
			s.logger.Error("server: daemon failed to start", "daemon_name", daemon.Name(), "error", err)
			serverError <- fmt.Errorf("daemon %q failed to start: %w", daemon.Name(), err)
			startupFailed = true
			break
		}
		s.logger.Info("server: daemon started", "daemon_name", daemon.Name())
	}
	if !startupFailed {
		s.logger.Info("server: all daemons started")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP)

	running := true
	for running {
		select {
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGINT, syscall.SIGQUIT:
				s.logger.Info("server: received termination signal, shutting down", "signal", sig)
				running = false
			case syscall.SIGHUP:
				s.handleSIGHUP()
			}
		case err := <-serverError:
			s.logger.Error("server: shutting down due to error", "err", err)
			running = false
		}
	}
	signal.Stop(sigChan)
	close(sigChan)

	shutdownTimeout := s.configProvider.Get().Server.ShutdownGracefulTimeout.Duration
	gracefulCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownGroup, _ := errgroup.WithContext(gracefulCtx)

	shutdownGroup.Go(func() error {
		s.logger.Info("server: shutting down HTTP listener")
		if err := srv.Shutdown(gracefulCtx); err != nil {
			s.logger.Error("server: HTTP shutdown error", "err", err)
			return err
		}
		return nil
	})

	for _, d := range s.daemons {
		daemon := d
		shutdownGroup.Go(func() error {
			s.logger.Info("server: stopping daemon", "daemon_name", daemon.Name())
			if err := daemon.Stop(gracefulCtx); err != nil {
				s.logger.Error("server: daemon failed to stop", "daemon_name", daemon.Name(), "error", err)
				return fmt.Errorf("daemon %q failed to stop gracefully: %w", daemon.Name(), err)
			}
			return nil
		})
	}

	if err := shutdownGroup.Wait(); err != nil {
		s.logger.Error("server: error during shutdown", "err", err)
		os.Exit(1)
	}

	s.logger.Info("server: all systems stopped gracefully")
	os.Exit(0)
}
