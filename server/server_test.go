package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDaemon struct {
	name    string
	started atomic.Bool
	stopped atomic.Bool
}

func (f *fakeDaemon) Name() string { return f.name }
func (f *fakeDaemon) Start() error { f.started.Store(true); return nil }
func (f *fakeDaemon) Stop(ctx context.Context) error {
	f.stopped.Store(true)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownGracefulTimeout = config.Duration{Duration: time.Second}
	cfg.Server.ReadTimeout = config.Duration{Duration: time.Second}
	cfg.Server.ReadHeaderTimeout = config.Duration{Duration: time.Second}
	cfg.Server.WriteTimeout = config.Duration{Duration: time.Second}
	cfg.Server.IdleTimeout = config.Duration{Duration: time.Second}
	return cfg
}

func TestAddDaemonIgnoresNil(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := config.NewProvider(testConfig())
	s := NewServer(provider, http.NewServeMux(), logger)

	s.AddDaemon(nil)
	assert.Empty(t, s.daemons)

	d := &fakeDaemon{name: "fake"}
	s.AddDaemon(d)
	require.Len(t, s.daemons, 1)
}

func TestOnReloadInvokedOnHook(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := config.NewProvider(testConfig())
	s := NewServer(provider, http.NewServeMux(), logger)

	var called atomic.Bool
	s.OnReload(func() error {
		called.Store(true)
		return nil
	})
	s.handleSIGHUP()
	assert.True(t, called.Load())
}
