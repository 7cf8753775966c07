// Package webfrontend is the stateless client-facing HTTP surface: it
// renders model forms from the locally loaded registry and forwards
// submissions and confirmations to the queue daemon over HTTP. It holds
// no task state of its own.
package webfrontend

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/model"
)

// Frontend holds everything a request handler needs: the model registry
// (for form rendering), a client bound to the queue daemon, and the
// per-IP confirm-code rate limiter.
type Frontend struct {
	Registry *model.Registry
	Cfg      *config.Provider
	Queue    *queueClient
	Logger   *slog.Logger
	limiter  *ipLimiter
}

// New builds a Frontend. queueTimeout bounds every call the frontend
// makes to the queue daemon, so a stalled queue never wedges a request
// goroutine indefinitely.
func New(registry *model.Registry, cfg *config.Provider, logger *slog.Logger, queueTimeout time.Duration) *Frontend {
	return &Frontend{
		Registry: registry,
		Cfg:      cfg,
		Logger:   logger,
		Queue: &queueClient{
			http: &http.Client{Timeout: queueTimeout},
			cfg:  cfg,
		},
		limiter: newIPLimiter(),
	}
}
