// Package queued implements the queue daemon: the only component holding
// durable state (pending tasks, in-flight tasks, confirmation entries and
// the id counter). The web frontend and worker driver are both thin
// clients of its HTTP surface.
package queued

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/confirmation"
	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/notify"
	"github.com/npsgd-project/npsgd/persist"
	"github.com/npsgd-project/npsgd/task"
	"github.com/npsgd-project/npsgd/taskqueue"
)

// Daemon holds every piece of state the queue owns. It is not itself a
// server.Daemon: its HTTP handlers are registered directly on the
// process's router, while its Sweeper and the shared mailer.Dispatcher and
// model.Loader are registered with server.Server as independent daemons.
type Daemon struct {
	cfg           *config.Provider
	registry      *model.Registry
	queue         *taskqueue.Queue
	confirmations *confirmation.Map
	mail          *mailer.Dispatcher
	loader        *model.Loader
	notifier      notify.Notifier
	logger        *slog.Logger

	persistMu sync.Mutex

	checkinMu         sync.Mutex
	lastWorkerCheckin time.Time
}

// NewDaemon wires together an already-constructed registry, queue,
// confirmation map, mail dispatcher and model loader under one
// request-handling surface.
func NewDaemon(cfg *config.Provider, registry *model.Registry, queue *taskqueue.Queue, confirmations *confirmation.Map, mail *mailer.Dispatcher, loader *model.Loader, notifier notify.Notifier, logger *slog.Logger) *Daemon {
	return &Daemon{
		cfg:           cfg,
		registry:      registry,
		queue:         queue,
		confirmations: confirmations,
		mail:          mail,
		loader:        loader,
		notifier:      notifier,
		logger:        logger,
	}
}

// touchWorkerCheckin records that a worker contacted the daemon at now.
func (d *Daemon) touchWorkerCheckin(now time.Time) {
	d.checkinMu.Lock()
	d.lastWorkerCheckin = now
	d.checkinMu.Unlock()
}

// hasWorkers reports whether any worker has checked in within
// keep_alive_timeout of now.
func (d *Daemon) hasWorkers(now time.Time) bool {
	d.checkinMu.Lock()
	last := d.lastWorkerCheckin
	d.checkinMu.Unlock()
	if last.IsZero() {
		return false
	}
	return now.Sub(last) < d.cfg.Get().Queue.KeepAliveTimeout.Duration
}

// persistSnapshot takes the persistence lock and writes the current
// durable state to the configured state file. Failures are logged, not
// returned: a persistence failure must never block request handling.
func (d *Daemon) persistSnapshot() {
	d.persistMu.Lock()
	defer d.persistMu.Unlock()

	snap := persist.Snapshot{
		Pending:   toDicts(d.queue.PendingSnapshot()),
		IDCounter: d.queue.IDCounter(),
	}
	for _, e := range d.confirmations.Entries() {
		snap.ConfirmationMap = append(snap.ConfirmationMap, persist.ConfirmationEntry{
			Code:      e.Code,
			Task:      e.Task.AsDict(),
			CreatedAt: e.CreatedAt,
		})
	}

	path := d.cfg.Get().Queue.StateFile
	if err := persist.Save(path, snap); err != nil {
		d.logger.Error("queued: failed to persist snapshot", "error", err)
		n := notify.NewTaskAlarm("persist", nil, "failed to write state snapshot")
		n.Fields["error"] = err.Error()
		d.alarm(context.Background(), n)
	}
}

func toDicts(tasks []*task.Task) []task.Dict {
	out := make([]task.Dict, len(tasks))
	for i, t := range tasks {
		out[i] = t.AsDict()
	}
	return out
}

// OnSweep is registered with a taskqueue.Sweeper (via NewSweeper's onSweep
// parameter): it queues failure emails for retired tasks and persists the
// post-sweep state.
func (d *Daemon) OnSweep(ctx context.Context, retired, requeued []*task.Task) {
	for _, t := range retired {
		d.queueFailureEmail(t, "your job exceeded its retry limit after repeated worker timeouts")
		d.alarm(ctx, notify.NewTaskAlarm("sweeper", t, "task retired after exceeding its retry limit"))
	}
	if len(retired) > 0 || len(requeued) > 0 {
		d.persistSnapshot()
	}
}

func (d *Daemon) queueFailureEmail(t *task.Task, reason string) {
	msg := failureEmail(t, reason)
	d.mail.Enqueue(msg)
}

func (d *Daemon) alarm(ctx context.Context, n notify.Notification) {
	if d.notifier == nil {
		return
	}
	_ = d.notifier.Send(ctx, n)
}
