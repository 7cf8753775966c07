package queued

import (
	"log/slog"

	"github.com/npsgd-project/npsgd/confirmation"
	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/persist"
	"github.com/npsgd-project/npsgd/task"
	"github.com/npsgd-project/npsgd/taskqueue"
)

// LoadState rebuilds the queue and confirmation map from the persisted
// snapshot, if one exists. registry must already reflect a completed model
// scan, so a pending or confirmed task whose (name, version) is no longer
// known can be distinguished from one that simply hasn't loaded yet. Any
// such orphaned entry is dropped and its owner emailed a loss notice
// instead of being silently discarded.
//
// In-flight entries are never persisted, so every task in-flight at
// shutdown is simply absent on restart; a worker still holding one
// discovers this itself via worker_has_task and drops its result.
func LoadState(cfg *config.Config, registry *model.Registry, mail *mailer.Dispatcher, logger *slog.Logger) (*taskqueue.Queue, *confirmation.Map, error) {
	confirmations := confirmation.New(cfg.Queue.ConfirmTimeout.Duration)

	snap, ok, err := persist.Load(cfg.Queue.StateFile)
	if err != nil {
		logger.Error("queued: state file is corrupt, starting empty", "error", err)
		return taskqueue.New(0), confirmations, nil
	}
	if !ok {
		return taskqueue.New(0), confirmations, nil
	}

	var pending []*task.Task
	for _, dict := range snap.Pending {
		t := task.FromDict(dict)
		if !registry.Has(model.Key{ShortName: t.ModelName, Version: t.ModelVersion}) {
			logger.Warn("queued: dropping pending task for unregistered model version on reload",
				"task_id", t.ID, "model_name", t.ModelName, "model_version", t.ModelVersion)
			mail.Enqueue(lostJobEmail(t))
			continue
		}
		pending = append(pending, t)
	}

	for _, entry := range snap.ConfirmationMap {
		t := task.FromDict(entry.Task)
		if !registry.Has(model.Key{ShortName: t.ModelName, Version: t.ModelVersion}) {
			logger.Warn("queued: dropping confirmation entry for unregistered model version on reload",
				"task_id", t.ID, "model_name", t.ModelName, "model_version", t.ModelVersion)
			mail.Enqueue(lostJobEmail(t))
			continue
		}
		expiresAt := entry.CreatedAt.Add(cfg.Queue.ConfirmTimeout.Duration)
		if err := confirmations.PutCode(entry.Code, t, entry.CreatedAt, expiresAt); err != nil {
			logger.Error("queued: duplicate confirmation code on reload, dropping", "code", entry.Code, "error", err)
		}
	}

	queue := taskqueue.New(snap.IDCounter)
	queue.LoadPending(pending)

	logger.Info("queued: reloaded state", "pending", len(pending), "confirmations", confirmations.Len())
	return queue, confirmations, nil
}

