package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/param"
	"github.com/npsgd-project/npsgd/task"
)

// Worker is the polling driver: one live task at a time, per the
// single-worker-goroutine model the original implementation uses.
type Worker struct {
	Client   *Client
	Registry *model.Registry
	Cfg      *config.Provider
	Mail     *mailer.Dispatcher
	Logger   *slog.Logger
}

// Run polls until ctx is cancelled. Each iteration pulls at most one task
// and fully resolves it (success, failure, or a dropped duplicate) before
// asking for another.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		versions := w.Registry.Versions()
		t, result, err := w.Client.WorkTask(ctx, versions)
		sleep := w.Cfg.Get().Worker.RequestSleepTime.Duration

		if err != nil {
			w.Logger.Error("worker: request to queue failed", "error", err)
			sleepCtx(ctx, sleep)
			continue
		}

		switch result {
		case WorkEmptyQueue, WorkNoVersion:
			sleepCtx(ctx, sleep)
			continue
		}

		w.processTask(ctx, t)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// processTask runs exactly one task end to end: deserialize against the
// registered definition, heartbeat while running, resolve the result
// email, and always clean up the working directory.
func (w *Worker) processTask(ctx context.Context, t *task.Task) {
	def, ok := w.Registry.Get(model.Key{ShortName: t.ModelName, Version: t.ModelVersion})
	if !ok {
		w.Logger.Warn("worker: pulled task for a model version we no longer have", "task_id", t.ID, "model_name", t.ModelName)
		if err := w.Client.FailedTask(ctx, t.ID); err != nil {
			w.Logger.Error("worker: failed to report schema mismatch", "error", err)
		}
		return
	}

	values, err := resolveValues(def, t)
	if err != nil {
		w.Logger.Error("worker: failed to resolve parameter values", "task_id", t.ID, "error", err)
		w.reportFailure(ctx, t.ID)
		return
	}

	workDir, err := newWorkingDirectory(w.Cfg.Get().Worker.WorkDir)
	if err != nil {
		w.Logger.Error("worker: failed to create working directory", "task_id", t.ID, "error", err)
		w.reportFailure(ctx, t.ID)
		return
	}
	defer os.RemoveAll(workDir)

	stopHeartbeat := w.startHeartbeat(ctx, t.ID)
	runErr := w.runAndEmail(ctx, def, t, workDir, values)
	stopHeartbeat()

	if runErr != nil {
		w.Logger.Error("worker: task run failed", "task_id", t.ID, "error", runErr)
		w.reportFailure(ctx, t.ID)
	}
}

func (w *Worker) reportFailure(ctx context.Context, id int64) {
	if err := w.Client.FailedTask(ctx, id); err != nil {
		w.Logger.Error("worker: failed to report task failure", "task_id", id, "error", err)
	}
}

// runAndEmail executes the model, renders the result PDF, and sends the
// result email, checking worker_has_task immediately beforehand so a task
// the expiry sweeper already reclaimed doesn't produce a duplicate email.
func (w *Worker) runAndEmail(ctx context.Context, def *model.Definition, t *task.Task, workDir string, values map[string]param.Param) error {
	if err := runModel(ctx, def, workDir, values); err != nil {
		return err
	}

	outputs, err := collectOutputs(def, workDir)
	if err != nil {
		return err
	}

	body, err := renderLatexBody(def, values)
	if err != nil {
		return err
	}

	workerCfg := w.Cfg.Get().Worker
	pdf, err := runPDFLatex(ctx, workerCfg.LatexEngine, workDir, body, workerCfg.LatexNumRuns)
	if err != nil {
		return err
	}

	ok, err := w.Client.HasTask(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("worker: checking has_task before send: %w", err)
	}
	if !ok {
		w.Logger.Info("worker: task no longer in-flight, dropping result silently", "task_id", t.ID)
		return nil
	}

	msg := &mailer.Message{
		To:                t.EmailAddress,
		Subject:           fmt.Sprintf("Your %s results", def.ShortName),
		TextBody:          fmt.Sprintf("Your %s model run has completed. Results are attached.", def.ShortName),
		HTMLBody:          fmt.Sprintf("<p>Your %s model run has completed. Results are attached.</p>", def.ShortName),
		BinaryAttachments: append([]mailer.BinaryAttachment{{Name: "results.pdf", Data: pdf}}, outputs...),
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := w.Mail.BlockingSend(sendCtx, msg); err != nil {
		return fmt.Errorf("worker: sending result email: %w", err)
	}

	if err := w.Client.SucceedTask(ctx, t.ID); err != nil {
		w.Logger.Error("worker: failed to report success", "task_id", t.ID, "error", err)
	}
	return nil
}

// startHeartbeat launches a goroutine GETting worker_keep_alive_task on
// KeepAliveInterval until the returned stop function is called.
// Heartbeat failures are logged but never abort the run.
func (w *Worker) startHeartbeat(ctx context.Context, id int64) (stop func()) {
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.Cfg.Get().Worker.KeepAliveInterval.Duration)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.Client.KeepAlive(ctx, id); err != nil {
					w.Logger.Warn("worker: heartbeat failed", "task_id", id, "error", err)
				}
			}
		}
	}()
	return func() {
		close(stopCh)
		wg.Wait()
	}
}
