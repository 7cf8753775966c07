package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/param"
	"github.com/npsgd-project/npsgd/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRunner always errors, standing in for a model binary that cannot
// run in this environment; it lets processTask's failure-reporting path be
// exercised without touching LaTeX or SMTP.
type failingRunner struct{}

func (failingRunner) Run(ctx context.Context, workDir string, values map[string]param.Param) error {
	return fmt.Errorf("boom")
}

// fakeQueue is a minimal stand-in for the queue daemon's worker-facing
// endpoints, recording which ones were hit.
type fakeQueue struct {
	mu  sync.Mutex
	hit map[string]int

	task *task.Dict
}

func newFakeQueue() *fakeQueue { return &fakeQueue{hit: make(map[string]int)} }

func (f *fakeQueue) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hit[name]++
}

func (f *fakeQueue) hits(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hit[name]
}

func (f *fakeQueue) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/worker_work_task", func(w http.ResponseWriter, r *http.Request) {
		f.record("work_task")
		if f.task == nil {
			fmt.Fprint(w, `{"status":"empty_queue"}`)
			return
		}
		fmt.Fprintf(w, `{"task":{"taskId":%d,"emailAddress":%q,"modelName":%q,"modelVersion":%q}}`,
			f.task.TaskID, f.task.EmailAddress, f.task.ModelName, f.task.ModelVersion)
	})
	mux.HandleFunc("/worker_keep_alive_task/", func(w http.ResponseWriter, r *http.Request) {
		f.record("keep_alive")
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/worker_has_task/", func(w http.ResponseWriter, r *http.Request) {
		f.record("has_task")
		fmt.Fprint(w, `{"status":"yes"}`)
	})
	mux.HandleFunc("/worker_succeed_task/", func(w http.ResponseWriter, r *http.Request) {
		f.record("succeed_task")
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/worker_failed_task/", func(w http.ResponseWriter, r *http.Request) {
		f.record("failed_task")
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	return httptest.NewServer(mux)
}

func testWorkerConfig() *config.Provider {
	return config.NewProvider(&config.Config{
		Worker: config.Worker{
			RequestSleepTime: config.Duration{Duration: 10 * time.Millisecond},
			KeepAliveInterval: config.Duration{Duration: 5 * time.Millisecond},
			WorkDir:           os.TempDir(),
			LatexEngine:       "pdflatex",
			LatexNumRuns:      1,
		},
	})
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(os.Stdout, nil)) }

func TestProcessTaskReportsFailureForUnknownModelVersion(t *testing.T) {
	fq := newFakeQueue()
	fq.task = &task.Dict{TaskID: 1, EmailAddress: "a@b.com", ModelName: "unknown", ModelVersion: "v1"}
	srv := fq.server()
	defer srv.Close()

	w := &Worker{
		Client:   NewClient(srv.URL, "secret"),
		Registry: model.NewRegistry(),
		Cfg:      testWorkerConfig(),
		Mail:     mailer.New(func() config.Smtp { return config.Smtp{} }, testLogger()),
		Logger:   testLogger(),
	}

	tk := task.FromDict(*fq.task)
	w.processTask(context.Background(), tk)

	assert.Equal(t, 1, fq.hits("failed_task"))
	assert.Equal(t, 0, fq.hits("succeed_task"))
}

func TestProcessTaskReportsFailureWhenRunnerErrors(t *testing.T) {
	fq := newFakeQueue()
	fq.task = &task.Dict{TaskID: 2, EmailAddress: "a@b.com", ModelName: "abmu", ModelVersion: "v1"}
	srv := fq.server()
	defer srv.Close()

	registry := model.NewRegistry()
	registry.Upsert(&model.Definition{
		ShortName:   "abmu",
		Version:     "v1",
		Kind:        model.KindStandalone,
		Parameters:  []param.Param{param.NewBoolParam("verbose", "Verbose output", false)},
		OutputFiles: nil,
		BodyText:    "body",
		Runner:      failingRunner{},
	})

	w := &Worker{
		Client:   NewClient(srv.URL, "secret"),
		Registry: registry,
		Cfg:      testWorkerConfig(),
		Mail:     mailer.New(func() config.Smtp { return config.Smtp{} }, testLogger()),
		Logger:   testLogger(),
	}

	tk := task.FromDict(*fq.task)
	w.processTask(context.Background(), tk)

	require.Equal(t, 1, fq.hits("failed_task"))
	assert.Equal(t, 0, fq.hits("succeed_task"))
	assert.Equal(t, 0, fq.hits("has_task"))
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	fq := newFakeQueue() // task stays nil: every poll reports empty_queue
	srv := fq.server()
	defer srv.Close()

	w := &Worker{
		Client:   NewClient(srv.URL, "secret"),
		Registry: model.NewRegistry(),
		Cfg:      testWorkerConfig(),
		Mail:     mailer.New(func() config.Smtp { return config.Smtp{} }, testLogger()),
		Logger:   testLogger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	assert.Greater(t, fq.hits("work_task"), 0)
}
