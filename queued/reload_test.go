package queued

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/npsgd-project/npsgd/config"
	"github.com/npsgd-project/npsgd/mailer"
	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/param"
	"github.com/npsgd-project/npsgd/persist"
	"github.com/npsgd-project/npsgd/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadStateKeepsKnownModelsAndDropsUnknown(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")

	known := task.Dict{TaskID: 1, ModelName: "abmu", ModelVersion: "v1"}
	unknown := task.Dict{TaskID: 2, ModelName: "gone", ModelVersion: "v9"}
	snap := persist.Snapshot{Pending: []task.Dict{known, unknown}, IDCounter: 5}
	require.NoError(t, persist.Save(statePath, snap))

	cfg := &config.Config{Queue: config.Queue{
		StateFile:      statePath,
		ConfirmTimeout: config.Duration{Duration: time.Hour},
	}}

	registry := model.NewRegistry()
	registry.Upsert(&model.Definition{
		ShortName:  "abmu",
		Version:    "v1",
		Kind:       model.KindStandalone,
		Parameters: []param.Param{param.NewIntParam("n", "n", "", false, 0, 0, false, false)},
		Runner:     &model.StandaloneRunner{Command: "/bin/true"},
	})

	mail := mailer.New(func() config.Smtp { return cfg.Smtp }, testLogger())

	queue, confirmations, err := LoadState(cfg, registry, mail, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, queue.PendingLen())
	assert.Equal(t, int64(5), queue.IDCounter())
	assert.Equal(t, 0, confirmations.Len())
}

func TestLoadStateMissingFileStartsEmpty(t *testing.T) {
	cfg := &config.Config{Queue: config.Queue{
		StateFile:      filepath.Join(t.TempDir(), "missing.json"),
		ConfirmTimeout: config.Duration{Duration: time.Hour},
	}}
	registry := model.NewRegistry()
	mail := mailer.New(func() config.Smtp { return cfg.Smtp }, testLogger())

	queue, confirmations, err := LoadState(cfg, registry, mail, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, queue.PendingLen())
	assert.Equal(t, 0, confirmations.Len())
}
