package queued

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/npsgd-project/npsgd/persist"
	"github.com/npsgd-project/npsgd/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistSnapshotRoundTrips(t *testing.T) {
	d := testDaemon(t)
	statePath := filepath.Join(t.TempDir(), "state.json")
	d.cfg.Get().Queue.StateFile = statePath

	d.queue.Enqueue(mustTask())
	d.confirmations.Put(mustTask(), time.Now())

	d.persistSnapshot()

	snap, ok, err := persist.Load(statePath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, snap.Pending, 1)
	assert.Len(t, snap.ConfirmationMap, 1)
}

func TestOnSweepPersistsAfterRetirement(t *testing.T) {
	d := testDaemon(t)
	statePath := filepath.Join(t.TempDir(), "state.json")
	d.cfg.Get().Queue.StateFile = statePath

	retired := mustTask()
	d.OnSweep(context.Background(), []*task.Task{retired}, nil)

	_, ok, err := persist.Load(statePath)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOnSweepNoOpWhenNothingChanged(t *testing.T) {
	d := testDaemon(t)
	statePath := filepath.Join(t.TempDir(), "state.json")
	d.cfg.Get().Queue.StateFile = statePath

	d.OnSweep(context.Background(), nil, nil)

	_, ok, err := persist.Load(statePath)
	require.NoError(t, err)
	assert.False(t, ok)
}
