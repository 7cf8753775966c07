package persist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/npsgd-project/npsgd/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	snap := Snapshot{
		Pending: []task.Dict{{TaskID: 1, EmailAddress: "a@b.com"}},
		ConfirmationMap: []ConfirmationEntry{
			{Code: "ABCD", Task: task.Dict{TaskID: 2}, CreatedAt: time.Now().UTC().Truncate(time.Second)},
		},
		IDCounter: 5,
	}

	require.NoError(t, Save(path, snap))

	loaded, ok, err := Load(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, loaded)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	_, ok, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, writeFile(path, "{not json"))

	_, ok, err := Load(path)
	assert.Error(t, err)
	assert.False(t, ok)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0644)
}
