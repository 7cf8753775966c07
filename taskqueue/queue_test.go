package taskqueue

import (
	"testing"
	"time"

	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullMatchingFIFOWithinEligibleSubset(t *testing.T) {
	q := New(0)
	now := time.Now()

	q.Enqueue(&task.Task{ID: 1, ModelName: "abmu", ModelVersion: "v1"})
	q.Enqueue(&task.Task{ID: 2, ModelName: "abmu", ModelVersion: "v2"})
	q.Enqueue(&task.Task{ID: 3, ModelName: "abmu", ModelVersion: "v1"})

	versions := map[model.Key]struct{}{{ShortName: "abmu", Version: "v1"}: {}}

	got, result := q.PullMatching(versions, now)
	require.Equal(t, Pulled, result)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 1, q.InFlightLen())
	assert.Equal(t, 2, q.PendingLen())
}

func TestPullMatchingNoVersion(t *testing.T) {
	q := New(0)
	q.Enqueue(&task.Task{ID: 1, ModelName: "abmu", ModelVersion: "v2"})

	versions := map[model.Key]struct{}{{ShortName: "abmu", Version: "v1"}: {}}
	_, result := q.PullMatching(versions, time.Now())
	assert.Equal(t, NoVersion, result)
}

func TestPullMatchingEmptyQueue(t *testing.T) {
	q := New(0)
	_, result := q.PullMatching(map[model.Key]struct{}{}, time.Now())
	assert.Equal(t, EmptyQueue, result)
}

func TestFailRequeuesWithNewStrictlyGreaterID(t *testing.T) {
	q := New(1)
	now := time.Now()
	q.Enqueue(&task.Task{ID: 1, ModelName: "abmu", ModelVersion: "v1"})
	q.PullMatching(map[model.Key]struct{}{{ShortName: "abmu", Version: "v1"}: {}}, now)

	updated, outcome := q.Fail(1, 5, now)
	require.Equal(t, Requeued, outcome)
	assert.Greater(t, updated.ID, int64(1))
	assert.Equal(t, 1, updated.FailureCount)
	assert.Equal(t, 1, q.PendingLen())
}

func TestFailRetiresAtCap(t *testing.T) {
	q := New(0)
	now := time.Now()
	q.Enqueue(&task.Task{ID: 1, ModelName: "abmu", ModelVersion: "v1", FailureCount: 1})
	q.PullMatching(map[model.Key]struct{}{{ShortName: "abmu", Version: "v1"}: {}}, now)

	_, outcome := q.Fail(1, 2, now)
	assert.Equal(t, Retired, outcome)
	assert.Equal(t, 0, q.PendingLen())
}

func TestSweepExpiredRetiresAndRequeues(t *testing.T) {
	q := New(0)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q.Enqueue(&task.Task{ID: 1, ModelName: "a", ModelVersion: "v1", FailureCount: 0})
	q.Enqueue(&task.Task{ID: 2, ModelName: "a", ModelVersion: "v1", FailureCount: 5})
	q.PullMatching(map[model.Key]struct{}{{ShortName: "a", Version: "v1"}: {}}, base)
	q.PullMatching(map[model.Key]struct{}{{ShortName: "a", Version: "v1"}: {}}, base)

	retired, requeued := q.SweepExpired(time.Minute, 5, base.Add(2*time.Minute))
	assert.Len(t, retired, 1)
	assert.Len(t, requeued, 1)
}

func TestHasTaskAndSucceed(t *testing.T) {
	q := New(0)
	now := time.Now()
	q.Enqueue(&task.Task{ID: 1, ModelName: "a", ModelVersion: "v1"})
	q.PullMatching(map[model.Key]struct{}{{ShortName: "a", Version: "v1"}: {}}, now)

	assert.True(t, q.HasTask(1))
	_, ok := q.Succeed(1)
	assert.True(t, ok)
	assert.False(t, q.HasTask(1))
}
