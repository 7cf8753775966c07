// Package taskqueue implements the two-stage task queue: a pending FIFO
// queue and an in-flight set keyed by task id with heartbeat timestamps.
package taskqueue

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/npsgd-project/npsgd/model"
	"github.com/npsgd-project/npsgd/task"
)

type inFlightEntry struct {
	task          *task.Task
	lastHeartbeat time.Time
}

// Queue holds the pending slice and in-flight map behind independent
// mutexes per spec's lock-ordering: registry, then confirmation map, then
// queue, then id counter.
type Queue struct {
	pendingMu sync.Mutex
	pending   []*task.Task

	inFlightMu sync.Mutex
	inFlight   map[int64]*inFlightEntry

	nextID atomic.Int64
}

// New returns an empty queue whose id counter starts at startID.
func New(startID int64) *Queue {
	q := &Queue{inFlight: make(map[int64]*inFlightEntry)}
	q.nextID.Store(startID)
	return q
}

// NextID returns a fresh, strictly increasing task id.
func (q *Queue) NextID() int64 { return q.nextID.Add(1) }

// IDCounter returns the current counter value, for persistence.
func (q *Queue) IDCounter() int64 { return q.nextID.Load() }

// Enqueue appends t to the tail of pending.
func (q *Queue) Enqueue(t *task.Task) {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	q.pending = append(q.pending, t)
}

// PullResult classifies the outcome of PullMatching.
type PullResult int

const (
	Pulled PullResult = iota
	EmptyQueue
	NoVersion
)

// PullMatching scans pending in FIFO order and moves the first task whose
// (ModelName, ModelVersion) is a key in versions into the in-flight set.
func (q *Queue) PullMatching(versions map[model.Key]struct{}, now time.Time) (*task.Task, PullResult) {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()

	if len(q.pending) == 0 {
		return nil, EmptyQueue
	}

	for i, t := range q.pending {
		key := model.Key{ShortName: t.ModelName, Version: t.ModelVersion}
		if _, ok := versions[key]; !ok {
			continue
		}
		q.pending = append(q.pending[:i:i], q.pending[i+1:]...)
		q.inFlightMu.Lock()
		q.inFlight[t.ID] = &inFlightEntry{task: t, lastHeartbeat: now}
		q.inFlightMu.Unlock()
		return t, Pulled
	}
	return nil, NoVersion
}

// KeepAlive refreshes the heartbeat for id, reporting false if id is not
// currently in-flight.
func (q *Queue) KeepAlive(id int64, now time.Time) bool {
	q.inFlightMu.Lock()
	defer q.inFlightMu.Unlock()
	e, ok := q.inFlight[id]
	if !ok {
		return false
	}
	e.lastHeartbeat = now
	return true
}

// HasTask reports whether id is still in the in-flight set.
func (q *Queue) HasTask(id int64) bool {
	q.inFlightMu.Lock()
	defer q.inFlightMu.Unlock()
	_, ok := q.inFlight[id]
	return ok
}

// Succeed removes id from in-flight, returning the task and whether it was
// present.
func (q *Queue) Succeed(id int64) (*task.Task, bool) {
	q.inFlightMu.Lock()
	defer q.inFlightMu.Unlock()
	e, ok := q.inFlight[id]
	if !ok {
		return nil, false
	}
	delete(q.inFlight, id)
	return e.task, true
}

// FailOutcome classifies the result of Fail or a sweep retirement.
type FailOutcome int

const (
	Requeued FailOutcome = iota
	Retired
	UnknownID
)

// Fail removes id from in-flight, increments its failure count, and either
// retires it (failure_count >= maxFailures, the explicit-report cap per the
// chosen comparator) or re-queues it with a freshly assigned id.
func (q *Queue) Fail(id int64, maxFailures int, now time.Time) (*task.Task, FailOutcome) {
	q.inFlightMu.Lock()
	e, ok := q.inFlight[id]
	if !ok {
		q.inFlightMu.Unlock()
		return nil, UnknownID
	}
	delete(q.inFlight, id)
	q.inFlightMu.Unlock()

	t := e.task
	t.FailureCount++
	if t.FailureCount >= maxFailures {
		return t, Retired
	}

	t.ID = q.NextID()
	q.Enqueue(t)
	return t, Requeued
}

// SweepExpired retires or requeues every in-flight entry whose heartbeat is
// at or before now-timeout. The sweeper comparator is "> maxFailures",
// distinct from Fail's "≥", per the chosen convention.
func (q *Queue) SweepExpired(timeout time.Duration, maxFailures int, now time.Time) (retired, requeued []*task.Task) {
	deadline := now.Add(-timeout)

	q.inFlightMu.Lock()
	var expired []*task.Task
	for id, e := range q.inFlight {
		if !e.lastHeartbeat.After(deadline) {
			expired = append(expired, e.task)
			delete(q.inFlight, id)
		}
	}
	q.inFlightMu.Unlock()

	for _, t := range expired {
		t.FailureCount++
		if t.FailureCount > maxFailures {
			retired = append(retired, t)
			continue
		}
		t.ID = q.NextID()
		q.Enqueue(t)
		requeued = append(requeued, t)
	}
	return retired, requeued
}

// PendingSnapshot returns a shallow copy of the pending slice, for
// persistence. In-flight entries are intentionally excluded.
func (q *Queue) PendingSnapshot() []*task.Task {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	out := make([]*task.Task, len(q.pending))
	copy(out, q.pending)
	return out
}

// LoadPending replaces the pending slice wholesale, used on startup reload.
func (q *Queue) LoadPending(tasks []*task.Task) {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	q.pending = tasks
}

// PendingLen reports the number of pending tasks.
func (q *Queue) PendingLen() int {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	return len(q.pending)
}

// InFlightLen reports the number of in-flight tasks.
func (q *Queue) InFlightLen() int {
	q.inFlightMu.Lock()
	defer q.inFlightMu.Unlock()
	return len(q.inFlight)
}
