package taskqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/npsgd-project/npsgd/task"
)

// Sweeper periodically reclaims in-flight entries past their heartbeat
// deadline. It implements server.Daemon.
type Sweeper struct {
	queue       *Queue
	interval    func() time.Duration
	timeout     func() time.Duration
	maxFailures func() int
	onSweep     func(ctx context.Context, retired, requeued []*task.Task)
	logger      *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSweeper builds a Sweeper. interval/timeout/maxFailures are resolved on
// every tick (not captured once) so a live config reload takes effect
// without restarting the daemon. onSweep receives the retired tasks (so the
// caller can queue failure emails) and the requeued tasks (so the caller
// can persist), and is skipped entirely when a sweep finds nothing.
func NewSweeper(queue *Queue, interval, timeout func() time.Duration, maxFailures func() int, onSweep func(ctx context.Context, retired, requeued []*task.Task), logger *slog.Logger) *Sweeper {
	return &Sweeper{
		queue:       queue,
		interval:    interval,
		timeout:     timeout,
		maxFailures: maxFailures,
		onSweep:     onSweep,
		logger:      logger,
	}
}

func (s *Sweeper) Name() string { return "taskqueue.sweeper" }

func (s *Sweeper) Start() error {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run()
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			retired, requeued := s.queue.SweepExpired(s.timeout(), s.maxFailures(), now)
			if len(retired) > 0 || len(requeued) > 0 {
				s.logger.Info("taskqueue: swept expired in-flight tasks",
					"retired", len(retired), "requeued", len(requeued))
				if s.onSweep != nil {
					s.onSweep(context.Background(), retired, requeued)
				}
			}
			ticker.Reset(s.interval())
		}
	}
}
