// Package notify carries operational alarms out of the queue daemon: a
// dispatch failure, a persistence error, a task retired after exceeding
// its retry limit. Concrete delivery (Discord, or nothing) lives in
// sub-packages behind the Notifier interface.
package notify

import (
	"context"
	"time"

	"github.com/npsgd-project/npsgd/task"
)

type Type int

const (
	Alarm Type = iota
	Metric
)

func (nt Type) String() string {
	switch nt {
	case Alarm:
		return "Alarm"
	case Metric:
		return "Metric"
	default:
		return "Unknown"
	}
}

type Notification struct {
	Timestamp time.Time
	Type      Type
	Source    string
	Message   string
	Fields    map[string]interface{}
}

// NewTaskAlarm builds an Alarm Notification tied to a specific task,
// carrying its visible id and model identity as fields so a Discord
// channel (or any other Notifier) can show which submission is affected
// without the queue daemon having to format that by hand at each call
// site. t may be nil for alarms with no single task at fault (e.g. a
// state-file write failure).
func NewTaskAlarm(source string, t *task.Task, message string) Notification {
	fields := map[string]interface{}{}
	if t != nil {
		fields["task_id"] = t.VisibleID
		fields["model_name"] = t.ModelName
		fields["model_version"] = t.ModelVersion
		fields["failure_count"] = t.FailureCount
	}
	return Notification{
		Timestamp: time.Now(),
		Type:      Alarm,
		Source:    source,
		Message:   message,
		Fields:    fields,
	}
}

// Notifier defines the contract for sending alarms and metrics.
// Implementations of this interface are responsible for formatting and dispatching
// notifications to their respective backends.
// Implementations MUST be safe for concurrent use by multiple goroutines.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

type NilNotifier struct{}

func NewNilNotifier() *NilNotifier {
	return &NilNotifier{}
}

func (nn *NilNotifier) Send(ctx context.Context, n Notification) error {
	return nil
}

// MultiNotifier sends notifications to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers.
// It stops and returns the error if any of the notifiers fail.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	for _, notifier := range mn.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
