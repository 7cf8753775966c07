package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/domodwyer/mailyak/v3"
	"github.com/npsgd-project/npsgd/config"
)

// Dispatcher is the process-wide email sender: an unbounded FIFO fed by
// Enqueue and drained by one background goroutine, plus BlockingSend for
// callers (the worker driver's result path) that need the outcome
// synchronously.
type Dispatcher struct {
	cfg      func() config.Smtp
	logger   *slog.Logger
	sendFunc func(*Message) error

	mu     sync.Mutex
	cond   *sync.Cond
	fifo   []*Message
	closed bool
	done   chan struct{}
}

// New builds a Dispatcher whose SMTP settings are re-read from cfg on
// every send, so a live config reload applies without a restart.
func New(cfg func() config.Smtp, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{cfg: cfg, logger: logger, done: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	d.sendFunc = d.send
	return d
}

func (d *Dispatcher) Name() string { return "mailer.dispatcher" }

// Start launches the background send loop. Implements server.Daemon.
func (d *Dispatcher) Start() error {
	go d.run()
	return nil
}

// Stop marks the dispatcher closed and waits until the loop has sent every
// message still queued (a failed send is re-enqueued, so it keeps waiting),
// or until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Enqueue appends msg to the tail of the FIFO; it never blocks the caller.
func (d *Dispatcher) Enqueue(msg *Message) {
	d.mu.Lock()
	d.fifo = append(d.fifo, msg)
	d.cond.Signal()
	d.mu.Unlock()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		msg, ok := d.dequeue()
		if !ok {
			return
		}
		if err := d.sendFunc(msg); err != nil {
			d.logger.Warn("mailer: send failed, re-enqueueing at tail", "to", msg.To, "error", err)
			d.mu.Lock()
			d.fifo = append(d.fifo, msg)
			d.mu.Unlock()
			time.Sleep(time.Second) // avoid a hot loop against a down SMTP host
		}
	}
}

func (d *Dispatcher) dequeue() (*Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.fifo) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.fifo) == 0 {
		return nil, false
	}
	msg := d.fifo[0]
	d.fifo = d.fifo[1:]
	return msg, true
}

// BlockingSend sends msg synchronously with a bounded retry/backoff,
// bypassing the FIFO, for the worker driver's result-email path where a
// delivery failure must surface as a task-level failure.
func (d *Dispatcher) BlockingSend(ctx context.Context, msg *Message) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(func() error { return d.sendFunc(msg) }, policy)
}

func (d *Dispatcher) send(msg *Message) error {
	cfg := d.cfg()

	var auth smtp.Auth
	if cfg.UseAuth {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var mail *mailyak.MailYak
	if cfg.UseTLS {
		m, err := mailyak.NewWithTLS(addr, auth, &tls.Config{ServerName: cfg.Host})
		if err != nil {
			return fmt.Errorf("mailer: smtp_unreachable: %w", err)
		}
		mail = m
	} else {
		mail = mailyak.New(addr, auth)
	}

	mail.To(msg.To)
	mail.From(cfg.FromAddress)
	mail.Subject(msg.Subject)
	if len(cfg.CC) > 0 {
		mail.Cc(cfg.CC...)
	}
	if len(cfg.BCC) > 0 {
		mail.Bcc(cfg.BCC...)
	}
	if msg.TextBody != "" {
		mail.Plain().Set(msg.TextBody)
	}
	if msg.HTMLBody != "" {
		mail.HTML().Set(msg.HTMLBody)
	}

	for _, ta := range msg.TextAttachments {
		mail.Attach(ta.Name, bytes.NewReader([]byte(ta.Body)))
	}
	for _, ba := range msg.BinaryAttachments {
		mail.AttachWithMimeType(ba.Name, bytes.NewReader(ba.Data), mimeSubtype(ba.Name))
	}

	if err := mail.Send(); err != nil {
		return fmt.Errorf("mailer: smtp_unreachable: %w", err)
	}
	return nil
}
