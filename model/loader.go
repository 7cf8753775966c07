package model

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Loader periodically scans Dir for plug-in files, parses each into one or
// more Definitions, and upserts them into Registry. It also watches Dir
// with fsnotify so a dropped-in file is picked up promptly instead of
// waiting a full scan interval; the watcher only ever triggers an
// out-of-band scan, the scan itself is the single code path that mutates
// the registry.
type Loader struct {
	Dir      string
	Interval time.Duration
	Registry *Registry
	Logger   *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (l *Loader) Name() string { return "model.loader" }

func (l *Loader) Start() error {
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.scanOnce()
	go l.run()
	return nil
}

func (l *Loader) Stop(ctx context.Context) error {
	l.stopOnce.Do(func() { close(l.stop) })
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// RescanNow forces an immediate, synchronous scan outside the ticker
// cadence, exposed for an operator-triggered reload.
func (l *Loader) RescanNow(ctx context.Context) error {
	l.scanOnce()
	return nil
}

func (l *Loader) run() {
	defer close(l.done)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.Logger.Warn("model: fsnotify unavailable, falling back to ticker-only scanning", "error", err)
		watcher = nil
	} else {
		defer watcher.Close()
		if err := watcher.Add(l.Dir); err != nil {
			l.Logger.Warn("model: failed to watch model directory", "dir", l.Dir, "error", err)
		}
	}

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	if watcher != nil {
		events = watcher.Events
	}

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.scanOnce()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				l.scanOnce()
			}
		}
	}
}

func (l *Loader) scanOnce() {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		l.Logger.Error("model: failed to read model directory", "dir", l.Dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		path := filepath.Join(l.Dir, entry.Name())
		if err := l.loadFile(path); err != nil {
			l.Logger.Error("model: failed to load plug-in file", "file", path, "error", err)
		}
	}
}

func (l *Loader) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	version := contentHash(raw)
	defs, err := parseFile(path, raw, version)
	if err != nil {
		return err
	}

	for _, d := range defs {
		if l.Registry.Upsert(d) {
			l.Logger.Info("model: loaded definition", "short_name", d.ShortName, "version", d.Version, "file", path)
		}
	}
	return nil
}

// contentHash is an MD5 hex digest; the spec treats the version as an
// opaque string with no collision-resistance requirement.
func contentHash(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}
