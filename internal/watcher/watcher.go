// Package watcher re-applies the patch when the application replaces its
// bundles, e.g. after an update.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/DeusData/antigravity-autopilot/internal/discover"
)

const (
	defaultInterval    = 1 * time.Second
	defaultMaxInterval = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// ApplyFunc is called once per detected change. It should be idempotent.
type ApplyFunc func(ctx context.Context) error

// Options configures a Watcher. Zero intervals use 1s and 60s.
type Options struct {
	Interval    time.Duration
	MaxInterval time.Duration
	// ApplyOnStart calls Apply once before the baseline snapshot.
	ApplyOnStart bool
}

// Watcher polls the target files and calls Apply when any of them changes.
// Quiet polls and failed applies back off up to MaxInterval; a successful
// apply resets the interval.
type Watcher struct {
	targets []discover.Target
	applyFn ApplyFunc
	opts    Options

	snapshot map[string]fileSnapshot
	idle     int
	failures int
	interval time.Duration
	nextPoll time.Time
}

// New creates a Watcher over targets.
func New(targets []discover.Target, applyFn ApplyFunc, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.MaxInterval < opts.Interval {
		opts.MaxInterval = max(defaultMaxInterval, opts.Interval)
	}
	return &Watcher{targets: targets, applyFn: applyFn, opts: opts, interval: opts.Interval}
}

// Run blocks until ctx is cancelled. It ticks at the base interval and polls
// only when the adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	if w.opts.ApplyOnStart {
		if err := w.applyFn(ctx); err != nil {
			slog.Warn("watcher.apply_on_start", "err", err)
		}
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().Before(w.nextPoll) {
				continue
			}
			w.poll(ctx)
		}
	}
}

// poll compares the targets with the previous snapshot.
// First poll: captures the baseline without applying.
func (w *Watcher) poll(ctx context.Context) {
	snap := captureSnapshot(w.targets)

	if w.snapshot == nil {
		slog.Debug("watcher.baseline", "files", len(snap))
		w.snapshot = snap
		w.schedule()
		return
	}

	if snapshotsEqual(w.snapshot, snap) {
		w.idle++
		w.schedule()
		return
	}

	slog.Info("watcher.changed", "files", len(snap))
	if err := w.applyFn(ctx); err != nil {
		w.failures++
		slog.Warn("watcher.apply", "err", err, "failures", w.failures)
		// Keep the old snapshot so a later poll retries, backing off like quiet polls.
		w.idle = w.failures
		w.schedule()
		return
	}
	w.failures = 0
	w.idle = 0

	// Apply may have written the targets; do not treat that as a change.
	w.snapshot = captureSnapshot(w.targets)
	w.schedule()
}

func (w *Watcher) schedule() {
	w.interval = pollInterval(w.opts.Interval, w.opts.MaxInterval, w.idle)
	w.nextPoll = time.Now().Add(w.interval)
}

// captureSnapshot records mtime+size of every target that exists.
func captureSnapshot(targets []discover.Target) map[string]fileSnapshot {
	snap := make(map[string]fileSnapshot, len(targets))
	for _, t := range targets {
		info, err := os.Stat(t.Path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("watcher.stat", "label", t.Label, "err", err)
			}
			continue
		}
		snap[t.Path] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap
}

// snapshotsEqual returns true if two snapshots have identical files with same mtime+size.
func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}

// pollInterval doubles base for every quiet poll, capped at ceiling.
func pollInterval(base, ceiling time.Duration, idle int) time.Duration {
	d := base
	for range idle {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return d
}
