// Package engine applies every enabled fragment kind to each target file at
// most once, with a one-time backup and revert from that backup.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/DeusData/antigravity-autopilot/internal/discover"
	"github.com/DeusData/antigravity-autopilot/internal/fragment"
	"github.com/DeusData/antigravity-autopilot/internal/parser"
	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

// Locator turns a descriptor into a resolved fragment for one text.
// fragment.Resolver is the regex implementation.
type Locator interface {
	Resolve(text string, d *shape.Descriptor) (*fragment.Resolved, error)
}

// Event is one progress line, surfaced to UIs as a worker "log" message.
type Event struct {
	Level string     `json:"level"`
	Label string     `json:"label,omitempty"`
	Kind  shape.Kind `json:"kind,omitempty"`
	Msg   string     `json:"msg"`
}

// Options configures an Engine.
type Options struct {
	// Kinds selects the enabled kinds; empty means all.
	Kinds   []shape.Kind
	Locator Locator
	// OnEvent receives progress events. Calls are serialized.
	OnEvent     func(Event)
	Parallelism int
}

// Engine is safe for concurrent use across distinct targets.
type Engine struct {
	descriptors []*shape.Descriptor
	locator     Locator
	parallelism int

	mu      sync.Mutex
	onEvent func(Event)
}

// New returns an Engine. A nil Locator uses fragment.Resolver with default
// radii and the JavaScript syntax checker.
func New(opts Options) *Engine {
	e := &Engine{
		descriptors: shape.Descriptors(opts.Kinds),
		locator:     opts.Locator,
		parallelism: opts.Parallelism,
		onEvent:     opts.OnEvent,
	}
	if e.locator == nil {
		e.locator = &fragment.Resolver{Checker: parser.Checker{}}
	}
	if e.parallelism <= 0 {
		e.parallelism = runtime.NumCPU()
	}
	return e
}

// Kinds returns the enabled kinds in application order.
func (e *Engine) Kinds() []shape.Kind {
	out := make([]shape.Kind, len(e.descriptors))
	for i, d := range e.descriptors {
		out[i] = d.Kind
	}
	return out
}

func (e *Engine) emit(ctx context.Context, level slog.Level, event, label string, kind shape.Kind, msg string) {
	attrs := []any{"label", label, "msg", msg}
	if kind != "" {
		attrs = append(attrs, "kind", kind)
	}
	slog.Log(ctx, level, event, attrs...)

	if e.onEvent == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEvent(Event{Level: strings.ToLower(level.String()), Label: label, Kind: kind, Msg: msg})
}

// PatchText applies every enabled kind to text in declared order and returns the
// new text. Each kind sees the result of the kinds before it.
func (e *Engine) PatchText(ctx context.Context, label, text string) (string, []KindResult) {
	working := text
	results := make([]KindResult, 0, len(e.descriptors))
	for _, d := range e.descriptors {
		var r KindResult
		working, r = e.patchKind(ctx, label, working, d)
		results = append(results, r)
	}
	return working, results
}

func (e *Engine) patchKind(ctx context.Context, label, working string, d *shape.Descriptor) (string, KindResult) {
	r := KindResult{Kind: d.Kind}
	if fragment.IsApplied(working, d) {
		r.Outcome = AlreadyPresent
		e.emit(ctx, slog.LevelInfo, "engine.kind.present", label, d.Kind, "already patched")
		return working, r
	}

	res, err := e.locator.Resolve(working, d)
	if err != nil {
		r.Detail = err.Error()
		switch {
		case errors.Is(err, fragment.ErrAmbiguous):
			r.Outcome = Ambiguous
			e.emit(ctx, slog.LevelError, "engine.kind.ambiguous", label, d.Kind, err.Error())
		case errors.Is(err, fragment.ErrInvalidSyntax):
			r.Outcome = InvalidSyntax
			e.emit(ctx, slog.LevelError, "engine.kind.invalid", label, d.Kind, err.Error())
		default:
			r.Outcome = NotFound
			e.emit(ctx, slog.LevelWarn, "engine.kind.miss", label, d.Kind, "could not locate pattern: "+err.Error())
			if hint := hintContext(working, d.Hint); hint != "" {
				e.emit(ctx, slog.LevelDebug, "engine.kind.hint", label, d.Kind, "context: ..."+hint+"...")
			}
		}
		return working, r
	}
	r.Identifiers = res.Identifiers

	p := fragment.Synthesize(res, d)
	if n := fragment.CountOccurrences(working, p.Target); n != 1 {
		r.Outcome = Ambiguous
		r.Detail = fmt.Sprintf("target found %dx (expected 1)", n)
		e.emit(ctx, slog.LevelError, "engine.kind.ambiguous", label, d.Kind, r.Detail)
		return working, r
	}
	patched := p.Apply(working)
	if !fragment.IsApplied(patched, d) {
		r.Outcome = InvalidSyntax
		r.Detail = "insertion does not satisfy its own signature"
		e.emit(ctx, slog.LevelError, "engine.kind.invalid", label, d.Kind, r.Detail)
		return working, r
	}

	r.Outcome = NewlyApplied
	e.emit(ctx, slog.LevelInfo, "engine.kind.applied", label, d.Kind,
		fmt.Sprintf("found at offset %d, inserted %s", res.MatchOffset, res.InsertionText))
	return patched, r
}

// hintContext returns the text around the first occurrence of hint.
func hintContext(text, hint string) string {
	if hint == "" {
		return ""
	}
	idx := strings.Index(text, hint)
	if idx < 0 {
		return ""
	}
	return text[max(0, idx-80):min(len(text), idx+120)]
}

// PatchFile applies the enabled kinds to one target. A missing file is a no-op
// success. The file is written at most once, after the backup exists.
func (e *Engine) PatchFile(ctx context.Context, t discover.Target) FileResult {
	fr := FileResult{Label: t.Label, Path: t.Path}

	info, err := os.Stat(t.Path)
	if errors.Is(err, os.ErrNotExist) {
		e.emit(ctx, slog.LevelInfo, "engine.file.missing", t.Label, "", "file not found, skipping")
		return fr
	}
	if err != nil {
		fr.Err = err.Error()
		e.emit(ctx, slog.LevelError, "engine.file.err", t.Label, "", "stat error: "+err.Error())
		return fr
	}
	fr.Exists = true

	data, err := os.ReadFile(t.Path)
	if err != nil {
		fr.Err = err.Error()
		e.emit(ctx, slog.LevelError, "engine.file.err", t.Label, "", "read error: "+err.Error())
		return fr
	}

	out, kinds := e.PatchText(ctx, t.Label, string(data))
	fr.Kinds = kinds
	if fr.Count(NewlyApplied) == 0 {
		fr.Hash = contentHash(data)
		return fr
	}

	created, err := ensureBackup(backupPath(t.Path), data, info.Mode().Perm())
	if err != nil {
		e.failWrite(ctx, &fr, "backup error: "+err.Error())
		return fr
	}
	fr.BackupCreated = created
	if created {
		e.emit(ctx, slog.LevelInfo, "engine.file.backup", t.Label, "", "backup created")
	}

	if err := writeAtomic(t.Path, []byte(out), info.Mode().Perm()); err != nil {
		e.failWrite(ctx, &fr, "write error: "+err.Error())
		return fr
	}
	fr.Written = true
	fr.Hash = contentHash([]byte(out))
	if bi, err := os.Stat(backupPath(t.Path)); err == nil {
		fr.BytesAdded = len(out) - int(bi.Size())
	}
	e.emit(ctx, slog.LevelInfo, "engine.file.written", t.Label, "", fmt.Sprintf("patched (+%d bytes)", fr.BytesAdded))
	return fr
}

// failWrite marks every newly applied kind as a write error; nothing was written.
func (e *Engine) failWrite(ctx context.Context, fr *FileResult, msg string) {
	fr.Err = msg
	for i := range fr.Kinds {
		if fr.Kinds[i].Outcome == NewlyApplied {
			fr.Kinds[i].Outcome = WriteError
			fr.Kinds[i].Detail = msg
		}
	}
	e.emit(ctx, slog.LevelError, "engine.file.err", fr.Label, "", msg)
}

// Apply patches every target, in parallel, and aggregates the outcome.
// Cancellation stops targets that have not started; a running file completes.
func (e *Engine) Apply(ctx context.Context, targets []discover.Target) RunResult {
	files := e.forEach(ctx, targets, e.PatchFile)

	run := RunResult{Success: true, Files: files}
	applied, present := 0, 0
	for i := range files {
		if !files[i].OK() {
			run.Success = false
		}
		applied += files[i].Count(NewlyApplied)
		present += files[i].Count(AlreadyPresent)
	}
	switch {
	case !run.Success:
		run.Message = "Some files could not be patched. See the log for details."
	case applied > 0:
		run.Message = "Patch applied. Restart Antigravity to activate."
	case present > 0:
		run.Message = "Already patched."
	default:
		run.Message = "Nothing to patch. This version may be incompatible."
	}
	slog.Info("engine.apply.done", "success", run.Success, "applied", applied, "present", present)
	return run
}

// forEach runs fn over targets with bounded parallelism, keeping target order.
func (e *Engine) forEach(ctx context.Context, targets []discover.Target, fn func(context.Context, discover.Target) FileResult) []FileResult {
	results := make([]FileResult, len(targets))
	g := new(errgroup.Group)
	g.SetLimit(e.parallelism)
	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Label: t.Label, Path: t.Path, Err: err.Error()}
				return nil
			}
			results[i] = fn(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
