package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/zeebo/xxh3"

	"github.com/DeusData/antigravity-autopilot/internal/discover"
	"github.com/DeusData/antigravity-autopilot/internal/fragment"
	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

func backupPath(path string) string { return path + ".bak" }

// ensureBackup writes data to bak unless bak already exists. An existing backup
// is never touched. A partially written backup is removed.
func ensureBackup(bak string, data []byte, perm fs.FileMode) (bool, error) {
	f, err := os.OpenFile(bak, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(bak)
		return false, err
	}
	if err := f.Close(); err != nil {
		os.Remove(bak)
		return false, err
	}
	return true, nil
}

// writeAtomic replaces path through a sibling temp file and rename.
func writeAtomic(path string, data []byte, perm fs.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func contentHash(data []byte) string {
	h := xxh3.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RevertFile restores one target from its backup. A missing backup is a skip.
// The backup is kept so a later apply reuses it.
func (e *Engine) RevertFile(ctx context.Context, t discover.Target) FileResult {
	fr := FileResult{Label: t.Label, Path: t.Path}
	if _, err := os.Stat(t.Path); err == nil {
		fr.Exists = true
	}

	bak := backupPath(t.Path)
	data, err := os.ReadFile(bak)
	if errors.Is(err, fs.ErrNotExist) {
		fr.Skipped = true
		e.emit(ctx, slog.LevelInfo, "engine.revert.skip", t.Label, "", "no backup, skipping")
		return fr
	}
	if err != nil {
		fr.Err = err.Error()
		e.emit(ctx, slog.LevelError, "engine.revert.err", t.Label, "", "read backup: "+err.Error())
		return fr
	}

	perm := fs.FileMode(0o644)
	if bi, err := os.Stat(bak); err == nil {
		perm = bi.Mode().Perm()
	}
	if err := writeAtomic(t.Path, data, perm); err != nil {
		fr.Err = err.Error()
		e.emit(ctx, slog.LevelError, "engine.revert.err", t.Label, "", err.Error())
		return fr
	}
	fr.Exists = true
	fr.Reverted = true
	fr.Hash = contentHash(data)
	e.emit(ctx, slog.LevelInfo, "engine.revert.done", t.Label, "", "reverted")
	return fr
}

// Revert restores every target that has a backup.
func (e *Engine) Revert(ctx context.Context, targets []discover.Target) RunResult {
	files := e.forEach(ctx, targets, e.RevertFile)
	run := RunResult{Success: true, Files: files}
	reverted := 0
	for i := range files {
		if files[i].Err != "" {
			run.Success = false
		}
		if files[i].Reverted {
			reverted++
		}
	}
	switch {
	case !run.Success:
		run.Message = "Some files could not be reverted. See the log for details."
	case reverted == 0:
		run.Message = "Nothing to revert."
	default:
		run.Message = "Reverted. Restart Antigravity to apply."
	}
	slog.Info("engine.revert.done", "success", run.Success, "reverted", reverted)
	return run
}

// Status inspects every target without modifying anything.
func (e *Engine) Status(ctx context.Context, targets []discover.Target) []FileStatus {
	out := make([]FileStatus, 0, len(targets))
	for _, t := range targets {
		out = append(out, e.FileStatus(ctx, t))
	}
	return out
}

// FileStatus reports which kinds are present in one target and, for the rest,
// whether they would resolve. It only reads.
func (e *Engine) FileStatus(_ context.Context, t discover.Target) FileStatus {
	st := FileStatus{Label: t.Label, Path: t.Path}
	if _, err := os.Stat(backupPath(t.Path)); err == nil {
		st.HasBackup = true
	}
	data, err := os.ReadFile(t.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return st
	}
	st.Exists = true
	if err != nil {
		st.Err = err.Error()
		return st
	}

	text := string(data)
	st.Hash = contentHash(data)
	st.PatchDetails = make(map[shape.Kind]bool, len(e.descriptors))
	st.Complete = true
	for _, d := range e.descriptors {
		applied := fragment.IsApplied(text, d)
		st.PatchDetails[d.Kind] = applied
		if applied {
			st.Patched = true
			continue
		}
		if st.Patchable == nil {
			st.Patchable = make(map[shape.Kind]bool)
		}
		_, err := e.locator.Resolve(text, d)
		st.Patchable[d.Kind] = err == nil
		if err == nil {
			st.Complete = false
		}
	}
	return st
}
