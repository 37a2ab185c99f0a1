package engine

import (
	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

// Outcome classifies what happened to one kind in one file.
type Outcome string

const (
	AlreadyPresent Outcome = "already-present"
	NewlyApplied   Outcome = "newly-applied"
	NotFound       Outcome = "pattern-not-found"
	Ambiguous      Outcome = "structurally-ambiguous"
	InvalidSyntax  Outcome = "invalid-syntax"
	WriteError     Outcome = "write-error"
)

// Failed reports whether the outcome fails its file. A missing pattern is a
// soft miss and does not.
func (o Outcome) Failed() bool {
	switch o {
	case Ambiguous, InvalidSyntax, WriteError:
		return true
	}
	return false
}

// KindResult is the outcome of one kind in one file.
type KindResult struct {
	Kind        shape.Kind        `json:"kind"`
	Outcome     Outcome           `json:"outcome"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
	Detail      string            `json:"detail,omitempty"`
}

// FileResult is the outcome of an apply or revert on one target.
type FileResult struct {
	Label         string       `json:"label"`
	Path          string       `json:"path"`
	Exists        bool         `json:"exists"`
	Kinds         []KindResult `json:"kinds,omitempty"`
	Written       bool         `json:"written,omitempty"`
	BackupCreated bool         `json:"backupCreated,omitempty"`
	BytesAdded    int          `json:"bytesAdded,omitempty"`
	Hash          string       `json:"hash,omitempty"`
	Reverted      bool         `json:"reverted,omitempty"`
	Skipped       bool         `json:"skipped,omitempty"`
	Err           string       `json:"error,omitempty"`
}

// OK reports whether the file succeeded: no I/O error and no failed kind.
func (f *FileResult) OK() bool {
	if f.Err != "" {
		return false
	}
	for _, k := range f.Kinds {
		if k.Outcome.Failed() {
			return false
		}
	}
	return true
}

// Count returns how many kinds ended with outcome o.
func (f *FileResult) Count(o Outcome) int {
	n := 0
	for _, k := range f.Kinds {
		if k.Outcome == o {
			n++
		}
	}
	return n
}

// RunResult aggregates one apply or revert over every target.
type RunResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Files   []FileResult `json:"files,omitempty"`
}

// FileStatus is the read-only state of one target.
type FileStatus struct {
	Label   string `json:"label"`
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Patched bool   `json:"patched"`
	// Complete is true when no enabled kind is both absent and patchable.
	// A file that never carries a shape does not block completeness.
	Complete     bool                `json:"complete"`
	PatchDetails map[shape.Kind]bool `json:"patchDetails,omitempty"`
	// Patchable is set for kinds not yet present: whether the shape resolves now.
	Patchable map[shape.Kind]bool `json:"patchable,omitempty"`
	HasBackup bool                `json:"hasBackup"`
	Hash      string              `json:"hash,omitempty"`
	Err       string              `json:"error,omitempty"`
}
