package store

import (
	"fmt"
	"time"
)

// Run is one recorded apply or revert.
type Run struct {
	ID         int64     `json:"id"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"startedAt"`
	BasePath   string    `json:"basePath"`
	AppVersion string    `json:"appVersion"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Files      []RunFile `json:"files,omitempty"`
}

// RunFile is the per-target part of a Run.
type RunFile struct {
	Label      string        `json:"label"`
	Path       string        `json:"path"`
	Exists     bool          `json:"exists"`
	Written    bool          `json:"written,omitempty"`
	Reverted   bool          `json:"reverted,omitempty"`
	Skipped    bool          `json:"skipped,omitempty"`
	BytesAdded int           `json:"bytesAdded,omitempty"`
	Hash       string        `json:"hash,omitempty"`
	Err        string        `json:"error,omitempty"`
	Outcomes   []KindOutcome `json:"outcomes,omitempty"`
}

// KindOutcome is one kind's result within a RunFile.
type KindOutcome struct {
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// RecordRun inserts r with its files and outcomes in one transaction and sets r.ID.
func (s *Store) RecordRun(r *Run) error {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	return s.WithTransaction(func(tx *Store) error {
		res, err := tx.q.Exec(`
			INSERT INTO runs (command, started_at, base_path, app_version, success, message)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.Command, r.StartedAt.UTC().Format(time.RFC3339Nano), r.BasePath, r.AppVersion, boolInt(r.Success), r.Message)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, f := range r.Files {
			if _, err := tx.q.Exec(`
				INSERT INTO run_files (run_id, label, path, file_exists, written, reverted, skipped, bytes_added, hash, error)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, f.Label, f.Path, boolInt(f.Exists), boolInt(f.Written), boolInt(f.Reverted), boolInt(f.Skipped),
				f.BytesAdded, f.Hash, f.Err); err != nil {
				return fmt.Errorf("insert run file %s: %w", f.Label, err)
			}
			for _, o := range f.Outcomes {
				if _, err := tx.q.Exec(`
					INSERT INTO outcomes (run_id, label, kind, outcome, detail) VALUES (?, ?, ?, ?, ?)`,
					id, f.Label, o.Kind, o.Outcome, o.Detail); err != nil {
					return fmt.Errorf("insert outcome %s/%s: %w", f.Label, o.Kind, err)
				}
			}
		}
		r.ID = id
		return nil
	})
}

// RecentRuns returns up to limit runs, newest first, with files and outcomes.
func (s *Store) RecentRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.q.Query(`
		SELECT id, command, started_at, base_path, app_version, success, message
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	var runs []*Run
	for rows.Next() {
		var r Run
		var started string
		var success int
		if err := rows.Scan(&r.ID, &r.Command, &started, &r.BasePath, &r.AppVersion, &success, &r.Message); err != nil {
			rows.Close()
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.Success = success != 0
		runs = append(runs, &r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range runs {
		if err := s.loadFiles(r); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) loadFiles(r *Run) error {
	rows, err := s.q.Query(`
		SELECT label, path, file_exists, written, reverted, skipped, bytes_added, hash, error
		FROM run_files WHERE run_id=? ORDER BY rowid`, r.ID)
	if err != nil {
		return fmt.Errorf("run files: %w", err)
	}
	for rows.Next() {
		var f RunFile
		var exists, written, reverted, skipped int
		if err := rows.Scan(&f.Label, &f.Path, &exists, &written, &reverted, &skipped, &f.BytesAdded, &f.Hash, &f.Err); err != nil {
			rows.Close()
			return err
		}
		f.Exists, f.Written, f.Reverted, f.Skipped = exists != 0, written != 0, reverted != 0, skipped != 0
		r.Files = append(r.Files, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	orows, err := s.q.Query(`SELECT label, kind, outcome, detail FROM outcomes WHERE run_id=? ORDER BY rowid`, r.ID)
	if err != nil {
		return fmt.Errorf("outcomes: %w", err)
	}
	defer orows.Close()
	for orows.Next() {
		var label string
		var o KindOutcome
		if err := orows.Scan(&label, &o.Kind, &o.Outcome, &o.Detail); err != nil {
			return err
		}
		for i := range r.Files {
			if r.Files[i].Label == label {
				r.Files[i].Outcomes = append(r.Files[i].Outcomes, o)
			}
		}
	}
	return orows.Err()
}

// PruneRuns keeps the newest keep runs and deletes the rest.
func (s *Store) PruneRuns(keep int) (int64, error) {
	res, err := s.q.Exec(`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
