package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// FileHash is the content hash recorded after the last write to a target.
type FileHash struct {
	Path       string
	Hash       string
	AppVersion string
	UpdatedAt  string
}

// UpsertFileHash stores the hash written to path.
func (s *Store) UpsertFileHash(path, hash, appVersion string) error {
	_, err := s.q.Exec(`
		INSERT INTO file_hashes (path, hash, app_version, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET hash=excluded.hash, app_version=excluded.app_version, updated_at=excluded.updated_at`,
		path, hash, appVersion, Now())
	return err
}

// GetFileHash returns the recorded hash for path, or nil when none exists.
func (s *Store) GetFileHash(path string) (*FileHash, error) {
	var h FileHash
	err := s.q.QueryRow(`SELECT path, hash, app_version, updated_at FROM file_hashes WHERE path=?`, path).
		Scan(&h.Path, &h.Hash, &h.AppVersion, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file hash: %w", err)
	}
	return &h, nil
}

// DeleteFileHash deletes a single file hash entry.
func (s *Store) DeleteFileHash(path string) error {
	_, err := s.q.Exec("DELETE FROM file_hashes WHERE path=?", path)
	return err
}
