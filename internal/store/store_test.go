package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s.Close()
}

func TestOpenPathCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path = %q", s.Path())
	}
	if err := s.UpsertFileHash("/x", "abc", "1.0"); err != nil {
		t.Fatalf("UpsertFileHash: %v", err)
	}
}

func sampleRun(cmd string, success bool) *Run {
	return &Run{
		Command:    cmd,
		StartedAt:  time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		BasePath:   "/opt/antigravity",
		AppVersion: "1.11.3 (IDE 1.104.0)",
		Success:    success,
		Message:    "Patch applied. Restart Antigravity to activate.",
		Files: []RunFile{
			{
				Label: "workbench", Path: "/opt/antigravity/wb.js", Exists: true, Written: true, BytesAdded: 120, Hash: "ff00",
				Outcomes: []KindOutcome{
					{Kind: "terminal", Outcome: "newly-applied"},
					{Kind: "browser", Outcome: "structurally-ambiguous", Detail: "2 occurrences"},
				},
			},
			{Label: "jetskiAgent", Path: "/opt/antigravity/agent.js"},
		},
	}
}

func TestRecordAndListRuns(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	first := sampleRun("apply", false)
	if err := s.RecordRun(first); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	second := &Run{Command: "revert", Success: true, Message: "Reverted."}
	if err := s.RecordRun(second); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("ids = %d, %d", first.ID, second.ID)
	}
	if second.StartedAt.IsZero() {
		t.Error("StartedAt not defaulted")
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].Command != "revert" {
		t.Fatalf("runs = %+v", runs)
	}
	if diff := cmp.Diff(first, runs[1]); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	limited, err := s.RecentRuns(1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("RecentRuns(1) = %d runs, %v", len(limited), err)
	}
}

func TestPruneRunsCascades(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.RecordRun(sampleRun("apply", true)); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.PruneRuns(1)
	if err != nil || n != 2 {
		t.Fatalf("PruneRuns = %d, %v", n, err)
	}
	var outcomes int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM outcomes").Scan(&outcomes); err != nil {
		t.Fatal(err)
	}
	if outcomes != 2 {
		t.Errorf("outcomes left = %d, want 2", outcomes)
	}
}

func TestFileHashes(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if h, err := s.GetFileHash("/a.js"); err != nil || h != nil {
		t.Fatalf("missing hash = %+v, %v", h, err)
	}
	if err := s.UpsertFileHash("/a.js", "111", "1.0"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertFileHash("/a.js", "222", "1.1"); err != nil {
		t.Fatal(err)
	}
	h, err := s.GetFileHash("/a.js")
	if err != nil || h == nil || h.Hash != "222" || h.AppVersion != "1.1" {
		t.Fatalf("hash = %+v, %v", h, err)
	}
	if err := s.DeleteFileHash("/a.js"); err != nil {
		t.Fatal(err)
	}
	if h, _ := s.GetFileHash("/a.js"); h != nil {
		t.Fatal("hash not deleted")
	}
}

func TestWithTransactionRollback(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	errBoom := s.WithTransaction(func(tx *Store) error {
		if err := tx.UpsertFileHash("/a.js", "111", ""); err != nil {
			return err
		}
		return errTest
	})
	if !errors.Is(errBoom, errTest) {
		t.Fatalf("err = %v", errBoom)
	}
	if h, _ := s.GetFileHash("/a.js"); h != nil {
		t.Fatal("write survived rollback")
	}
}

var errTest = errors.New("boom")
