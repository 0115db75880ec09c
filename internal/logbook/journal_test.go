package logbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTripJournalLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureTripJournal("trip-1", "Maren"); err != nil {
		t.Fatalf("EnsureTripJournal() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "trip-1")); err != nil {
		t.Fatalf("journal directory missing: %v", err)
	}

	// Ensure is idempotent.
	if err := svc.EnsureTripJournal("trip-1", "Maren"); err != nil {
		t.Fatalf("second EnsureTripJournal() error = %v", err)
	}

	entry := Entry{
		ID:        "log-1",
		BoatID:    "B1",
		AuthorID:  "u1",
		EntryDate: time.Date(2026, 7, 5, 9, 0, 0, 0, time.UTC),
		Body:      "Departed harbor at 0900, light westerly.",
		Position:  "59.32N 18.07E",
		Weather:   "W 3, clear",
	}
	commit, err := svc.RecordEntry("trip-1", entry, "Maren")
	if err != nil {
		t.Fatalf("RecordEntry() error = %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected commit hash")
	}

	history, err := svc.History("trip-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 commits (baseline + entry), got %d", len(history))
	}
	if !strings.Contains(history[0].Message, "log-1") {
		t.Fatalf("unexpected head commit message: %q", history[0].Message)
	}

	journaled, err := svc.EntryAt("trip-1", "log-1", commit.Hash)
	if err != nil {
		t.Fatalf("EntryAt() error = %v", err)
	}
	if journaled.Body != entry.Body || journaled.Position != entry.Position {
		t.Fatalf("journaled entry mismatch: %+v", journaled)
	}
}

func TestRecordEntryOverwriteKeepsHistory(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureTripJournal("trip-1", "Maren"); err != nil {
		t.Fatalf("EnsureTripJournal() error = %v", err)
	}

	entry := Entry{ID: "log-1", BoatID: "B1", AuthorID: "u1", Body: "first version"}
	first, err := svc.RecordEntry("trip-1", entry, "Maren")
	if err != nil {
		t.Fatalf("RecordEntry() error = %v", err)
	}

	entry.Body = "corrected version"
	if _, err := svc.RecordEntry("trip-1", entry, "Maren"); err != nil {
		t.Fatalf("second RecordEntry() error = %v", err)
	}

	old, err := svc.EntryAt("trip-1", "log-1", first.Hash)
	if err != nil {
		t.Fatalf("EntryAt() error = %v", err)
	}
	if old.Body != "first version" {
		t.Fatalf("old revision lost: %+v", old)
	}

	history, err := svc.History("trip-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(history))
	}
}

func TestRemoveEntry(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureTripJournal("trip-1", "Maren"); err != nil {
		t.Fatalf("EnsureTripJournal() error = %v", err)
	}
	if _, err := svc.RecordEntry("trip-1", Entry{ID: "log-1", BoatID: "B1", Body: "x"}, "Maren"); err != nil {
		t.Fatalf("RecordEntry() error = %v", err)
	}

	commit, err := svc.RemoveEntry("trip-1", "log-1", "Maren")
	if err != nil {
		t.Fatalf("RemoveEntry() error = %v", err)
	}
	if !strings.Contains(commit.Message, "Remove") {
		t.Fatalf("unexpected removal message: %q", commit.Message)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "trip-1", "entries", "log-1.json")); !os.IsNotExist(err) {
		t.Fatalf("entry file should be gone, stat err = %v", err)
	}
}

func TestConcurrentRecordEntrySameTrip(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	if err := svc.EnsureTripJournal("trip-1", "Maren"); err != nil {
		t.Fatalf("EnsureTripJournal() error = %v", err)
	}

	const writers = 12
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			entry := Entry{
				ID:     fmt.Sprintf("log-%02d", idx),
				BoatID: "B1",
				Body:   fmt.Sprintf("entry %02d", idx),
			}
			if _, err := svc.RecordEntry("trip-1", entry, "Maren"); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("RecordEntry() concurrent error = %v", err)
		}
	}

	history, err := svc.History("trip-1", 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != writers+1 {
		t.Fatalf("expected %d commits in history, got %d", writers+1, len(history))
	}
}
