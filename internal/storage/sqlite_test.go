package storage

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordSession(t *testing.T) {
	db := openTestDB(t)

	if err := db.RecordSession("s1", "ns"); err != nil {
		t.Fatalf("RecordSession() error = %v", err)
	}
	// Stamping the same run twice must not conflict.
	if err := db.RecordSession("s1", "ns"); err != nil {
		t.Fatalf("duplicate RecordSession() error = %v", err)
	}

	sessions, err := db.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("ListSessions() = %d sessions, want 1", len(sessions))
	}
	if sessions[0].ID != "s1" || sessions[0].Namespace != "ns" {
		t.Errorf("session = %+v", sessions[0])
	}
	if sessions[0].FileCount != 0 {
		t.Errorf("FileCount = %d, want 0", sessions[0].FileCount)
	}
}

func TestRecordFile(t *testing.T) {
	db := openTestDB(t)

	if err := db.RecordSession("s1", "ns"); err != nil {
		t.Fatal(err)
	}
	rec := FileRecord{
		Digest:       "abc123",
		SessionID:    "s1",
		Name:         "call.wav",
		SegmentCount: 4,
		VectorCount:  4,
	}
	if err := db.RecordFile(rec); err != nil {
		t.Fatalf("RecordFile() error = %v", err)
	}

	files, err := db.ListFiles("s1")
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("ListFiles() = %d files, want 1", len(files))
	}
	got := files[0]
	if got.Digest != "abc123" || got.Name != "call.wav" || got.SegmentCount != 4 || got.VectorCount != 4 {
		t.Errorf("file = %+v", got)
	}
	if got.IndexedAt.IsZero() {
		t.Error("IndexedAt not stamped")
	}

	sessions, err := db.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if sessions[0].FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", sessions[0].FileCount)
	}
}

func TestRecordFile_DigestConflictOverwrites(t *testing.T) {
	db := openTestDB(t)

	first := FileRecord{Digest: "abc", SessionID: "s1", Name: "old.wav", SegmentCount: 2, VectorCount: 2}
	if err := db.RecordFile(first); err != nil {
		t.Fatal(err)
	}

	// Re-ingesting identical audio under a new session replaces the row.
	second := FileRecord{Digest: "abc", SessionID: "s2", Name: "new.wav", SegmentCount: 3, VectorCount: 3}
	if err := db.RecordFile(second); err != nil {
		t.Fatalf("RecordFile() on conflict error = %v", err)
	}

	if files, _ := db.ListFiles("s1"); len(files) != 0 {
		t.Errorf("old session still owns the file: %+v", files)
	}
	files, err := db.ListFiles("s2")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "new.wav" || files[0].SegmentCount != 3 {
		t.Errorf("files = %+v, want the replacement row", files)
	}
}

func TestListSessions_Empty(t *testing.T) {
	db := openTestDB(t)

	sessions, err := db.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("ListSessions() = %v, want none", sessions)
	}
}

func TestOpenDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.RecordSession("s1", "ns"); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopening error = %v", err)
	}
	defer db.Close()

	sessions, err := db.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("ListSessions() after reopen = %d, want 1", len(sessions))
	}
}
