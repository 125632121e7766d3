// Package storage keeps a local SQLite ledger of ingest runs: which
// sessions ran, which files they indexed, and how many vectors each file
// produced. The ledger is observational only; vector identity in the
// store never depends on it.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// SessionRecord is one ingest run.
type SessionRecord struct {
	ID        string    `json:"id"`
	Namespace string    `json:"namespace"`
	StartedAt time.Time `json:"started_at"`
	FileCount int       `json:"file_count"`
}

// FileRecord is one file indexed during a session.
type FileRecord struct {
	Digest       string    `json:"digest"`
	SessionID    string    `json:"session"`
	Name         string    `json:"name"`
	SegmentCount int       `json:"segment_count"`
	VectorCount  int       `json:"vector_count"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// OpenDB opens or creates the ledger database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			started_at INTEGER NOT NULL
		);

		-- One row per ingested file. The digest is the vector identity
		-- root, so re-ingesting the same audio replaces this row.
		CREATE TABLE IF NOT EXISTS files (
			digest TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			name TEXT NOT NULL,
			segment_count INTEGER NOT NULL,
			vector_count INTEGER NOT NULL,
			indexed_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_files_session ON files(session_id);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordSession inserts a session row, ignoring duplicates so concurrent
// workers stamping the same run don't conflict.
func (d *DB) RecordSession(id, namespace string) error {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO sessions (id, namespace, started_at) VALUES (?, ?, ?)`,
		id, namespace, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording session: %w", err)
	}
	return nil
}

// RecordFile upserts a file row keyed by content digest.
func (d *DB) RecordFile(rec FileRecord) error {
	_, err := d.db.Exec(
		`INSERT INTO files (digest, session_id, name, segment_count, vector_count, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(digest) DO UPDATE SET
			session_id = excluded.session_id,
			name = excluded.name,
			segment_count = excluded.segment_count,
			vector_count = excluded.vector_count,
			indexed_at = excluded.indexed_at`,
		rec.Digest, rec.SessionID, rec.Name, rec.SegmentCount, rec.VectorCount, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording file: %w", err)
	}
	return nil
}

// ListSessions returns all sessions, newest first, with file counts.
func (d *DB) ListSessions() ([]SessionRecord, error) {
	rows, err := d.db.Query(`
		SELECT s.id, s.namespace, s.started_at, COUNT(f.digest)
		FROM sessions s
		LEFT JOIN files f ON f.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started int64
		if err := rows.Scan(&rec.ID, &rec.Namespace, &started, &rec.FileCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		rec.StartedAt = time.Unix(started, 0)
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// ListFiles returns the files recorded for a session, oldest first.
func (d *DB) ListFiles(sessionID string) ([]FileRecord, error) {
	rows, err := d.db.Query(`
		SELECT digest, session_id, name, segment_count, vector_count, indexed_at
		FROM files WHERE session_id = ? ORDER BY indexed_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var rec FileRecord
		var indexed int64
		if err := rows.Scan(&rec.Digest, &rec.SessionID, &rec.Name, &rec.SegmentCount, &rec.VectorCount, &indexed); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		rec.IndexedAt = time.Unix(indexed, 0)
		files = append(files, rec)
	}
	return files, rows.Err()
}
