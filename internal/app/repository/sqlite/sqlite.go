// Package sqlite opens the embedded history database. SQLite is the default
// backend and needs no external service.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"green-needle/internal/app/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL DEFAULT '',
	input_dir TEXT NOT NULL DEFAULT '',
	file_name TEXT NOT NULL,
	file_hash TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	audio_duration REAL NOT NULL DEFAULT 0,
	transcription TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	has_error BOOLEAN NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_file_name ON transcriptions(file_name);
CREATE INDEX IF NOT EXISTS idx_transcriptions_file_hash ON transcriptions(file_hash);
CREATE INDEX IF NOT EXISTS idx_transcriptions_source ON transcriptions(source);
`

// Open creates or opens the database file and ensures the schema exists.
// Parent directories are created as needed.
func Open(dbPath string) (*repository.Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dbPath, err)
	}

	// A single writer connection avoids SQLITE_BUSY under the worker pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return repository.NewStore(db, repository.DriverSQLite), nil
}
