// Package pg opens a PostgreSQL-backed history store for deployments where
// several machines share one database.
package pg

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"green-needle/internal/app/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcriptions (
	id SERIAL PRIMARY KEY,
	source TEXT NOT NULL DEFAULT '',
	input_dir TEXT NOT NULL DEFAULT '',
	file_name TEXT NOT NULL,
	file_hash TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	audio_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
	transcription TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	has_error BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_file_name ON transcriptions(file_name);
CREATE INDEX IF NOT EXISTS idx_transcriptions_file_hash ON transcriptions(file_hash);
CREATE INDEX IF NOT EXISTS idx_transcriptions_source ON transcriptions(source);
`

// Open connects with a lib/pq connection string, verifies the connection
// and ensures the schema exists.
func Open(connString string) (*repository.Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("pg: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("pg: init schema: %w", err)
	}
	return repository.NewStore(db, repository.DriverPostgres), nil
}
