// Package repository persists transcription history. The SQL is shared
// between the SQLite and PostgreSQL drivers; queries are written with ?
// placeholders and rebound for dialects that number them.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"green-needle/internal/app/model"
)

// Driver names accepted by NewStore.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// HistoryDAO persists transcription history and answers duplicate lookups.
// The batch processor consumes the Record and HasProcessed half; the CLI and
// the HTTP API use the query methods.
type HistoryDAO interface {
	Record(ctx context.Context, record *model.HistoryRecord) error
	HasProcessed(ctx context.Context, fileName, fileHash string) (bool, error)

	GetByID(ctx context.Context, id int) (*model.HistoryRecord, error)
	GetRecent(ctx context.Context, limit int) ([]model.HistoryRecord, error)
	GetBySource(ctx context.Context, source string, limit int) ([]model.HistoryRecord, error)
	Search(ctx context.Context, term string, limit int) ([]model.HistoryRecord, error)
	StatsBySource(ctx context.Context) ([]SourceStats, error)
	Count(ctx context.Context) (int64, error)

	Close() error
}

// SourceStats aggregates history per source collection.
type SourceStats struct {
	Source   string  `json:"source"`
	Files    int64   `json:"files"`
	Duration float64 `json:"duration"`
}

// Store implements HistoryDAO over database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

var _ HistoryDAO = (*Store)(nil)

// NewStore wraps an open connection. Schema setup belongs to the driver
// packages.
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// DB exposes the underlying connection for the driver packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const historyColumns = `id, source, input_dir, file_name, file_hash, file_size, audio_duration,
	transcription, provider, model, language, has_error, error_message, created_at`

// Record inserts one history row. A zero CreatedAt is stamped with now.
func (s *Store) Record(ctx context.Context, record *model.HistoryRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO transcriptions (
		source, input_dir, file_name, file_hash, file_size, audio_duration,
		transcription, provider, model, language, has_error, error_message, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, s.rebind(query),
		record.Source, record.InputDir, record.FileName, record.FileHash,
		record.FileSize, record.AudioDuration, record.Text, record.Provider,
		record.Model, record.Language, record.HasError, record.ErrorMessage,
		createdAt)
	if err != nil {
		return fmt.Errorf("repository: record %s: %w", record.FileName, err)
	}
	return nil
}

// HasProcessed reports whether a successful transcription exists for the
// file name, or for the content hash when one is given. Failed attempts do
// not count.
func (s *Store) HasProcessed(ctx context.Context, fileName, fileHash string) (bool, error) {
	query := `SELECT COUNT(*) FROM transcriptions
		WHERE has_error = ? AND (file_name = ? OR (file_hash <> '' AND file_hash = ?))`

	var count int64
	err := s.db.QueryRowContext(ctx, s.rebind(query), false, fileName, fileHash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("repository: lookup %s: %w", fileName, err)
	}
	return count > 0, nil
}

// GetByID returns a single record, or nil when no row has the id.
func (s *Store) GetByID(ctx context.Context, id int) (*model.HistoryRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcriptions WHERE id = ?`, historyColumns)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), id)
	if err != nil {
		return nil, fmt.Errorf("repository: get %d: %w", id, err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// GetRecent returns the newest records, newest first.
func (s *Store) GetRecent(ctx context.Context, limit int) ([]model.HistoryRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcriptions ORDER BY created_at DESC%s`,
		historyColumns, limitClause(limit))

	rows, err := s.db.QueryContext(ctx, s.rebind(query))
	if err != nil {
		return nil, fmt.Errorf("repository: recent: %w", err)
	}
	return scanRecords(rows)
}

// GetBySource returns records for one source collection, newest first.
func (s *Store) GetBySource(ctx context.Context, source string, limit int) ([]model.HistoryRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcriptions WHERE source = ? ORDER BY created_at DESC%s`,
		historyColumns, limitClause(limit))

	rows, err := s.db.QueryContext(ctx, s.rebind(query), source)
	if err != nil {
		return nil, fmt.Errorf("repository: source %s: %w", source, err)
	}
	return scanRecords(rows)
}

// Search matches the term case-insensitively against the transcript text
// and the file name.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]model.HistoryRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcriptions
		WHERE LOWER(transcription) LIKE ? OR LOWER(file_name) LIKE ?
		ORDER BY created_at DESC%s`, historyColumns, limitClause(limit))

	pattern := "%" + strings.ToLower(term) + "%"
	rows, err := s.db.QueryContext(ctx, s.rebind(query), pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("repository: search %q: %w", term, err)
	}
	return scanRecords(rows)
}

// StatsBySource aggregates successful transcriptions per source, largest
// first.
func (s *Store) StatsBySource(ctx context.Context) ([]SourceStats, error) {
	query := `SELECT source, COUNT(*), COALESCE(SUM(audio_duration), 0)
		FROM transcriptions WHERE has_error = ?
		GROUP BY source ORDER BY COUNT(*) DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), false)
	if err != nil {
		return nil, fmt.Errorf("repository: stats: %w", err)
	}
	defer rows.Close()

	var stats []SourceStats
	for rows.Next() {
		var st SourceStats
		if err := rows.Scan(&st.Source, &st.Files, &st.Duration); err != nil {
			return nil, fmt.Errorf("repository: scan stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: stats rows: %w", err)
	}
	return stats, nil
}

// Count returns the total number of history rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcriptions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: count: %w", err)
	}
	return count, nil
}

// rebind rewrites ? placeholders to the dialect's numbered form when needed.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

func scanRecords(rows *sql.Rows) ([]model.HistoryRecord, error) {
	defer rows.Close()

	records := make([]model.HistoryRecord, 0)
	for rows.Next() {
		var r model.HistoryRecord
		err := rows.Scan(&r.ID, &r.Source, &r.InputDir, &r.FileName, &r.FileHash,
			&r.FileSize, &r.AudioDuration, &r.Text, &r.Provider, &r.Model,
			&r.Language, &r.HasError, &r.ErrorMessage, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: scan: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: rows: %w", err)
	}
	return records, nil
}
