package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/model"
	"green-needle/internal/app/repository"
)

func mockStore(t *testing.T) (*repository.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewStore(db, repository.DriverPostgres), mock
}

func TestRecordUsesNumberedPlaceholders(t *testing.T) {
	store, mock := mockStore(t)

	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO transcriptions .+ VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11, \$12, \$13\)`).
		WithArgs("podcast", "/data", "ep1.mp3", "abc123", int64(4096), 120.5,
			"transcript text", "openai", "whisper-1", "en", false, "", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Record(context.Background(), &model.HistoryRecord{
		Source:        "podcast",
		InputDir:      "/data",
		FileName:      "ep1.mp3",
		FileHash:      "abc123",
		FileSize:      4096,
		AudioDuration: 120.5,
		Text:          "transcript text",
		Provider:      "openai",
		Model:         "whisper-1",
		Language:      "en",
		CreatedAt:     created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasProcessed(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transcriptions WHERE has_error = \$1 AND \(file_name = \$2 OR \(file_hash <> '' AND file_hash = \$3\)\)`).
		WithArgs(false, "ep1.mp3", "abc123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := store.HasProcessed(context.Background(), "ep1.mp3", "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchLowersTerm(t *testing.T) {
	store, mock := mockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "source", "input_dir", "file_name", "file_hash", "file_size",
		"audio_duration", "transcription", "provider", "model", "language",
		"has_error", "error_message", "created_at",
	}).AddRow(7, "podcast", "/data", "ep1.mp3", "abc123", int64(4096), 120.5,
		"Budget review notes", "openai", "whisper-1", "en", false, "",
		time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))

	mock.ExpectQuery(`LOWER\(transcription\) LIKE \$1 OR LOWER\(file_name\) LIKE \$2`).
		WithArgs("%budget%", "%budget%").
		WillReturnRows(rows)

	got, err := store.Search(context.Background(), "Budget", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
	assert.Equal(t, "Budget review notes", got[0].Text)
	assert.Equal(t, 120.5, got[0].AudioDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDMiss(t *testing.T) {
	store, mock := mockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "source", "input_dir", "file_name", "file_hash", "file_size",
		"audio_duration", "transcription", "provider", "model", "language",
		"has_error", "error_message", "created_at",
	})
	mock.ExpectQuery(`FROM transcriptions WHERE id = \$1`).
		WithArgs(42).
		WillReturnRows(rows)

	got, err := store.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentAppliesLimit(t *testing.T) {
	store, mock := mockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "source", "input_dir", "file_name", "file_hash", "file_size",
		"audio_duration", "transcription", "provider", "model", "language",
		"has_error", "error_message", "created_at",
	})
	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT 5`).WillReturnRows(rows)

	got, err := store.GetRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsBySource(t *testing.T) {
	store, mock := mockStore(t)

	rows := sqlmock.NewRows([]string{"source", "count", "sum"}).
		AddRow("podcast", int64(12), 3600.0).
		AddRow("lectures", int64(3), 900.0)
	mock.ExpectQuery(`GROUP BY source ORDER BY COUNT\(\*\) DESC`).
		WithArgs(false).
		WillReturnRows(rows)

	stats, err := store.StatsBySource(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "podcast", stats[0].Source)
	assert.EqualValues(t, 12, stats[0].Files)
	assert.Equal(t, 3600.0, stats[0].Duration)
	assert.NoError(t, mock.ExpectationsWereMet())
}
