// Package integration exercises whole flows across packages: batch runs
// feeding history, history feeding exports. Everything here runs hermetically
// against SQLite and the mock provider.
package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/batch"
	"green-needle/internal/app/export"
	"green-needle/internal/app/pipeline"
	"green-needle/internal/app/repository"
	"green-needle/internal/app/repository/sqlite"
	"green-needle/internal/app/testutil"
	"green-needle/internal/app/transcript"
)

// testChain skips the audio loader so tests run without ffmpeg installed.
func testChain(opts pipeline.ChainOptions) *pipeline.Pipeline {
	return pipeline.New("test",
		pipeline.Transcribe{
			Provider: opts.Provider,
			Language: opts.Language,
			Model:    opts.Model,
			Task:     opts.Task,
		},
		pipeline.SaveToFile{OutputDir: opts.OutputDir, Format: opts.Format},
	)
}

func writeMediaFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("fake audio "+name), 0o644))
		mtime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func runBatch(t *testing.T, inputDir, outputDir string, store *repository.Store, skipSeen bool) batch.Summary {
	t.Helper()

	mock := testutil.NewMockProvider().WithText("the quick brown fox", 12.5)
	p, err := batch.New(batch.Options{
		InputDir:     inputDir,
		OutputDir:    outputDir,
		Format:       transcript.FormatSRT,
		Workers:      2,
		SkipExisting: skipSeen,
		Pipeline:     pipeline.ChainOptions{Provider: mock},
	},
		batch.WithHistory(store),
		batch.WithChainBuilder(testChain),
	)
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	return batch.Summarize(report)
}

func TestBatchRunFeedsHistoryAndSkipsReruns(t *testing.T) {
	inputDir, outputDir := t.TempDir(), t.TempDir()
	writeMediaFiles(t, inputDir, "intro.mp3", "lesson.mp3", "outro.mp3")
	store := openStore(t)

	summary := runBatch(t, inputDir, outputDir, store, false)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.InDelta(t, 37.5, summary.AudioSeconds, 0.01)

	srt, err := os.ReadFile(filepath.Join(outputDir, "lesson.srt"))
	require.NoError(t, err)
	assert.Contains(t, string(srt), "00:00:00,000 --> 00:00:12,500")
	assert.Contains(t, string(srt), "the quick brown fox")

	ctx := context.Background()
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	records, err := store.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	source := filepath.Base(inputDir)
	for _, record := range records {
		assert.Equal(t, source, record.Source)
		assert.Equal(t, "the quick brown fox", record.Text)
		assert.NotEmpty(t, record.FileHash)
		assert.False(t, record.HasError)
	}

	// A second run over the same inputs finds them in history. The outputs
	// land in a fresh directory, so only the history lookup can skip them.
	rerun := runBatch(t, inputDir, t.TempDir(), store, true)
	assert.Equal(t, 3, rerun.Total)
	assert.Equal(t, 0, rerun.Succeeded)
	assert.Equal(t, 3, rerun.Skipped)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "skipped files are not re-recorded")
}

func TestHistoryExportsToExcel(t *testing.T) {
	inputDir, outputDir := t.TempDir(), t.TempDir()
	writeMediaFiles(t, inputDir, "talk.mp3")
	store := openStore(t)
	runBatch(t, inputDir, outputDir, store, false)

	records, err := store.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	xlsxPath := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, export.ToExcel(records, xlsxPath))

	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestFailedFilesLandInHistoryWithError(t *testing.T) {
	inputDir, outputDir := t.TempDir(), t.TempDir()
	writeMediaFiles(t, inputDir, "broken.mp3")
	store := openStore(t)

	mock := testutil.NewMockProvider().WithError(errors.New("decode blew up"))

	p, err := batch.New(batch.Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Workers:   1,
		Pipeline:  pipeline.ChainOptions{Provider: mock},
	},
		batch.WithHistory(store),
		batch.WithChainBuilder(testChain),
	)
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	summary := batch.Summarize(report)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.FailedFiles, 1)
	assert.Equal(t, "broken.mp3", filepath.Base(summary.FailedFiles[0]))

	records, err := store.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].HasError)
	assert.Contains(t, records[0].ErrorMessage, "decode blew up")

	ok, err := store.HasProcessed(context.Background(), "broken.mp3", "")
	require.NoError(t, err)
	assert.False(t, ok, "failed attempts do not mark a file processed")
}
