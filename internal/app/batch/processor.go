// Package batch drives transcription over whole directories with a bounded
// worker pool. Every input file ends up as exactly one entry in the run
// report regardless of how it fared.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
	"green-needle/internal/app/pipeline"
	"green-needle/internal/app/transcript"
	"green-needle/internal/app/util/files"
	"green-needle/internal/app/utils"
)

// ResultCache stores finished results keyed by input content and settings.
// Get returns nil without error on a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (*model.TranscriptionResult, error)
	Set(ctx context.Context, key string, result *model.TranscriptionResult) error
}

// HistoryStore records finished transcriptions and answers lookups for
// already-processed files.
type HistoryStore interface {
	Record(ctx context.Context, record *model.HistoryRecord) error
	HasProcessed(ctx context.Context, fileName, fileHash string) (bool, error)
}

// Archiver copies finished transcript files to remote storage and returns
// the remote location.
type Archiver interface {
	Archive(ctx context.Context, localPath string) (string, error)
}

// MetricsSink observes per-file outcomes.
type MetricsSink interface {
	ObserveFile(status model.FileStatus, elapsed time.Duration, audioSeconds float64)
}

// ProgressFunc is called once per finished file with the running totals.
type ProgressFunc func(completed, total int, result model.FileResult)

// Options configure one batch run.
type Options struct {
	InputDir  string
	Pattern   string
	Recursive bool

	OutputDir string
	Format    transcript.Format

	Workers      int
	SkipExisting bool

	// Chain names the prebuilt pipeline; empty means standard.
	Chain    string
	Pipeline pipeline.ChainOptions
}

// Option wires optional collaborators into a Processor.
type Option func(*Processor)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithCache short-circuits repeat transcriptions of identical content.
func WithCache(cache ResultCache) Option {
	return func(p *Processor) { p.cache = cache }
}

// WithHistory records finished files and enables history-based skipping.
func WithHistory(history HistoryStore) Option {
	return func(p *Processor) { p.history = history }
}

// WithArchiver uploads finished transcripts.
func WithArchiver(archiver Archiver) Option {
	return func(p *Processor) { p.archiver = archiver }
}

// WithMetrics publishes per-file observations.
func WithMetrics(metrics MetricsSink) Option {
	return func(p *Processor) { p.metrics = metrics }
}

// WithProgress reports per-file completion.
func WithProgress(progress ProgressFunc) Option {
	return func(p *Processor) { p.progress = progress }
}

// WithChainBuilder replaces the named prebuilt chains with a caller-composed
// pipeline.
func WithChainBuilder(build func(opts pipeline.ChainOptions) *pipeline.Pipeline) Option {
	return func(p *Processor) { p.buildChain = build }
}

// Processor runs one batch configuration. A Processor is safe to reuse for
// sequential runs but not for concurrent ones.
type Processor struct {
	opts   Options
	logger *zap.Logger

	cache      ResultCache
	history    HistoryStore
	archiver   Archiver
	metrics    MetricsSink
	progress   ProgressFunc
	buildChain func(opts pipeline.ChainOptions) *pipeline.Pipeline

	providerName string

	mu        sync.Mutex
	completed int
}

// New validates the configuration up front; a bad configuration never
// reaches processing.
func New(opts Options, options ...Option) (*Processor, error) {
	if opts.InputDir == "" {
		return nil, errors.New(errors.KindConfig, "batch: input directory is required")
	}
	if opts.OutputDir == "" {
		return nil, errors.New(errors.KindConfig, "batch: output directory is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Format == "" {
		opts.Format = transcript.FormatTxt
	}
	if opts.Pipeline.Provider == nil {
		return nil, errors.New(errors.KindConfig, "batch: no transcription provider configured")
	}
	opts.Pipeline.OutputDir = opts.OutputDir
	opts.Pipeline.Format = opts.Format

	p := &Processor{
		opts:         opts,
		logger:       zap.NewNop(),
		providerName: opts.Pipeline.Provider.Info().Name,
	}
	for _, option := range options {
		option(p)
	}
	if p.buildChain == nil {
		if _, ok := pipeline.ChainByName(opts.Chain, opts.Pipeline); !ok {
			return nil, errors.Newf(errors.KindConfig, "batch: unknown pipeline chain %q", opts.Chain)
		}
	}
	return p, nil
}

func (p *Processor) chainFor() *pipeline.Pipeline {
	if p.buildChain != nil {
		return p.buildChain(p.opts.Pipeline)
	}
	chain, _ := pipeline.ChainByName(p.opts.Chain, p.opts.Pipeline)
	return chain
}

type job struct {
	index int
	info  model.FileInfo
}

// Run processes every matching file under the input directory. The returned
// report carries one entry per input even when the context is cancelled
// midway; in that case the context error is returned alongside it.
func (p *Processor) Run(ctx context.Context) (*model.BatchReport, error) {
	fileInfos, err := files.ListMediaFiles(p.opts.InputDir, p.opts.Pattern, p.opts.Recursive)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFileNotFound, "batch: list %s: %v", p.opts.InputDir, err)
	}

	report := &model.BatchReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Results:   make([]model.FileResult, len(fileInfos)),
	}
	total := len(fileInfos)
	p.mu.Lock()
	p.completed = 0
	p.mu.Unlock()

	p.logger.Info("batch started",
		zap.String("run_id", report.RunID),
		zap.String("input_dir", p.opts.InputDir),
		zap.Int("files", total),
		zap.Int("workers", p.opts.Workers))

	if total == 0 {
		report.FinishedAt = time.Now()
		return report, nil
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < p.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result := p.processOne(ctx, j.info)
				report.Results[j.index] = result
				p.fileDone(total, result)
			}
		}()
	}

feed:
	for i, info := range fileInfos {
		select {
		case jobs <- job{index: i, info: info}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	report.FinishedAt = time.Now()

	// Inputs the cancellation cut off still get their report entry.
	for i, result := range report.Results {
		if result.Status == "" {
			report.Results[i] = model.FileResult{
				File:   fileInfos[i].FullPath,
				Status: model.StatusFailed,
				Error:  "run cancelled before this file was processed",
			}
		}
	}

	p.logger.Info("batch finished",
		zap.String("run_id", report.RunID),
		zap.Float64("wall_seconds", report.WallSeconds()))
	return report, ctx.Err()
}

func (p *Processor) fileDone(total int, result model.FileResult) {
	p.mu.Lock()
	p.completed++
	completed := p.completed
	progress := p.progress
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ObserveFile(result.Status, time.Duration(result.Elapsed*float64(time.Second)), result.Duration)
	}
	if progress != nil {
		progress(completed, total, result)
	}
}

// processOne turns a single input into a FileResult. It never returns an
// error: failures are recorded in the result so one bad file cannot stop
// the rest of the run.
func (p *Processor) processOne(ctx context.Context, info model.FileInfo) model.FileResult {
	started := time.Now()
	fileResult := model.FileResult{File: info.FullPath}
	finish := func() model.FileResult {
		fileResult.Elapsed = time.Since(started).Seconds()
		return fileResult
	}

	if err := ctx.Err(); err != nil {
		fileResult.Status = model.StatusFailed
		fileResult.Error = "run cancelled before this file was processed"
		return finish()
	}

	targets := transcript.TargetPaths(info.FullPath, p.opts.OutputDir, p.opts.Format)
	if p.opts.SkipExisting && allExist(targets) {
		p.logger.Debug("outputs exist, skipping", zap.String("file", info.FullPath))
		fileResult.Status = model.StatusSkipped
		fileResult.Outputs = targets
		return finish()
	}

	var fileHash string
	if p.cache != nil || p.history != nil {
		hash, err := utils.FileSHA256(info.FullPath)
		if err != nil {
			p.logger.Warn("hashing failed, continuing without cache",
				zap.String("file", info.FullPath), zap.Error(err))
		} else {
			fileHash = hash
		}
	}

	if p.opts.SkipExisting && p.history != nil && fileHash != "" {
		seen, err := p.history.HasProcessed(ctx, info.Name, fileHash)
		if err != nil {
			p.logger.Warn("history lookup failed", zap.String("file", info.FullPath), zap.Error(err))
		} else if seen {
			fileResult.Status = model.StatusSkipped
			return finish()
		}
	}

	cacheKey := ""
	if fileHash != "" {
		cacheKey = utils.KeyHash(fileHash,
			p.opts.Pipeline.Model, p.opts.Pipeline.Language, p.opts.Pipeline.Task)
	}
	if p.cache != nil && cacheKey != "" {
		cached, err := p.cache.Get(ctx, cacheKey)
		if err != nil {
			p.logger.Warn("cache lookup failed", zap.String("file", info.FullPath), zap.Error(err))
		} else if cached != nil {
			return p.finishFromResult(ctx, info, cached, fileHash, "", &fileResult, finish)
		}
	}

	payload, err := p.chainFor().Run(ctx, pipeline.NewAudioPayload(info.FullPath))
	if err != nil {
		p.logger.Warn("file failed",
			zap.String("file", info.FullPath),
			zap.Error(err))
		fileResult.Status = model.StatusFailed
		fileResult.Error = err.Error()
		p.recordFailure(ctx, info, fileHash, err)
		return finish()
	}
	fileResult.Outputs = payload.Outputs
	return p.finishFromResult(ctx, info, payload.Result, fileHash, cacheKey, &fileResult, finish)
}

// finishFromResult fills the success bookkeeping shared by the fresh and
// cached paths: outputs on disk, cache, history, archive.
func (p *Processor) finishFromResult(ctx context.Context, info model.FileInfo, result *model.TranscriptionResult, fileHash, cacheKey string, fileResult *model.FileResult, finish func() model.FileResult) model.FileResult {
	fileResult.Status = model.StatusSuccess
	if result != nil {
		fileResult.Language = result.Language
		fileResult.Duration = result.Duration
	}

	if len(fileResult.Outputs) == 0 && result != nil {
		// Cached results still need their files written for this input.
		resultCopy := *result
		resultCopy.AudioPath = info.FullPath
		paths, err := transcript.Save(&resultCopy, p.opts.OutputDir, p.opts.Format)
		if err != nil {
			fileResult.Status = model.StatusFailed
			fileResult.Error = err.Error()
			return finish()
		}
		fileResult.Outputs = paths
	}

	if p.cache != nil && cacheKey != "" && result != nil {
		if err := p.cache.Set(ctx, cacheKey, result); err != nil {
			p.logger.Warn("cache store failed", zap.String("file", info.FullPath), zap.Error(err))
		}
	}
	if p.history != nil && result != nil {
		record := p.historyRecord(info, result, fileHash)
		if err := p.history.Record(ctx, record); err != nil {
			p.logger.Warn("history store failed", zap.String("file", info.FullPath), zap.Error(err))
		}
	}
	if p.archiver != nil {
		for _, output := range fileResult.Outputs {
			if _, err := p.archiver.Archive(ctx, output); err != nil {
				p.logger.Warn("archive failed", zap.String("output", output), zap.Error(err))
			}
		}
	}
	return finish()
}

func (p *Processor) historyRecord(info model.FileInfo, result *model.TranscriptionResult, fileHash string) *model.HistoryRecord {
	return &model.HistoryRecord{
		Source:        sourceName(p.opts.InputDir),
		InputDir:      p.opts.InputDir,
		FileName:      info.Name,
		FileHash:      fileHash,
		FileSize:      info.Size,
		AudioDuration: result.Duration,
		Text:          result.Text,
		Provider:      p.providerName,
		Model:         result.Model,
		Language:      result.Language,
		CreatedAt:     time.Now(),
	}
}

// recordFailure writes an error row so reruns can tell a failed attempt
// from a file that was never seen. HasProcessed ignores error rows, so
// failed files are picked up again on the next run.
func (p *Processor) recordFailure(ctx context.Context, info model.FileInfo, fileHash string, runErr error) {
	if p.history == nil {
		return
	}
	record := &model.HistoryRecord{
		Source:       sourceName(p.opts.InputDir),
		InputDir:     p.opts.InputDir,
		FileName:     info.Name,
		FileHash:     fileHash,
		FileSize:     info.Size,
		Provider:     p.providerName,
		Model:        p.opts.Pipeline.Model,
		Language:     p.opts.Pipeline.Language,
		HasError:     true,
		ErrorMessage: runErr.Error(),
		CreatedAt:    time.Now(),
	}
	if err := p.history.Record(ctx, record); err != nil {
		p.logger.Warn("history store failed", zap.String("file", info.FullPath), zap.Error(err))
	}
}

// sourceName turns the input directory into the grouping key used in
// history rows.
func sourceName(inputDir string) string {
	base := filepath.Base(strings.TrimRight(inputDir, "/\\"))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "local"
	}
	return base
}

func allExist(paths []string) bool {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return len(paths) > 0
}
