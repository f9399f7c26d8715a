// Package services implements the operations behind the v1 handlers.
package services

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"green-needle/internal/api/errors"
	"green-needle/internal/api/v1/dto"
	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/audio"
	"green-needle/internal/app/model"
	"green-needle/internal/app/pipeline"
	"green-needle/internal/app/repository"
	"green-needle/internal/app/util/files"
	"green-needle/internal/app/utils"
)

// TranscriptionService turns uploads into transcripts and reads history.
// The history store may be nil when disabled; uploads still work, they just
// leave no record behind.
type TranscriptionService struct {
	registry   *provider.Registry
	history    repository.HistoryDAO
	logger     *zap.Logger
	buildChain func(prov provider.TranscriptionProvider, opts dto.TranscribeOptions) *pipeline.Pipeline
}

// NewTranscriptionService wires the service to the provider registry and
// the optional history store.
func NewTranscriptionService(registry *provider.Registry, history repository.HistoryDAO, logger *zap.Logger) *TranscriptionService {
	return &TranscriptionService{
		registry:   registry,
		history:    history,
		logger:     logger,
		buildChain: standardChain,
	}
}

// WithChainBuilder replaces the stage chain uploads run through.
func (s *TranscriptionService) WithChainBuilder(build func(prov provider.TranscriptionProvider, opts dto.TranscribeOptions) *pipeline.Pipeline) *TranscriptionService {
	s.buildChain = build
	return s
}

func standardChain(prov provider.TranscriptionProvider, opts dto.TranscribeOptions) *pipeline.Pipeline {
	return pipeline.New("api",
		pipeline.AudioLoader{},
		pipeline.Transcribe{
			Provider: prov,
			Language: opts.Language,
			Model:    opts.Model,
			Task:     opts.Task,
		},
		pipeline.TextPostProcess{},
	)
}

// Transcribe writes the upload to scratch space, runs it through the
// processing stages, and records the outcome. The call is synchronous: the
// response carries the finished transcript.
func (s *TranscriptionService) Transcribe(ctx context.Context, header *multipart.FileHeader, opts dto.TranscribeOptions) (*dto.TranscriptionResponse, error) {
	if !files.IsMediaFile(header.Filename) {
		return nil, errors.BadRequest("unsupported file type: %s", filepath.Ext(header.Filename))
	}

	prov, providerName, err := s.resolveProvider(opts.Provider)
	if err != nil {
		return nil, err
	}

	uploadPath, err := saveUpload(header)
	if err != nil {
		return nil, err
	}
	defer os.Remove(uploadPath)

	chain := s.buildChain(prov, opts).WithLogger(s.logger)

	start := time.Now()
	payload, err := chain.Run(ctx, pipeline.NewAudioPayload(uploadPath))
	if err != nil {
		s.record(ctx, header, opts, uploadPath, providerName, nil, err)
		return nil, err
	}

	response := dto.FromResult(payload.Result, providerName, time.Since(start))
	response.FileName = header.Filename
	response.Source = sourceName(opts.Source)

	s.record(ctx, header, opts, uploadPath, providerName, payload.Result, nil)
	return &response, nil
}

// List reads history rows, filtered by source or search term when given.
func (s *TranscriptionService) List(ctx context.Context, query dto.ListTranscriptionsQuery) (*dto.TranscriptionListResponse, error) {
	if s.history == nil {
		return nil, errors.Unavailable("transcription history is disabled")
	}

	var (
		records []model.HistoryRecord
		err     error
	)
	switch {
	case query.Search != "":
		records, err = s.history.Search(ctx, query.Search, query.Limit)
	case query.Source != "":
		records, err = s.history.GetBySource(ctx, query.Source, query.Limit)
	default:
		records, err = s.history.GetRecent(ctx, query.Limit)
	}
	if err != nil {
		return nil, err
	}

	return &dto.TranscriptionListResponse{
		Transcriptions: dto.FromRecords(records),
		Count:          len(records),
	}, nil
}

// Get returns one history row by id.
func (s *TranscriptionService) Get(ctx context.Context, id int) (*dto.TranscriptionResponse, error) {
	if s.history == nil {
		return nil, errors.Unavailable("transcription history is disabled")
	}

	record, err := s.history.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.NotFound("transcription")
	}
	response := dto.FromRecord(*record)
	return &response, nil
}

func (s *TranscriptionService) resolveProvider(name string) (provider.TranscriptionProvider, string, error) {
	if name == "" {
		p, err := s.registry.Default()
		if err != nil {
			return nil, "", errors.Unavailable("no transcription provider configured")
		}
		return p, s.registry.DefaultName(), nil
	}
	p, err := s.registry.Get(name)
	if err != nil {
		return nil, "", errors.BadRequest("unknown provider %q", name)
	}
	return p, name, nil
}

// record writes the history row for one upload. A history failure never
// fails the transcription that produced it.
func (s *TranscriptionService) record(ctx context.Context, header *multipart.FileHeader, opts dto.TranscribeOptions, uploadPath, providerName string, result *model.TranscriptionResult, runErr error) {
	if s.history == nil {
		return
	}

	row := &model.HistoryRecord{
		Source:    sourceName(opts.Source),
		InputDir:  "api",
		FileName:  header.Filename,
		FileSize:  header.Size,
		Provider:  providerName,
		Model:     opts.Model,
		Language:  opts.Language,
		CreatedAt: time.Now(),
	}
	if hash, err := utils.FileSHA256(uploadPath); err == nil {
		row.FileHash = hash
	}
	if result != nil {
		row.AudioDuration = result.Duration
		row.Text = result.Text
		if result.Model != "" {
			row.Model = result.Model
		}
		if result.Language != "" {
			row.Language = result.Language
		}
	}
	if runErr != nil {
		row.HasError = true
		row.ErrorMessage = runErr.Error()
	}

	if err := s.history.Record(ctx, row); err != nil {
		s.logger.Warn("history record failed",
			zap.String("file", header.Filename),
			zap.Error(err))
	}
}

// saveUpload copies the multipart file into scratch space under a unique
// name so concurrent uploads of the same file cannot collide.
func saveUpload(header *multipart.FileHeader) (string, error) {
	uploadDir := filepath.Join(audio.ScratchDir(), "uploads")
	if err := files.EnsureDir(uploadDir); err != nil {
		return "", err
	}

	src, err := header.Open()
	if err != nil {
		return "", errors.BadRequest("read upload: %v", err)
	}
	defer src.Close()

	name := uuid.New().String()[:8] + "_" + files.SanitizeFilename(header.Filename)
	uploadPath := filepath.Join(uploadDir, name)
	dst, err := os.Create(uploadPath)
	if err != nil {
		return "", errors.Internal("store upload: " + err.Error())
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(uploadPath)
		return "", errors.BadRequest("read upload: %v", err)
	}
	return uploadPath, nil
}

func sourceName(source string) string {
	if source == "" {
		return "api"
	}
	return source
}
