// Package whisper_cpp runs transcription through a local whisper.cpp binary.
// Inputs that are not already 16 kHz mono WAV are converted first, the binary
// writes its JSON output to a scratch file, and progress is scraped from the
// binary's stderr.
package whisper_cpp

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/audio"
	"green-needle/internal/app/errors"
	"green-needle/internal/app/util/files"
)

// stderrTailLines bounds how much stderr is kept for error messages.
const stderrTailLines = 20

// Config holds the settings for the local whisper.cpp backend.
type Config struct {
	// BinaryPath is the whisper.cpp executable, either absolute or on PATH.
	BinaryPath string `yaml:"binary_path"`
	// ModelPath is a ggml model file, or a directory holding
	// ggml-<size>.bin files that requests select from by size name.
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
	Prompt    string `yaml:"prompt"`
	Threads   int    `yaml:"threads"`
	TempDir   string `yaml:"temp_dir"`
}

// Provider is the whisper.cpp implementation of TranscriptionProvider.
type Provider struct {
	provider.BaseProvider
	config Config
	logger *zap.Logger
}

// New creates a whisper.cpp provider. The configuration is not validated
// here; ValidateConfig runs when the provider is registered.
func New(config Config) *Provider {
	if config.TempDir == "" {
		config.TempDir = filepath.Join(audio.ScratchDir(), "whisper_cpp")
	}

	base := provider.NewBaseProvider("whisper_cpp", "whisper.cpp", provider.ProviderTypeLocal, "1.0.0")
	base.SupportedFormats = []provider.AudioFormat{
		provider.FormatWAV, provider.FormatMP3, provider.FormatM4A,
		provider.FormatFLAC, provider.FormatOGG, provider.FormatWEBM,
	}
	base.SupportsWordLevel = true
	base.SupportsLanguageDetection = true
	base.RequiresBinary = true
	base.DefaultModel = "base"
	base.AvailableModels = provider.ModelSizes

	return &Provider{
		BaseProvider: base,
		config:       config,
		logger:       zap.NewNop(),
	}
}

// WithLogger attaches a logger and returns the provider.
func (p *Provider) WithLogger(logger *zap.Logger) *Provider {
	p.logger = logger
	return p
}

// ValidateConfig checks that the binary and the model path exist.
func (p *Provider) ValidateConfig() error {
	if p.config.BinaryPath == "" {
		return errors.Wrap(errors.ErrConfig, "whisper_cpp: binary_path is required")
	}
	if _, err := exec.LookPath(p.config.BinaryPath); err != nil {
		return errors.Wrapf(errors.ErrConfig, "whisper_cpp: binary %s not found", p.config.BinaryPath)
	}
	if p.config.ModelPath == "" {
		return errors.Wrap(errors.ErrConfig, "whisper_cpp: model_path is required")
	}
	if _, err := os.Stat(p.config.ModelPath); err != nil {
		return errors.Wrapf(errors.ErrConfig, "whisper_cpp: model path %s not found", p.config.ModelPath)
	}
	return nil
}

// HealthCheck verifies the binary runs and the default model resolves.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}
	if _, err := resolveModel(p.config.ModelPath, ""); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, p.config.BinaryPath, "--help")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		// Printing usage and exiting nonzero still means the binary runs.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return errors.Wrapf(errors.ErrModelLoad, "whisper_cpp: binary %s failed to start: %v", p.config.BinaryPath, err)
		}
	}
	return nil
}

// Transcribe converts the input if needed, runs the binary with JSON output
// and parses the result. Progress lines on stderr are forwarded to the
// request's callback.
func (p *Provider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	start := time.Now()

	if request.InputFilePath == "" {
		return nil, errors.Wrap(errors.ErrFileNotFound, "whisper_cpp: empty input path")
	}
	if _, err := os.Stat(request.InputFilePath); err != nil {
		return nil, errors.Wrapf(errors.ErrFileNotFound, "whisper_cpp: %s", request.InputFilePath)
	}

	modelFile, err := resolveModel(p.config.ModelPath, request.Model)
	if err != nil {
		return nil, err
	}

	inputPath := request.InputFilePath
	ready, err := audio.IsModelReady(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	if !ready {
		p.logger.Debug("converting input to 16 kHz mono WAV",
			zap.String("file", inputPath))
		inputPath, err = audio.ConvertToModelWav(ctx, inputPath)
		if err != nil {
			return nil, err
		}
	}

	if err := files.EnsureDir(p.config.TempDir); err != nil {
		return nil, errors.Wrapf(errors.ErrResource, "whisper_cpp: temp dir %s", p.config.TempDir)
	}
	outputBase := filepath.Join(p.config.TempDir, uuid.NewString())
	outputFile := outputBase + ".json"
	defer os.Remove(outputFile)

	args := p.commandArgs(request, modelFile, inputPath, outputBase)
	cmd := exec.CommandContext(ctx, p.config.BinaryPath, args...)
	cmd.Stdout = io.Discard

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_cpp: stderr pipe: %v", err)
	}

	p.logger.Debug("running whisper.cpp",
		zap.String("binary", p.config.BinaryPath),
		zap.Strings("args", args))

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_cpp: start: %v", err)
	}

	progress := provider.MonotonicProgress(request.Progress)
	var tail []string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if percent, ok := parseProgressLine(line); ok {
			if progress != nil {
				progress(percent)
			}
			continue
		}
		tail = append(tail, line)
		if len(tail) > stderrTailLines {
			tail = tail[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_cpp: %v: %s", err, strings.Join(tail, " | "))
	}

	raw, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_cpp: read output %s: %v", outputFile, err)
	}
	response, err := parseOutput(raw)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		progress(100)
	}

	response.ModelUsed = modelName(modelFile)
	response.ProcessingTime = time.Since(start)

	p.logger.Info("transcription finished",
		zap.String("file", request.InputFilePath),
		zap.String("model", response.ModelUsed),
		zap.Duration("took", response.ProcessingTime))

	return response, nil
}

// commandArgs builds the binary's argument list for one request.
func (p *Provider) commandArgs(request *provider.TranscriptionRequest, modelFile, inputPath, outputBase string) []string {
	language := p.config.Language
	if request.Language != "" {
		language = request.Language
	}
	if language == "" {
		language = "auto"
	}

	args := []string{
		"-m", modelFile,
		"-f", inputPath,
		"-l", language,
		"-of", outputBase,
		"--print-progress",
	}
	// -ojf adds token-level data to the JSON output.
	if request.WordTimestamps {
		args = append(args, "-ojf")
	} else {
		args = append(args, "-oj")
	}
	if p.config.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(p.config.Threads))
	}
	prompt := p.config.Prompt
	if request.Prompt != "" {
		prompt = request.Prompt
	}
	if prompt != "" {
		args = append(args, "--prompt", prompt)
	}
	if request.Temperature > 0 {
		args = append(args, "--temperature", strconv.FormatFloat(float64(request.Temperature), 'g', -1, 32))
	}
	if request.Task == "translate" {
		args = append(args, "--translate")
	}
	return args
}

// resolveModel picks the ggml model file to load. A request may name a model
// file directly or one of the published sizes; sizes resolve to
// ggml-<size>.bin under the configured directory, or next to the configured
// file.
func resolveModel(configured, requested string) (string, error) {
	if requested != "" {
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			return requested, nil
		}
		if !provider.IsKnownModelSize(requested) {
			return "", errors.Wrapf(errors.ErrModelLoad, "whisper_cpp: unknown model %q", requested)
		}
	}

	info, err := os.Stat(configured)
	if err != nil {
		return "", errors.Wrapf(errors.ErrModelLoad, "whisper_cpp: model path %s", configured)
	}

	dir := configured
	if !info.IsDir() {
		if requested == "" {
			return configured, nil
		}
		dir = filepath.Dir(configured)
	}

	size := requested
	if size == "" {
		size = "base"
	}
	candidate := filepath.Join(dir, "ggml-"+size+".bin")
	if _, err := os.Stat(candidate); err != nil {
		return "", errors.Wrapf(errors.ErrModelLoad, "whisper_cpp: model file %s not found", candidate)
	}
	return candidate, nil
}

// modelName shortens a model file path to its size name for reporting.
func modelName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".bin")
	return strings.TrimPrefix(name, "ggml-")
}
