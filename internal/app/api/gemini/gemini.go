// Package gemini transcribes audio through the Gemini API. The recording is
// sent inline with an instruction prompt; the reply is plain text without
// timings, so results carry no segments.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
)

const (
	defaultModel = "gemini-2.0-flash"
	// maxInlineMB is the API's inline request size limit.
	maxInlineMB = 20
)

// Config holds the settings for the Gemini backend.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Provider is the Gemini implementation of TranscriptionProvider. The API
// client is created lazily on first use.
type Provider struct {
	provider.BaseProvider
	config Config

	mu     sync.Mutex
	client *genai.Client
}

// New creates a Gemini provider. An empty api_key falls back to the
// GEMINI_API_KEY environment variable.
func New(config Config) *Provider {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if config.Model == "" {
		config.Model = defaultModel
	}

	base := provider.NewBaseProvider("gemini", "Gemini", provider.ProviderTypeRemote, "1.0.0")
	base.SupportedFormats = []provider.AudioFormat{
		provider.FormatWAV, provider.FormatMP3, provider.FormatM4A,
		provider.FormatFLAC, provider.FormatOGG, provider.FormatWEBM,
	}
	base.MaxFileSizeMB = maxInlineMB
	base.SupportsTimestamps = false
	base.SupportsLanguageDetection = true
	base.RequiresInternet = true
	base.RequiresAPIKey = true
	base.DefaultModel = config.Model
	base.AvailableModels = []string{"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-1.5-pro"}

	return &Provider{
		BaseProvider: base,
		config:       config,
	}
}

// ValidateConfig checks that an API key is present.
func (p *Provider) ValidateConfig() error {
	if p.config.APIKey == "" {
		return errors.Wrap(errors.ErrConfig, "gemini: api key is required (set api_key or GEMINI_API_KEY)")
	}
	return nil
}

// HealthCheck counts tokens on a trivial prompt, which exercises the key and
// the model without generating anything.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}
	client, err := p.ensureClient(ctx)
	if err != nil {
		return err
	}
	if _, err := client.Models.CountTokens(ctx, p.config.Model, genai.Text("ping"), nil); err != nil {
		return wrapAPIError(err)
	}
	return nil
}

// Transcribe sends the audio inline and returns the text reply.
func (p *Provider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	start := time.Now()

	if request.InputFilePath == "" {
		return nil, errors.Wrap(errors.ErrFileNotFound, "gemini: empty input path")
	}
	info, err := os.Stat(request.InputFilePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFileNotFound, "gemini: %s", request.InputFilePath)
	}
	if sizeMB := info.Size() / (1 << 20); sizeMB > maxInlineMB {
		return nil, errors.Newf(errors.KindInput, "gemini: %s is %d MB, inline uploads accept at most %d MB",
			request.InputFilePath, sizeMB, maxInlineMB)
	}

	data, err := os.ReadFile(request.InputFilePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCorruptAudio, "gemini: read %s: %v", request.InputFilePath, err)
	}

	client, err := p.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(transcribePrompt(request)),
		genai.NewPartFromBytes(data, mimeTypeFor(request.InputFilePath)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	generateConfig := &genai.GenerateContentConfig{}
	if request.Temperature > 0 {
		generateConfig.Temperature = genai.Ptr(request.Temperature)
	}

	model := p.model(request)
	resp, err := client.Models.GenerateContent(ctx, model, contents, generateConfig)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, wrapAPIError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, errors.Wrap(errors.ErrTranscription, "gemini: model returned no text")
	}

	response := &provider.TranscriptionResponse{
		Text:           text,
		ModelUsed:      model,
		ProcessingTime: time.Since(start),
	}
	if request.Language != "" && request.Language != "auto" {
		response.Language = request.Language
	}

	request.ReportProgress(100)
	return response, nil
}

func (p *Provider) model(request *provider.TranscriptionRequest) string {
	if request.Model != "" && !provider.IsKnownModelSize(request.Model) {
		return request.Model
	}
	return p.config.Model
}

func (p *Provider) ensureClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  p.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: p.config.Timeout}
	}
	if p.config.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = p.config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfig, "gemini: client: %v", err)
	}
	p.client = client
	return client, nil
}

// transcribePrompt builds the instruction sent alongside the audio.
func transcribePrompt(request *provider.TranscriptionRequest) string {
	var b strings.Builder
	if request.Task == "translate" {
		b.WriteString("Transcribe the speech in this recording and translate it into English.")
	} else {
		b.WriteString("Transcribe the speech in this recording verbatim.")
	}
	b.WriteString(" Reply with the transcript text only, no commentary.")
	if request.Language != "" && request.Language != "auto" {
		fmt.Fprintf(&b, " The speech is in %q.", request.Language)
	}
	if request.Prompt != "" {
		fmt.Fprintf(&b, " Context: %s", request.Prompt)
	}
	return b.String()
}

// mimeTypeFor maps a file extension to the MIME type the API expects.
func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mp3"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".aac":
		return "audio/aac"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".webm":
		return "audio/webm"
	case ".aiff", ".aif":
		return "audio/aiff"
	default:
		return "audio/wav"
	}
}

// wrapAPIError classifies API failures by HTTP status.
func wrapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrapf(errors.ErrConfig, "gemini: authentication failed: %v", err)
		case http.StatusTooManyRequests:
			return errors.Wrapf(errors.ErrResource, "gemini: rate limited: %v", err)
		}
	}
	return errors.Wrapf(errors.ErrTranscription, "gemini: %v", err)
}
