// Package openai transcribes audio through the OpenAI speech API. Responses
// are requested in verbose JSON so segment and word timings survive the trip.
package openai

import (
	"context"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
)

// maxUploadMB is the API's upload limit.
const maxUploadMB = 25

// Config holds the settings for the OpenAI backend.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Language    string        `yaml:"language"`
	Prompt      string        `yaml:"prompt"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// audioClient is the slice of the OpenAI client the provider uses. Tests
// substitute a fake.
type audioClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
	CreateTranslation(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Provider is the OpenAI implementation of TranscriptionProvider.
type Provider struct {
	provider.BaseProvider
	config Config
	client audioClient
}

// New creates an OpenAI provider. An empty api_key falls back to the
// OPENAI_API_KEY environment variable.
func New(config Config) *Provider {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if config.Model == "" {
		config.Model = openai.Whisper1
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	base := provider.NewBaseProvider("openai", "OpenAI", provider.ProviderTypeRemote, "1.0.0")
	base.SupportedFormats = []provider.AudioFormat{
		provider.FormatWAV, provider.FormatMP3, provider.FormatM4A,
		provider.FormatFLAC, provider.FormatOGG, provider.FormatWEBM,
	}
	base.MaxFileSizeMB = maxUploadMB
	base.SupportsWordLevel = true
	base.SupportsLanguageDetection = true
	base.RequiresInternet = true
	base.RequiresAPIKey = true
	base.DefaultModel = config.Model
	base.AvailableModels = []string{openai.Whisper1}

	return &Provider{
		BaseProvider: base,
		config:       config,
		client:       openai.NewClientWithConfig(clientConfig),
	}
}

// ValidateConfig checks that an API key is present.
func (p *Provider) ValidateConfig() error {
	if p.config.APIKey == "" {
		return errors.Wrap(errors.ErrConfig, "openai: api key is required (set api_key or OPENAI_API_KEY)")
	}
	return nil
}

// HealthCheck lists models to prove the key and the endpoint work.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}
	if _, err := p.client.ListModels(ctx); err != nil {
		return wrapAPIError(err)
	}
	return nil
}

// Transcribe uploads the file and converts the verbose JSON response.
func (p *Provider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	start := time.Now()

	if request.InputFilePath == "" {
		return nil, errors.Wrap(errors.ErrFileNotFound, "openai: empty input path")
	}
	info, err := os.Stat(request.InputFilePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFileNotFound, "openai: %s", request.InputFilePath)
	}
	if sizeMB := info.Size() / (1 << 20); sizeMB > maxUploadMB {
		return nil, errors.Newf(errors.KindInput, "openai: %s is %d MB, the API accepts at most %d MB",
			request.InputFilePath, sizeMB, maxUploadMB)
	}

	audioRequest := p.audioRequest(request)

	var resp openai.AudioResponse
	if request.Task == "translate" {
		resp, err = p.client.CreateTranslation(ctx, audioRequest)
	} else {
		resp, err = p.client.CreateTranscription(ctx, audioRequest)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, wrapAPIError(err)
	}

	response := fromAudioResponse(resp)
	response.ModelUsed = audioRequest.Model
	response.ProcessingTime = time.Since(start)

	request.ReportProgress(100)
	return response, nil
}

// audioRequest maps a transcription request onto the API's request type.
// Size names like "base" select local models and mean nothing here, so they
// fall back to the configured model.
func (p *Provider) audioRequest(request *provider.TranscriptionRequest) openai.AudioRequest {
	apiModel := p.config.Model
	if request.Model != "" && !provider.IsKnownModelSize(request.Model) {
		apiModel = request.Model
	}

	language := p.config.Language
	if request.Language != "" {
		language = request.Language
	}
	if language == "auto" {
		language = ""
	}

	prompt := p.config.Prompt
	if request.Prompt != "" {
		prompt = request.Prompt
	}

	temperature := p.config.Temperature
	if request.Temperature > 0 {
		temperature = request.Temperature
	}

	audioRequest := openai.AudioRequest{
		Model:       apiModel,
		FilePath:    request.InputFilePath,
		Language:    language,
		Prompt:      prompt,
		Temperature: temperature,
		Format:      openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	}
	if request.WordTimestamps {
		audioRequest.TimestampGranularities = append(audioRequest.TimestampGranularities,
			openai.TranscriptionTimestampGranularityWord)
	}
	return audioRequest
}

// fromAudioResponse converts the API's verbose JSON body.
func fromAudioResponse(resp openai.AudioResponse) *provider.TranscriptionResponse {
	response := &provider.TranscriptionResponse{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}
	for _, seg := range resp.Segments {
		response.Segments = append(response.Segments, model.Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	for _, word := range resp.Words {
		response.Words = append(response.Words, model.Word{
			Word:  word.Word,
			Start: word.Start,
			End:   word.End,
		})
	}
	return response
}

// wrapAPIError classifies API failures: auth problems are configuration
// errors, rate limits are resource errors, everything else is a
// transcription failure.
func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrapf(errors.ErrConfig, "openai: authentication failed: %v", apiErr)
		case http.StatusTooManyRequests:
			return errors.Wrapf(errors.ErrResource, "openai: rate limited: %v", apiErr)
		case http.StatusRequestEntityTooLarge:
			return errors.Newf(errors.KindInput, "openai: upload rejected as too large: %v", apiErr)
		}
	}
	return errors.Wrapf(errors.ErrTranscription, "openai: %v", err)
}
