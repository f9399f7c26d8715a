// Package elevenlabs transcribes audio through the ElevenLabs speech-to-text
// API. The API returns text plus word timings; sentence-like segments are
// rebuilt locally from the word stream.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultModel   = "scribe_v1"
	maxUploadMB    = 1000
)

// Config holds the settings for the ElevenLabs backend.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Provider is the ElevenLabs implementation of TranscriptionProvider.
type Provider struct {
	provider.BaseProvider
	config Config
	client *http.Client
}

// New creates an ElevenLabs provider. An empty api_key falls back to the
// ELEVENLABS_API_KEY environment variable.
func New(config Config) *Provider {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}

	base := provider.NewBaseProvider("elevenlabs", "ElevenLabs", provider.ProviderTypeRemote, "1.0.0")
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
	base.AvailableModels = []string{"scribe_v1", "scribe_v1_experimental"}

	return &Provider{
		BaseProvider: base,
		config:       config,
		client:       &http.Client{Timeout: config.Timeout},
	}
}

// ValidateConfig checks that an API key is present.
func (p *Provider) ValidateConfig() error {
	if p.config.APIKey == "" {
		return errors.Wrap(errors.ErrConfig, "elevenlabs: api key is required (set api_key or ELEVENLABS_API_KEY)")
	}
	return nil
}

// HealthCheck calls the user endpoint to prove the key works.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/user", nil)
	if err != nil {
		return errors.Wrapf(errors.ErrTranscription, "elevenlabs: %v", err)
	}
	req.Header.Set("xi-api-key", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrTranscription, "elevenlabs: unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return wrapStatus(resp.StatusCode, body)
	}
	return nil
}

// Transcribe uploads the file and rebuilds segments from the word stream.
func (p *Provider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	start := time.Now()

	if request.InputFilePath == "" {
		return nil, errors.Wrap(errors.ErrFileNotFound, "elevenlabs: empty input path")
	}
	info, err := os.Stat(request.InputFilePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFileNotFound, "elevenlabs: %s", request.InputFilePath)
	}
	if sizeMB := info.Size() / (1 << 20); sizeMB > maxUploadMB {
		return nil, errors.Newf(errors.KindInput, "elevenlabs: %s is %d MB, the API accepts at most %d MB",
			request.InputFilePath, sizeMB, maxUploadMB)
	}

	body, contentType, err := p.buildForm(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/speech-to-text", body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "elevenlabs: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("xi-api-key", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(errors.ErrTranscription, "elevenlabs: request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "elevenlabs: read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, wrapStatus(resp.StatusCode, data)
	}

	response, err := parseResponse(data)
	if err != nil {
		return nil, err
	}
	response.ModelUsed = p.model(request)
	response.ProcessingTime = time.Since(start)

	request.ReportProgress(100)
	return response, nil
}

func (p *Provider) model(request *provider.TranscriptionRequest) string {
	if request.Model != "" && !provider.IsKnownModelSize(request.Model) {
		return request.Model
	}
	return p.config.Model
}

// buildForm assembles the multipart body for one request.
func (p *Provider) buildForm(request *provider.TranscriptionRequest) (*bytes.Buffer, string, error) {
	file, err := os.Open(request.InputFilePath)
	if err != nil {
		return nil, "", errors.Wrapf(errors.ErrFileNotFound, "elevenlabs: %s", request.InputFilePath)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(request.InputFilePath))
	if err != nil {
		return nil, "", errors.Wrapf(errors.ErrTranscription, "elevenlabs: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", errors.Wrapf(errors.ErrTranscription, "elevenlabs: %v", err)
	}

	if err := writer.WriteField("model_id", p.model(request)); err != nil {
		return nil, "", errors.Wrapf(errors.ErrTranscription, "elevenlabs: %v", err)
	}
	if request.Language != "" && request.Language != "auto" {
		if err := writer.WriteField("language_code", request.Language); err != nil {
			return nil, "", errors.Wrapf(errors.ErrTranscription, "elevenlabs: %v", err)
		}
	}
	granularity := "word"
	if !request.WordTimestamps {
		granularity = "none"
	}
	if err := writer.WriteField("timestamps_granularity", granularity); err != nil {
		return nil, "", errors.Wrapf(errors.ErrTranscription, "elevenlabs: %v", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrapf(errors.ErrTranscription, "elevenlabs: %v", err)
	}
	return body, writer.FormDataContentType(), nil
}

func wrapStatus(status int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(errors.ErrConfig, "elevenlabs: authentication failed (%d): %s", status, snippet)
	case http.StatusTooManyRequests:
		return errors.Wrapf(errors.ErrResource, "elevenlabs: rate limited (%d): %s", status, snippet)
	default:
		return errors.Wrapf(errors.ErrTranscription, "elevenlabs: status %d: %s", status, snippet)
	}
}

// Wire structs for the speech-to-text reply. Word entries of type "spacing"
// and "audio_event" carry no speech and are dropped.
type sttResponse struct {
	LanguageCode        string    `json:"language_code"`
	LanguageProbability float64   `json:"language_probability"`
	Text                string    `json:"text"`
	Words               []sttWord `json:"words"`
}

type sttWord struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// parseResponse converts an API reply into a provider response.
func parseResponse(data []byte) (*provider.TranscriptionResponse, error) {
	var resp sttResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "elevenlabs: malformed response: %v", err)
	}

	response := &provider.TranscriptionResponse{
		Text:                strings.TrimSpace(resp.Text),
		Language:            resp.LanguageCode,
		LanguageProbability: resp.LanguageProbability,
	}
	for _, word := range resp.Words {
		if word.Type != "" && word.Type != "word" {
			continue
		}
		text := strings.TrimSpace(word.Text)
		if text == "" {
			continue
		}
		response.Words = append(response.Words, model.Word{
			Word:  text,
			Start: word.Start,
			End:   word.End,
		})
	}
	response.Segments = segmentsFromWords(response.Words)
	if n := len(response.Segments); n > 0 {
		response.Duration = response.Segments[n-1].End
	}
	return response, nil
}

// segmentsFromWords groups word timings into sentence-like segments. A
// segment closes after sentence punctuation or a silence of at least a
// second.
func segmentsFromWords(words []model.Word) []model.Segment {
	const pauseSeconds = 1.0

	var segments []model.Segment
	var current []model.Word

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		for i, w := range current {
			texts[i] = w.Word
		}
		segments = append(segments, model.Segment{
			ID:    len(segments),
			Start: current[0].Start,
			End:   current[len(current)-1].End,
			Text:  strings.Join(texts, " "),
			Words: current,
		})
		current = nil
	}

	for _, word := range words {
		if len(current) > 0 && word.Start-current[len(current)-1].End >= pauseSeconds {
			flush()
		}
		current = append(current, word)
		if endsSentence(word.Word) {
			flush()
		}
	}
	flush()
	return segments
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, `"')]`)
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
