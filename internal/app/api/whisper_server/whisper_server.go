// Package whisper_server talks to a whisper.cpp server instance over HTTP.
// Audio is uploaded as a multipart form to the inference endpoint and the
// response is requested in verbose JSON so segments come back with timings.
package whisper_server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
)

// Config holds the settings for a remote whisper server.
type Config struct {
	// BaseURL is the server root, like "http://192.168.1.10:8080".
	BaseURL       string            `yaml:"base_url"`
	InferencePath string            `yaml:"inference_path"`
	LoadPath      string            `yaml:"load_path"`
	Timeout       time.Duration     `yaml:"timeout"`
	Language      string            `yaml:"language"`
	Temperature   float32           `yaml:"temperature"`
	// WordThreshold tunes the server's word timestamp splitting when word
	// timestamps are requested.
	WordThreshold float64           `yaml:"word_threshold"`
	CustomHeaders map[string]string `yaml:"custom_headers"`
}

// Provider is the whisper server implementation of TranscriptionProvider.
type Provider struct {
	provider.BaseProvider
	config Config
	client *http.Client
}

// New creates a whisper server provider with the server's stock endpoint paths.
func New(config Config) *Provider {
	if config.InferencePath == "" {
		config.InferencePath = "/inference"
	}
	if config.LoadPath == "" {
		config.LoadPath = "/load"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	base := provider.NewBaseProvider("whisper_server", "whisper.cpp server", provider.ProviderTypeRemote, "1.0.0")
	base.SupportedFormats = []provider.AudioFormat{
		provider.FormatWAV, provider.FormatMP3, provider.FormatM4A,
		provider.FormatFLAC, provider.FormatOGG, provider.FormatWEBM,
	}
	base.SupportsWordLevel = true
	base.SupportsLanguageDetection = true
	base.RequiresInternet = true

	return &Provider{
		BaseProvider: base,
		config:       config,
		client:       &http.Client{Timeout: config.Timeout},
	}
}

// ValidateConfig checks that the base URL parses.
func (p *Provider) ValidateConfig() error {
	if p.config.BaseURL == "" {
		return errors.Wrap(errors.ErrConfig, "whisper_server: base_url is required")
	}
	parsed, err := url.Parse(p.config.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.Wrapf(errors.ErrConfig, "whisper_server: invalid base_url %q", p.config.BaseURL)
	}
	return nil
}

// HealthCheck probes the server root. Any response at all means the server
// process is reachable; only 5xx counts as down.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if err := p.ValidateConfig(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrTranscription, "whisper_server: %v", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrTranscription, "whisper_server: %s unreachable: %v", p.config.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Wrapf(errors.ErrTranscription, "whisper_server: %s returned %d", p.config.BaseURL, resp.StatusCode)
	}
	return nil
}

// Transcribe uploads the audio and parses the verbose JSON reply.
func (p *Provider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	start := time.Now()

	if request.InputFilePath == "" {
		return nil, errors.Wrap(errors.ErrFileNotFound, "whisper_server: empty input path")
	}
	if _, err := os.Stat(request.InputFilePath); err != nil {
		return nil, errors.Wrapf(errors.ErrFileNotFound, "whisper_server: %s", request.InputFilePath)
	}

	body, contentType, err := p.buildForm(request)
	if err != nil {
		return nil, err
	}

	endpoint := p.config.BaseURL + p.config.InferencePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_server: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_server: request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_server: read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, wrapStatus(resp.StatusCode, data)
	}

	response, err := parseResponse(data)
	if err != nil {
		return nil, err
	}
	response.ModelUsed = "whisper-server"
	response.ProcessingTime = time.Since(start)

	request.ReportProgress(100)
	return response, nil
}

// LoadModel asks the server to switch to a different model file.
func (p *Provider) LoadModel(ctx context.Context, modelPath string) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model", modelPath); err != nil {
		return errors.Wrapf(errors.ErrModelLoad, "whisper_server: %v", err)
	}
	if err := writer.Close(); err != nil {
		return errors.Wrapf(errors.ErrModelLoad, "whisper_server: %v", err)
	}

	endpoint := p.config.BaseURL + p.config.LoadPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return errors.Wrapf(errors.ErrModelLoad, "whisper_server: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrModelLoad, "whisper_server: load request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrModelLoad, "whisper_server: load %s returned %d", modelPath, resp.StatusCode)
	}
	return nil
}

func (p *Provider) setHeaders(req *http.Request) {
	for key, value := range p.config.CustomHeaders {
		req.Header.Set(key, value)
	}
}

// buildForm assembles the multipart body for one request.
func (p *Provider) buildForm(request *provider.TranscriptionRequest) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	file, err := os.Open(request.InputFilePath)
	if err != nil {
		return nil, "", errors.Wrapf(errors.ErrFileNotFound, "whisper_server: %s", request.InputFilePath)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(request.InputFilePath))
	if err != nil {
		return nil, "", errors.Wrapf(errors.ErrTranscription, "whisper_server: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", errors.Wrapf(errors.ErrTranscription, "whisper_server: %v", err)
	}

	fields := map[string]string{
		"response_format": "verbose_json",
	}

	temperature := p.config.Temperature
	if request.Temperature > 0 {
		temperature = request.Temperature
	}
	if temperature > 0 {
		fields["temperature"] = fmt.Sprintf("%.2f", temperature)
	}

	language := p.config.Language
	if request.Language != "" {
		language = request.Language
	}
	if language != "" && language != "auto" {
		fields["language"] = language
	}

	if request.Task == "translate" {
		fields["translate"] = "true"
	}
	if request.WordTimestamps && p.config.WordThreshold > 0 {
		fields["word_thold"] = strconv.FormatFloat(p.config.WordThreshold, 'f', 3, 64)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", errors.Wrapf(errors.ErrTranscription, "whisper_server: field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrapf(errors.ErrTranscription, "whisper_server: %v", err)
	}
	return body, writer.FormDataContentType(), nil
}

// wrapStatus classifies non-200 replies.
func wrapStatus(status int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(errors.ErrConfig, "whisper_server: authentication failed (%d): %s", status, snippet)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return errors.Wrapf(errors.ErrResource, "whisper_server: server busy (%d): %s", status, snippet)
	default:
		return errors.Wrapf(errors.ErrTranscription, "whisper_server: status %d: %s", status, snippet)
	}
}

// Wire structs for the server's verbose JSON reply.
type serverResponse struct {
	Text                        string          `json:"text,omitempty"`
	Task                        string          `json:"task,omitempty"`
	Language                    string          `json:"language,omitempty"`
	Duration                    float64         `json:"duration,omitempty"`
	Segments                    []serverSegment `json:"segments,omitempty"`
	DetectedLanguage            string          `json:"detected_language,omitempty"`
	DetectedLanguageProbability float64         `json:"detected_language_probability,omitempty"`
	Error                       string          `json:"error,omitempty"`
}

type serverSegment struct {
	ID    int          `json:"id"`
	Text  string       `json:"text"`
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Words []serverWord `json:"words,omitempty"`
}

type serverWord struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability,omitempty"`
}

// parseResponse converts the server reply into a provider response.
func parseResponse(data []byte) (*provider.TranscriptionResponse, error) {
	var resp serverResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_server: malformed response: %v", err)
	}
	if resp.Error != "" {
		return nil, errors.Wrapf(errors.ErrTranscription, "whisper_server: %s", resp.Error)
	}

	language := resp.Language
	if language == "" {
		language = resp.DetectedLanguage
	}

	response := &provider.TranscriptionResponse{
		Text:                resp.Text,
		Language:            language,
		LanguageProbability: resp.DetectedLanguageProbability,
		Duration:            resp.Duration,
	}
	for _, seg := range resp.Segments {
		segment := model.Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		}
		for _, word := range seg.Words {
			w := model.Word{
				Word:        word.Word,
				Start:       word.Start,
				End:         word.End,
				Probability: word.Probability,
			}
			segment.Words = append(segment.Words, w)
			response.Words = append(response.Words, w)
		}
		response.Segments = append(response.Segments, segment)
	}
	return response, nil
}
