package provider

import (
	"time"

	"green-needle/internal/app/model"
)

// AudioFormat identifies container formats a provider accepts.
type AudioFormat string

const (
	FormatWAV  AudioFormat = "wav"
	FormatMP3  AudioFormat = "mp3"
	FormatM4A  AudioFormat = "m4a"
	FormatFLAC AudioFormat = "flac"
	FormatOGG  AudioFormat = "ogg"
	FormatWEBM AudioFormat = "webm"
)

// ProviderType distinguishes where the model actually runs.
type ProviderType string

const (
	ProviderTypeLocal  ProviderType = "local"
	ProviderTypeRemote ProviderType = "remote"
)

// ModelSizes are the recognized sizes of the speech model, smallest first.
var ModelSizes = []string{"tiny", "base", "small", "medium", "large"}

// IsKnownModelSize reports whether name is one of the published model sizes.
func IsKnownModelSize(name string) bool {
	for _, size := range ModelSizes {
		if size == name {
			return true
		}
	}
	return false
}

// ProgressFunc receives a completion percentage in [0,100]. The sequence a
// caller observes never decreases.
type ProgressFunc func(percent float64)

// TranscriptionRequest carries one transcription job to a provider.
type TranscriptionRequest struct {
	InputFilePath string `json:"input_file_path"`

	// Language is a code like "en", or "auto" for detection.
	Language string `json:"language,omitempty"`
	// Model selects a size (tiny..large) or a provider-specific model ID.
	Model string `json:"model,omitempty"`
	// Task is "transcribe" or "translate".
	Task string `json:"task,omitempty"`

	Temperature    float32 `json:"temperature,omitempty"`
	Prompt         string  `json:"prompt,omitempty"`
	WordTimestamps bool    `json:"word_timestamps,omitempty"`

	// Progress, when set, is called as the provider advances through the
	// input. Not every provider can report progress; silence is allowed,
	// regression is not.
	Progress ProgressFunc `json:"-"`
}

// ReportProgress invokes the callback when one is attached.
func (r *TranscriptionRequest) ReportProgress(percent float64) {
	if r.Progress != nil {
		r.Progress(percent)
	}
}

// TranscriptionResponse is a provider's answer for one input.
type TranscriptionResponse struct {
	Text string `json:"text"`

	Language            string  `json:"language,omitempty"`
	LanguageProbability float64 `json:"language_probability,omitempty"`
	// Duration of the recognized audio in seconds.
	Duration float64 `json:"duration,omitempty"`

	Segments []model.Segment `json:"segments,omitempty"`
	Words    []model.Word    `json:"words,omitempty"`

	ModelUsed      string        `json:"model_used,omitempty"`
	ProcessingTime time.Duration `json:"processing_time,omitempty"`
}

// ToResult converts a provider response into the immutable domain result.
func (resp *TranscriptionResponse) ToResult(audioPath, task string) *model.TranscriptionResult {
	segments := model.NormalizeSegments(resp.Segments)
	result := model.NewTranscriptionResult(audioPath, resp.Text, segments)
	result.Language = resp.Language
	result.LanguageProbability = resp.LanguageProbability
	result.Duration = resp.Duration
	result.Model = resp.ModelUsed
	result.Task = task
	if result.Duration == 0 && len(segments) > 0 {
		result.Duration = segments[len(segments)-1].End
	}
	return result
}

// ProviderInfo describes a provider's capabilities for the models command
// and the HTTP API.
type ProviderInfo struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Type        ProviderType `json:"type"`
	Version     string       `json:"version,omitempty"`

	SupportedFormats   []AudioFormat `json:"supported_formats"`
	SupportedLanguages []string      `json:"supported_languages,omitempty"`
	MaxFileSizeMB      int           `json:"max_file_size_mb,omitempty"`

	SupportsTimestamps        bool `json:"supports_timestamps"`
	SupportsWordLevel         bool `json:"supports_word_level"`
	SupportsLanguageDetection bool `json:"supports_language_detection"`

	RequiresInternet bool `json:"requires_internet"`
	RequiresAPIKey   bool `json:"requires_api_key"`
	RequiresBinary   bool `json:"requires_binary"`

	DefaultModel    string   `json:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty"`
}
