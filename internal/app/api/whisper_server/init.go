package whisper_server

import (
	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
)

func init() {
	provider.RegisterCreator("whisper_server", newFromSettings)
}

func newFromSettings(settings map[string]interface{}) (provider.TranscriptionProvider, error) {
	baseURL := provider.StringSetting(settings, "base_url", "")
	if baseURL == "" {
		return nil, errors.Wrap(errors.ErrConfig, "whisper_server: base_url is required")
	}

	config := Config{
		BaseURL:       baseURL,
		InferencePath: provider.StringSetting(settings, "inference_path", ""),
		LoadPath:      provider.StringSetting(settings, "load_path", ""),
		Timeout:       provider.DurationSetting(settings, "timeout", 0),
		Language:      provider.StringSetting(settings, "language", ""),
		Temperature:   float32(provider.Float64Setting(settings, "temperature", 0)),
		WordThreshold: provider.Float64Setting(settings, "word_threshold", 0),
	}
	if headers, ok := settings["custom_headers"].(map[string]interface{}); ok {
		config.CustomHeaders = make(map[string]string, len(headers))
		for key, value := range headers {
			if s, ok := value.(string); ok {
				config.CustomHeaders[key] = s
			}
		}
	}
	return New(config), nil
}
