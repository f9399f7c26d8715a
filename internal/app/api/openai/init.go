package openai

import (
	"green-needle/internal/app/api/provider"
)

func init() {
	provider.RegisterCreator("openai", newFromSettings)
}

func newFromSettings(settings map[string]interface{}) (provider.TranscriptionProvider, error) {
	return New(Config{
		APIKey:      provider.StringSetting(settings, "api_key", ""),
		BaseURL:     provider.StringSetting(settings, "base_url", ""),
		Model:       provider.StringSetting(settings, "model", ""),
		Language:    provider.StringSetting(settings, "language", ""),
		Prompt:      provider.StringSetting(settings, "prompt", ""),
		Temperature: float32(provider.Float64Setting(settings, "temperature", 0)),
		Timeout:     provider.DurationSetting(settings, "timeout", 0),
	}), nil
}
