package elevenlabs

import (
	"green-needle/internal/app/api/provider"
)

func init() {
	provider.RegisterCreator("elevenlabs", newFromSettings)
}

func newFromSettings(settings map[string]interface{}) (provider.TranscriptionProvider, error) {
	return New(Config{
		APIKey:  provider.StringSetting(settings, "api_key", ""),
		BaseURL: provider.StringSetting(settings, "base_url", ""),
		Model:   provider.StringSetting(settings, "model", ""),
		Timeout: provider.DurationSetting(settings, "timeout", 0),
	}), nil
}
