package whisper_cpp

import (
	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
)

func init() {
	provider.RegisterCreator("whisper_cpp", newFromSettings)
}

func newFromSettings(settings map[string]interface{}) (provider.TranscriptionProvider, error) {
	binaryPath := provider.StringSetting(settings, "binary_path", "")
	if binaryPath == "" {
		return nil, errors.Wrap(errors.ErrConfig, "whisper_cpp: binary_path is required")
	}
	modelPath := provider.StringSetting(settings, "model_path", "")
	if modelPath == "" {
		return nil, errors.Wrap(errors.ErrConfig, "whisper_cpp: model_path is required")
	}

	return New(Config{
		BinaryPath: binaryPath,
		ModelPath:  modelPath,
		Language:   provider.StringSetting(settings, "language", ""),
		Prompt:     provider.StringSetting(settings, "prompt", ""),
		Threads:    provider.IntSetting(settings, "threads", 0),
		TempDir:    provider.StringSetting(settings, "temp_dir", ""),
	}), nil
}
