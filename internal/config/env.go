package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeys are the provider credentials read from the environment.
type APIKeys struct {
	OpenAI     string
	Gemini     string
	ElevenLabs string
}

// LoadEnv loads the first .env file found near the working directory.
// Variables already set in the environment win over file values. Not
// finding a file is fine.
func LoadEnv() error {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
		break
	}
	return nil
}

// ReadAPIKeys collects provider keys from the environment and flags values
// that cannot be real keys.
func ReadAPIKeys() (*APIKeys, error) {
	keys := &APIKeys{
		OpenAI:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Gemini:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		ElevenLabs: strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
	}

	if keys.OpenAI != "" && !strings.HasPrefix(keys.OpenAI, "sk-") {
		return nil, fmt.Errorf("config: OPENAI_API_KEY does not look like an OpenAI key (expected sk- prefix)")
	}
	if keys.Gemini != "" && !strings.HasPrefix(keys.Gemini, "AIza") {
		return nil, fmt.Errorf("config: GEMINI_API_KEY does not look like a Gemini key (expected AIza prefix)")
	}
	return keys, nil
}

// Available names the providers with a key present, for status display.
func (k *APIKeys) Available() []string {
	var names []string
	if k.OpenAI != "" {
		names = append(names, "openai")
	}
	if k.Gemini != "" {
		names = append(names, "gemini")
	}
	if k.ElevenLabs != "" {
		names = append(names, "elevenlabs")
	}
	return names
}
