package provider

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// Config is one provider entry in the configuration file. Settings are
// provider-specific; string values may reference environment variables as
// ${NAME}.
type Config struct {
	Type     string                 `yaml:"type" json:"type"`
	Enabled  bool                   `yaml:"enabled" json:"enabled"`
	Settings map[string]interface{} `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// Build instantiates a single provider from its configuration entry, with
// ${NAME} references in string settings expanded from the environment. The
// instance is not validated or registered.
func Build(cfg Config) (TranscriptionProvider, error) {
	creator, err := CreatorFor(cfg.Type)
	if err != nil {
		return nil, err
	}
	return creator(expandEnv(cfg.Settings))
}

// BuildRegistry instantiates every enabled provider from configs and returns
// the filled registry. A provider that fails to build fails the whole call:
// configuration problems surface before any processing starts.
func BuildRegistry(configs map[string]Config, defaultName string) (*Registry, error) {
	registry := NewRegistry()

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := configs[name]
		if !cfg.Enabled {
			continue
		}
		p, err := Build(cfg)
		if err != nil {
			return nil, fmt.Errorf("provider: build %s: %w", name, err)
		}
		if err := registry.Register(name, p); err != nil {
			return nil, err
		}
	}

	if len(registry.Names()) == 0 {
		return nil, fmt.Errorf("provider: no providers enabled")
	}
	if defaultName != "" {
		if err := registry.SetDefault(defaultName); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func expandEnv(settings map[string]interface{}) map[string]interface{} {
	expanded := make(map[string]interface{}, len(settings))
	for key, value := range settings {
		if s, ok := value.(string); ok {
			expanded[key] = os.ExpandEnv(s)
		} else {
			expanded[key] = value
		}
	}
	return expanded
}

// Setting accessors used by provider creators. YAML decodes numbers as int
// or float64 depending on their spelling, so the numeric accessors take
// both.

// StringSetting returns settings[key] as a string, or fallback.
func StringSetting(settings map[string]interface{}, key, fallback string) string {
	if v, ok := settings[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// IntSetting returns settings[key] as an int, or fallback.
func IntSetting(settings map[string]interface{}, key string, fallback int) int {
	switch v := settings[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// Float64Setting returns settings[key] as a float64, or fallback.
func Float64Setting(settings map[string]interface{}, key string, fallback float64) float64 {
	switch v := settings[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// BoolSetting returns settings[key] as a bool, or fallback.
func BoolSetting(settings map[string]interface{}, key string, fallback bool) bool {
	if v, ok := settings[key].(bool); ok {
		return v
	}
	return fallback
}

// DurationSetting returns settings[key] parsed as a duration. Plain numbers
// are taken as seconds; strings go through time.ParseDuration.
func DurationSetting(settings map[string]interface{}, key string, fallback time.Duration) time.Duration {
	switch v := settings[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return fallback
}
