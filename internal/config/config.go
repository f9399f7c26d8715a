// Package config loads, validates and writes the green-needle configuration
// file. Settings resolve in three layers: built-in defaults, then the YAML
// file, then GN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"green-needle/internal/app/api/provider"
)

// WhisperConfig selects the default model and where it runs.
type WhisperConfig struct {
	Model        string `yaml:"model" validate:"required"`
	Language     string `yaml:"language"`
	Device       string `yaml:"device" validate:"omitempty,oneof=auto cuda cpu mps"`
	DownloadRoot string `yaml:"download_root"`
}

// AudioConfig shapes microphone capture.
type AudioConfig struct {
	SampleRate       int     `yaml:"sample_rate" validate:"min=8000,max=192000"`
	Channels         int     `yaml:"channels" validate:"min=1,max=2"`
	Device           string  `yaml:"device"`
	SilenceThreshold float64 `yaml:"silence_threshold" validate:"min=0,max=1"`
	SilenceDuration  float64 `yaml:"silence_duration" validate:"min=0"`
}

// OutputConfig shapes transcript files.
type OutputConfig struct {
	Format       string `yaml:"format" validate:"oneof=txt json srt vtt tsv all"`
	Timestamps   bool   `yaml:"timestamps"`
	SaveSegments bool   `yaml:"save_segments"`
	Directory    string `yaml:"output_dir" validate:"required"`
}

// ProcessingConfig bounds the batch worker pool and file splitting.
type ProcessingConfig struct {
	BatchSize     int     `yaml:"batch_size" validate:"min=1"`
	Workers       int     `yaml:"num_workers" validate:"min=1,max=100"`
	ChunkDuration float64 `yaml:"chunk_duration" validate:"min=0"`
	AutoSplit     bool    `yaml:"auto_split"`
}

// SplitSeconds returns the chunk length transcriptions should split at,
// or zero when auto-splitting is off.
func (c ProcessingConfig) SplitSeconds() float64 {
	if !c.AutoSplit {
		return 0
	}
	return c.ChunkDuration
}

// HistoryConfig selects the transcription history backend.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Backend string `yaml:"backend" validate:"omitempty,oneof=sqlite postgres"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
}

// CacheConfig enables the Redis result cache. TTL is a Go duration string.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db" validate:"min=0"`
	TTL       string `yaml:"ttl"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ParsedTTL returns the TTL as a duration, zero when unset.
func (c CacheConfig) ParsedTTL() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("config: cache.ttl %q: %w", c.TTL, err)
	}
	return d, nil
}

// StorageConfig enables transcript archival to S3-compatible storage.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// ServerConfig shapes the HTTP API started by `gn serve`.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	MaxUploadMB int    `yaml:"max_upload_mb" validate:"min=1"`
}

// Config is the whole configuration tree.
type Config struct {
	Whisper    WhisperConfig    `yaml:"whisper"`
	Audio      AudioConfig      `yaml:"audio"`
	Output     OutputConfig     `yaml:"output"`
	Processing ProcessingConfig `yaml:"processing"`
	History    HistoryConfig    `yaml:"history"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`

	DefaultProvider string                     `yaml:"default_provider"`
	Providers       map[string]provider.Config `yaml:"providers"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Whisper: WhisperConfig{
			Model:  "base",
			Device: "auto",
		},
		Audio: AudioConfig{
			SampleRate:       16000,
			Channels:         1,
			SilenceThreshold: 0.01,
			SilenceDuration:  3.0,
		},
		Output: OutputConfig{
			Format:       "txt",
			SaveSegments: true,
			Directory:    "output",
		},
		Processing: ProcessingConfig{
			BatchSize:     10,
			Workers:       4,
			ChunkDuration: 3600,
			AutoSplit:     true,
		},
		History: HistoryConfig{
			Enabled: true,
			Backend: "sqlite",
			Path:    filepath.Join("data", "history.db"),
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  "168h",
		},
		Server: ServerConfig{
			Port:        8080,
			MaxUploadMB: 100,
		},
		DefaultProvider: "whisper_cpp",
		Providers: map[string]provider.Config{
			"whisper_cpp": {
				Type:    "whisper_cpp",
				Enabled: true,
				Settings: map[string]interface{}{
					"binary_path": "whisper-cli",
					"model_path":  "models",
				},
			},
			"openai": {
				Type:    "openai",
				Enabled: false,
				Settings: map[string]interface{}{
					"api_key": "${OPENAI_API_KEY}",
				},
			},
			"gemini": {
				Type:    "gemini",
				Enabled: false,
				Settings: map[string]interface{}{
					"api_key": "${GEMINI_API_KEY}",
				},
			},
			"elevenlabs": {
				Type:    "elevenlabs",
				Enabled: false,
				Settings: map[string]interface{}{
					"api_key": "${ELEVENLABS_API_KEY}",
				},
			},
			"whisper_server": {
				Type:    "whisper_server",
				Enabled: false,
				Settings: map[string]interface{}{
					"base_url": "http://localhost:8178",
				},
			},
		},
	}
}

// SearchPaths lists config locations in resolution order.
func SearchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"green-needle.yaml"}
	}
	return []string{
		"green-needle.yaml",
		filepath.Join(home, ".config", "green-needle", "config.yaml"),
		filepath.Join(home, ".green-needle.yaml"),
	}
}

// DefaultPath is where `gn config --init` writes when no file exists yet.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "green-needle.yaml"
	}
	return filepath.Join(home, ".config", "green-needle", "config.yaml")
}

// Discover returns the first existing config file from SearchPaths.
func Discover() (string, bool) {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Load reads the file at path, or the first discovered file when path is
// empty, over the defaults, then applies environment overrides and
// validates. A missing discovered file is not an error; a missing explicit
// path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path, _ = Discover()
	}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeFile strictly decodes YAML over cfg, so file values override
// defaults field by field and unknown keys are rejected.
func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Environment overrides. GN_* variables beat both defaults and the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("GN_MODEL"); v != "" {
		cfg.Whisper.Model = v
	}
	if v := os.Getenv("GN_LANGUAGE"); v != "" {
		cfg.Whisper.Language = v
	}
	if v := os.Getenv("GN_DEVICE"); v != "" {
		cfg.Whisper.Device = v
	}
	if v := os.Getenv("GN_OUTPUT_DIR"); v != "" {
		cfg.Output.Directory = v
	}
	if v := os.Getenv("GN_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("GN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Processing.Workers = n
		}
	}
	if v := os.Getenv("GN_PROVIDER"); v != "" {
		cfg.DefaultProvider = v
	}
}

// Validate checks struct tags plus the cross-field rules tags cannot
// express.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config: %s fails %q validation (value %v)",
				first.Namespace(), first.Tag(), first.Value())
		}
		return fmt.Errorf("config: validate: %w", err)
	}

	if cfg.History.Enabled {
		switch cfg.History.Backend {
		case "sqlite":
			if cfg.History.Path == "" {
				return fmt.Errorf("config: history.path is required for the sqlite backend")
			}
		case "postgres":
			if cfg.History.DSN == "" {
				return fmt.Errorf("config: history.dsn is required for the postgres backend")
			}
		default:
			return fmt.Errorf("config: history.backend must be sqlite or postgres")
		}
	}
	if _, err := cfg.Cache.ParsedTTL(); err != nil {
		return err
	}
	if cfg.Storage.Enabled {
		if cfg.Storage.Endpoint == "" || cfg.Storage.Bucket == "" {
			return fmt.Errorf("config: storage.endpoint and storage.bucket are required when storage is enabled")
		}
	}
	if cfg.DefaultProvider != "" {
		entry, ok := cfg.Providers[cfg.DefaultProvider]
		if !ok {
			return fmt.Errorf("config: default_provider %q is not defined under providers", cfg.DefaultProvider)
		}
		if !entry.Enabled {
			return fmt.Errorf("config: default_provider %q is disabled", cfg.DefaultProvider)
		}
	}
	return nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	header := []byte("# green-needle configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Dump renders the effective configuration for `gn config --show`.
func Dump(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("config: encode: %w", err)
	}
	return string(data), nil
}
