package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configTemplate is what `gn config --init` writes: the defaults with
// comments, unlike Save which emits the bare effective tree.
const configTemplate = `# green-needle configuration

whisper:
  model: base              # tiny, base, small, medium, large
  language: ""             # language code, empty for auto-detect
  device: auto             # auto, cuda, cpu, mps
  download_root: ""        # custom model download directory

audio:
  sample_rate: 16000       # capture sample rate in Hz
  channels: 1              # 1=mono, 2=stereo
  device: ""               # capture device, empty for the system default
  silence_threshold: 0.01  # RMS level treated as silence
  silence_duration: 3.0    # seconds of silence before auto-stop

output:
  format: txt              # txt, json, srt, vtt, tsv, all
  timestamps: false        # include timestamps in txt output
  save_segments: true
  output_dir: output

processing:
  batch_size: 10
  num_workers: 4
  chunk_duration: 3600     # split inputs longer than this many seconds
  auto_split: true

history:
  enabled: true
  backend: sqlite          # sqlite or postgres
  path: data/history.db    # sqlite file
  dsn: ""                  # postgres connection string

cache:
  enabled: false
  addr: localhost:6379
  ttl: 168h

storage:
  enabled: false
  endpoint: ""             # host:port of an S3-compatible server
  access_key: ""
  secret_key: ""
  use_ssl: false
  bucket: transcripts
  prefix: ""

server:
  host: ""
  port: 8080
  max_upload_mb: 100

default_provider: whisper_cpp

providers:
  whisper_cpp:
    type: whisper_cpp
    enabled: true
    settings:
      binary_path: whisper-cli
      model_path: models
  openai:
    type: openai
    enabled: false
    settings:
      api_key: ${OPENAI_API_KEY}
  gemini:
    type: gemini
    enabled: false
    settings:
      api_key: ${GEMINI_API_KEY}
  elevenlabs:
    type: elevenlabs
    enabled: false
    settings:
      api_key: ${ELEVENLABS_API_KEY}
  whisper_server:
    type: whisper_server
    enabled: false
    settings:
      base_url: http://localhost:8178
`

// WriteTemplate writes the commented starter config. It refuses to clobber
// an existing file.
func WriteTemplate(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
