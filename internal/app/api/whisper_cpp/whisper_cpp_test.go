package whisper_cpp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
)

const sampleOutput = `{
  "systeminfo": "AVX = 1 | NEON = 0 |",
  "model": {"type": "base"},
  "params": {"model": "models/ggml-base.bin", "language": "en", "translate": false},
  "result": {"language": "en"},
  "transcription": [
    {
      "timestamps": {"from": "00:00:00,000", "to": "00:00:04,200"},
      "offsets": {"from": 0, "to": 4200},
      "text": " Hello and welcome to the show."
    },
    {
      "timestamps": {"from": "00:00:04,200", "to": "00:00:09,500"},
      "offsets": {"from": 4200, "to": 9500},
      "text": " Today we talk about gardening."
    }
  ]
}`

func TestParseOutput(t *testing.T) {
	response, err := parseOutput([]byte(sampleOutput))
	require.NoError(t, err)

	assert.Equal(t, "Hello and welcome to the show. Today we talk about gardening.", response.Text)
	assert.Equal(t, "en", response.Language)
	assert.InDelta(t, 9.5, response.Duration, 1e-9)

	require.Len(t, response.Segments, 2)
	assert.Equal(t, 0, response.Segments[0].ID)
	assert.InDelta(t, 0.0, response.Segments[0].Start, 1e-9)
	assert.InDelta(t, 4.2, response.Segments[0].End, 1e-9)
	assert.Equal(t, "Hello and welcome to the show.", response.Segments[0].Text)
	assert.Equal(t, 1, response.Segments[1].ID)
	assert.InDelta(t, 4.2, response.Segments[1].Start, 1e-9)
	assert.Empty(t, response.Words)
}

func TestParseOutputWords(t *testing.T) {
	raw := `{
  "result": {"language": "en"},
  "transcription": [
    {
      "offsets": {"from": 0, "to": 1500},
      "text": " Good morning.",
      "tokens": [
        {"text": "[_BEG_]", "offsets": {"from": 0, "to": 0}, "p": 0.99},
        {"text": " Good", "offsets": {"from": 0, "to": 700}, "p": 0.98},
        {"text": " morning.", "offsets": {"from": 700, "to": 1500}, "p": 0.95},
        {"text": "[_TT_150]", "offsets": {"from": 1500, "to": 1500}, "p": 0.99}
      ]
    }
  ]
}`
	response, err := parseOutput([]byte(raw))
	require.NoError(t, err)

	require.Len(t, response.Words, 2)
	assert.Equal(t, "Good", response.Words[0].Word)
	assert.InDelta(t, 0.7, response.Words[0].End, 1e-9)
	assert.InDelta(t, 0.98, response.Words[0].Probability, 1e-9)
	assert.Equal(t, "morning.", response.Words[1].Word)

	require.Len(t, response.Segments, 1)
	assert.Len(t, response.Segments[0].Words, 2)
}

func TestParseOutputSkipsEmptySegments(t *testing.T) {
	raw := `{
  "transcription": [
    {"offsets": {"from": 0, "to": 1000}, "text": "   "},
    {"offsets": {"from": 1000, "to": 2000}, "text": " Something."}
  ]
}`
	response, err := parseOutput([]byte(raw))
	require.NoError(t, err)

	require.Len(t, response.Segments, 1)
	assert.Equal(t, 0, response.Segments[0].ID)
	assert.Equal(t, "Something.", response.Text)
}

func TestParseOutputMalformed(t *testing.T) {
	_, err := parseOutput([]byte("not json at all"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTranscription))
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		percent float64
		ok      bool
	}{
		{"typical", "whisper_print_progress_callback: progress =   5%", 5, true},
		{"full", "whisper_print_progress_callback: progress = 100%", 100, true},
		{"tight spacing", "progress=42%", 42, true},
		{"unrelated", "whisper_model_load: loading model", 0, false},
		{"no percent sign", "progress = 10", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percent, ok := parseProgressLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.percent, percent)
			}
		})
	}
}

func TestResolveModel(t *testing.T) {
	dir := t.TempDir()
	baseModel := filepath.Join(dir, "ggml-base.bin")
	smallModel := filepath.Join(dir, "ggml-small.bin")
	require.NoError(t, os.WriteFile(baseModel, []byte("model"), 0o644))
	require.NoError(t, os.WriteFile(smallModel, []byte("model"), 0o644))

	t.Run("directory defaults to base", func(t *testing.T) {
		path, err := resolveModel(dir, "")
		require.NoError(t, err)
		assert.Equal(t, baseModel, path)
	})

	t.Run("directory with size", func(t *testing.T) {
		path, err := resolveModel(dir, "small")
		require.NoError(t, err)
		assert.Equal(t, smallModel, path)
	})

	t.Run("directory missing size", func(t *testing.T) {
		_, err := resolveModel(dir, "large")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrModelLoad))
	})

	t.Run("configured file", func(t *testing.T) {
		path, err := resolveModel(baseModel, "")
		require.NoError(t, err)
		assert.Equal(t, baseModel, path)
	})

	t.Run("size next to configured file", func(t *testing.T) {
		path, err := resolveModel(baseModel, "small")
		require.NoError(t, err)
		assert.Equal(t, smallModel, path)
	})

	t.Run("request names a file", func(t *testing.T) {
		path, err := resolveModel(dir, smallModel)
		require.NoError(t, err)
		assert.Equal(t, smallModel, path)
	})

	t.Run("unknown size", func(t *testing.T) {
		_, err := resolveModel(dir, "enormous")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrModelLoad))
	})

	t.Run("missing model path", func(t *testing.T) {
		_, err := resolveModel(filepath.Join(dir, "nope"), "")
		require.Error(t, err)
	})
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "base", modelName("/models/ggml-base.bin"))
	assert.Equal(t, "large-v3", modelName("ggml-large-v3.bin"))
	assert.Equal(t, "custom", modelName("/opt/custom.bin"))
}

func TestCommandArgs(t *testing.T) {
	p := New(Config{
		BinaryPath: "/usr/local/bin/whisper",
		ModelPath:  "/models",
		Language:   "en",
		Threads:    4,
	})

	t.Run("defaults", func(t *testing.T) {
		args := p.commandArgs(&provider.TranscriptionRequest{}, "/models/ggml-base.bin", "in.wav", "/tmp/out")
		assert.Equal(t, []string{
			"-m", "/models/ggml-base.bin",
			"-f", "in.wav",
			"-l", "en",
			"-of", "/tmp/out",
			"--print-progress",
			"-oj",
			"-t", "4",
		}, args)
	})

	t.Run("request overrides", func(t *testing.T) {
		request := &provider.TranscriptionRequest{
			Language:       "de",
			Task:           "translate",
			Prompt:         "Fachbegriffe",
			Temperature:    0.2,
			WordTimestamps: true,
		}
		args := p.commandArgs(request, "/models/ggml-small.bin", "in.wav", "/tmp/out")
		assert.Contains(t, args, "-ojf")
		assert.NotContains(t, args, "-oj")
		assert.Contains(t, args, "--translate")
		assert.Contains(t, args, "Fachbegriffe")
		i := indexOf(args, "-l")
		require.GreaterOrEqual(t, i, 0)
		assert.Equal(t, "de", args[i+1])
	})

	t.Run("auto language when unset", func(t *testing.T) {
		bare := New(Config{BinaryPath: "whisper", ModelPath: "/models"})
		args := bare.commandArgs(&provider.TranscriptionRequest{}, "m.bin", "in.wav", "out")
		i := indexOf(args, "-l")
		require.GreaterOrEqual(t, i, 0)
		assert.Equal(t, "auto", args[i+1])
	})
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "whisper")
	model := filepath.Join(dir, "ggml-base.bin")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(model, []byte("model"), 0o644))

	tests := []struct {
		name   string
		config Config
		ok     bool
	}{
		{"valid", Config{BinaryPath: binary, ModelPath: model}, true},
		{"missing binary path", Config{ModelPath: model}, false},
		{"binary not found", Config{BinaryPath: filepath.Join(dir, "nope"), ModelPath: model}, false},
		{"missing model path", Config{BinaryPath: binary}, false},
		{"model not found", Config{BinaryPath: binary, ModelPath: filepath.Join(dir, "gone.bin")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.config).ValidateConfig()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.IsConfig(err))
			}
		})
	}
}

func TestCreator(t *testing.T) {
	creator, err := provider.CreatorFor("whisper_cpp")
	require.NoError(t, err)

	t.Run("requires binary_path", func(t *testing.T) {
		_, err := creator(map[string]interface{}{"model_path": "/models"})
		require.Error(t, err)
		assert.True(t, errors.IsConfig(err))
	})

	t.Run("requires model_path", func(t *testing.T) {
		_, err := creator(map[string]interface{}{"binary_path": "/usr/bin/whisper"})
		require.Error(t, err)
		assert.True(t, errors.IsConfig(err))
	})

	t.Run("builds from settings", func(t *testing.T) {
		p, err := creator(map[string]interface{}{
			"binary_path": "/usr/bin/whisper",
			"model_path":  "/models",
			"language":    "en",
			"threads":     8,
		})
		require.NoError(t, err)
		info := p.Info()
		assert.Equal(t, "whisper_cpp", info.Name)
		assert.Equal(t, provider.ProviderTypeLocal, info.Type)
		assert.True(t, info.RequiresBinary)
	})
}

func TestDefaultTempDir(t *testing.T) {
	p := New(Config{BinaryPath: "whisper", ModelPath: "/models"})
	assert.NotEmpty(t, p.config.TempDir)
}
