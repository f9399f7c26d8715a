package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
)

const generateReply = `{
  "candidates": [
    {
      "content": {
        "parts": [{"text": "This is the transcript."}],
        "role": "model"
      },
      "finishReason": "STOP"
    }
  ]
}`

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memo.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFdata"), 0o644))
	return path
}

func TestTranscribe(t *testing.T) {
	path := writeAudioFixture(t)

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(generateReply))
	}))
	defer server.Close()

	p := New(Config{APIKey: "AIzaTest", BaseURL: server.URL})

	var percents []float64
	response, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{
		InputFilePath: path,
		Language:      "en",
		Progress:      func(percent float64) { percents = append(percents, percent) },
	})
	require.NoError(t, err)

	assert.Contains(t, gotPath, ":generateContent")
	assert.Equal(t, "This is the transcript.", response.Text)
	assert.Equal(t, "en", response.Language)
	assert.Equal(t, defaultModel, response.ModelUsed)
	assert.Empty(t, response.Segments)
	assert.Equal(t, []float64{100}, percents)
}

func TestTranscribeEmptyReply(t *testing.T) {
	path := writeAudioFixture(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "AIzaTest", BaseURL: server.URL})
	_, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{InputFilePath: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTranscription))
}

func TestTranscribeMissingFile(t *testing.T) {
	p := New(Config{APIKey: "AIzaTest"})
	_, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{
		InputFilePath: filepath.Join(t.TempDir(), "gone.wav"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFileNotFound))
}

func TestTranscribeRejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(21<<20))
	require.NoError(t, f.Close())

	p := New(Config{APIKey: "AIzaTest"})
	_, err = p.Transcribe(context.Background(), &provider.TranscriptionRequest{InputFilePath: path})
	require.Error(t, err)
	assert.True(t, errors.IsInput(err))
}

func TestTranscribePrompt(t *testing.T) {
	tests := []struct {
		name     string
		request  provider.TranscriptionRequest
		contains []string
		excludes []string
	}{
		{
			name:     "plain",
			request:  provider.TranscriptionRequest{},
			contains: []string{"Transcribe the speech", "transcript text only"},
			excludes: []string{"translate", "Context:"},
		},
		{
			name:     "translate task",
			request:  provider.TranscriptionRequest{Task: "translate"},
			contains: []string{"translate it into English"},
		},
		{
			name:     "language hint",
			request:  provider.TranscriptionRequest{Language: "de"},
			contains: []string{`The speech is in "de".`},
		},
		{
			name:     "auto language omitted",
			request:  provider.TranscriptionRequest{Language: "auto"},
			excludes: []string{"The speech is in"},
		},
		{
			name:     "context hint",
			request:  provider.TranscriptionRequest{Prompt: "medical vocabulary"},
			contains: []string{"Context: medical vocabulary"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := transcribePrompt(&tt.request)
			for _, want := range tt.contains {
				assert.Contains(t, prompt, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, prompt, unwanted)
			}
		})
	}
}

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		path string
		mime string
	}{
		{"a.wav", "audio/wav"},
		{"a.MP3", "audio/mp3"},
		{"a.m4a", "audio/mp4"},
		{"a.flac", "audio/flac"},
		{"a.ogg", "audio/ogg"},
		{"a.webm", "audio/webm"},
		{"a.unknown", "audio/wav"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.mime, mimeTypeFor(tt.path), tt.path)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	require.Error(t, New(Config{}).ValidateConfig())
	require.NoError(t, New(Config{APIKey: "AIzaTest"}).ValidateConfig())
}

func TestModelSelection(t *testing.T) {
	p := New(Config{APIKey: "AIzaTest", Model: "gemini-1.5-pro"})

	assert.Equal(t, "gemini-1.5-pro", p.model(&provider.TranscriptionRequest{}))
	assert.Equal(t, "gemini-1.5-pro", p.model(&provider.TranscriptionRequest{Model: "base"}))
	assert.Equal(t, "gemini-2.0-flash-lite", p.model(&provider.TranscriptionRequest{Model: "gemini-2.0-flash-lite"}))
}

func TestCreatorDefaults(t *testing.T) {
	creator, err := provider.CreatorFor("gemini")
	require.NoError(t, err)

	p, err := creator(map[string]interface{}{"api_key": "AIzaTest"})
	require.NoError(t, err)

	info := p.Info()
	assert.Equal(t, "gemini", info.Name)
	assert.Equal(t, defaultModel, info.DefaultModel)
	assert.False(t, info.SupportsTimestamps)
	assert.True(t, strings.HasPrefix(info.DisplayName, "Gemini"))
}
