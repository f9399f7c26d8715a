package elevenlabs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/errors"
	"green-needle/internal/app/model"
)

const sttReply = `{
  "language_code": "en",
  "language_probability": 0.97,
  "text": "Hello there. General Kenobi.",
  "words": [
    {"text": "Hello", "type": "word", "start": 0.0, "end": 0.4},
    {"text": " ", "type": "spacing", "start": 0.4, "end": 0.5},
    {"text": "there.", "type": "word", "start": 0.5, "end": 0.9},
    {"text": "General", "type": "word", "start": 1.2, "end": 1.7},
    {"text": "Kenobi.", "type": "word", "start": 1.7, "end": 2.3}
  ]
}`

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3data"), 0o644))
	return path
}

func TestTranscribe(t *testing.T) {
	path := writeAudioFixture(t)

	var gotPath, gotKey string
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotForm = map[string]string{
			"model_id":               r.FormValue("model_id"),
			"language_code":          r.FormValue("language_code"),
			"timestamps_granularity": r.FormValue("timestamps_granularity"),
		}
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "note.mp3", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sttReply))
	}))
	defer server.Close()

	p := New(Config{APIKey: "secret", BaseURL: server.URL})

	response, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{
		InputFilePath:  path,
		Language:       "en",
		WordTimestamps: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "/speech-to-text", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "scribe_v1", gotForm["model_id"])
	assert.Equal(t, "en", gotForm["language_code"])
	assert.Equal(t, "word", gotForm["timestamps_granularity"])

	assert.Equal(t, "Hello there. General Kenobi.", response.Text)
	assert.Equal(t, "en", response.Language)
	assert.InDelta(t, 0.97, response.LanguageProbability, 1e-9)
	assert.Len(t, response.Words, 4)
	require.Len(t, response.Segments, 2)
	assert.Equal(t, "Hello there.", response.Segments[0].Text)
	assert.Equal(t, "General Kenobi.", response.Segments[1].Text)
}

func TestTranscribeStatusMapping(t *testing.T) {
	path := writeAudioFixture(t)

	tests := []struct {
		name   string
		status int
		verify func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.True(t, errors.IsConfig(err))
		}},
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, errors.ErrResource))
		}},
		{"server error", http.StatusBadGateway, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, errors.ErrTranscription))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "denied", tt.status)
			}))
			defer server.Close()

			p := New(Config{APIKey: "secret", BaseURL: server.URL})
			_, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{InputFilePath: path})
			require.Error(t, err)
			tt.verify(t, err)
		})
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	p := New(Config{APIKey: "secret"})
	_, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{
		InputFilePath: filepath.Join(t.TempDir(), "gone.mp3"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFileNotFound))
}

func TestParseResponse(t *testing.T) {
	t.Run("filters non words", func(t *testing.T) {
		response, err := parseResponse([]byte(sttReply))
		require.NoError(t, err)
		assert.Len(t, response.Words, 4)
		assert.InDelta(t, 2.3, response.Duration, 1e-9)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := parseResponse([]byte("<!doctype html>"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTranscription))
	})
}

func TestSegmentsFromWords(t *testing.T) {
	tests := []struct {
		name  string
		words []model.Word
		texts []string
	}{
		{
			name:  "empty",
			words: nil,
			texts: nil,
		},
		{
			name: "sentence punctuation splits",
			words: []model.Word{
				{Word: "Hi.", Start: 0, End: 0.3},
				{Word: "Bye!", Start: 0.4, End: 0.7},
			},
			texts: []string{"Hi.", "Bye!"},
		},
		{
			name: "long pause splits",
			words: []model.Word{
				{Word: "one", Start: 0, End: 0.3},
				{Word: "two", Start: 2.0, End: 2.3},
			},
			texts: []string{"one", "two"},
		},
		{
			name: "trailing words form a segment",
			words: []model.Word{
				{Word: "never", Start: 0, End: 0.3},
				{Word: "finished", Start: 0.4, End: 0.8},
			},
			texts: []string{"never finished"},
		},
		{
			name: "quoted sentence end",
			words: []model.Word{
				{Word: `stop."`, Start: 0, End: 0.5},
				{Word: "Then", Start: 0.6, End: 0.9},
			},
			texts: []string{`stop."`, "Then"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := segmentsFromWords(tt.words)
			var texts []string
			for _, seg := range segments {
				texts = append(texts, seg.Text)
			}
			assert.Equal(t, tt.texts, texts)
			require.NoError(t, model.ValidateSegments(segments))
		})
	}
}

func TestValidateConfig(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "")

	require.Error(t, New(Config{}).ValidateConfig())
	require.NoError(t, New(Config{APIKey: "secret"}).ValidateConfig())
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		if r.Header.Get("xi-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"subscription": {}}`))
	}))
	defer server.Close()

	require.NoError(t, New(Config{APIKey: "secret", BaseURL: server.URL}).HealthCheck(context.Background()))

	err := New(Config{APIKey: "wrong", BaseURL: server.URL}).HealthCheck(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestCreatorDefaults(t *testing.T) {
	creator, err := provider.CreatorFor("elevenlabs")
	require.NoError(t, err)

	p, err := creator(map[string]interface{}{"api_key": "secret"})
	require.NoError(t, err)

	info := p.Info()
	assert.Equal(t, "elevenlabs", info.Name)
	assert.Equal(t, "scribe_v1", info.DefaultModel)
	assert.True(t, info.RequiresAPIKey)
}
