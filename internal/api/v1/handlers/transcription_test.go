package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"green-needle/internal/api/middleware"
	"green-needle/internal/api/v1/dto"
	"green-needle/internal/api/v1/routes"
	"green-needle/internal/api/v1/services"
	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/model"
	"green-needle/internal/app/pipeline"
	"green-needle/internal/app/repository"
	"green-needle/internal/app/repository/sqlite"
	"green-needle/internal/app/testutil"
)

// testChain skips the audio loader so tests run without ffmpeg installed.
func testChain(prov provider.TranscriptionProvider, opts dto.TranscribeOptions) *pipeline.Pipeline {
	return pipeline.New("test",
		pipeline.Transcribe{
			Provider: prov,
			Language: opts.Language,
			Model:    opts.Model,
			Task:     opts.Task,
		},
		pipeline.TextPostProcess{},
	)
}

func openTestStore(t *testing.T) *repository.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func setupRouter(t *testing.T, svc *routes.Services) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	v1 := router.Group("/api/v1")
	routes.Register(v1, svc)
	return router
}

func setupServices(t *testing.T, mock *testutil.MockProvider) (*routes.Services, *repository.Store) {
	t.Helper()

	store := openTestStore(t)
	registry := provider.NewRegistry()
	require.NoError(t, registry.Register("mock", mock))

	svc := &routes.Services{
		Transcriptions: services.NewTranscriptionService(registry, store, zap.NewNop()).WithChainBuilder(testChain),
		Providers:      services.NewProviderService(registry),
		Stats:          services.NewStatsService(store),
	}
	return svc, store
}

func uploadRequest(t *testing.T, fileName string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake audio bytes"))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/transcriptions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func seedRecord(t *testing.T, store *repository.Store, name, source, text string) {
	t.Helper()

	require.NoError(t, store.Record(context.Background(), &model.HistoryRecord{
		Source:        source,
		InputDir:      "/data",
		FileName:      name,
		FileSize:      1024,
		AudioDuration: 30,
		Text:          text,
		Provider:      "mock",
		Model:         "base",
		Language:      "en",
	}))
}

func TestTranscriptionCreate(t *testing.T) {
	svc, store := setupServices(t, testutil.NewMockProvider())
	router := setupRouter(t, svc)

	req := uploadRequest(t, "clip.wav", map[string]string{"language": "en", "source": "meetings"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "hello world", body["text"])
	assert.Equal(t, "clip.wav", body["file_name"])
	assert.Equal(t, "meetings", body["source"])
	assert.Equal(t, "mock", body["provider"])
	assert.Equal(t, 2.5, body["duration_seconds"])
	assert.Equal(t, float64(2), body["word_count"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	records, err := store.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "clip.wav", records[0].FileName)
	assert.Equal(t, "meetings", records[0].Source)
	assert.Equal(t, "hello world", records[0].Text)
	assert.False(t, records[0].HasError)
}

func TestTranscriptionCreateRejections(t *testing.T) {
	tests := []struct {
		name           string
		fileName       string
		fields         map[string]string
		expectedStatus int
		expectedKind   string
	}{
		{
			name:           "no file",
			fileName:       "",
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "bad_request",
		},
		{
			name:           "unsupported extension",
			fileName:       "notes.txt",
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "bad_request",
		},
		{
			name:           "unknown provider",
			fileName:       "clip.wav",
			fields:         map[string]string{"provider": "absent"},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "bad_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setupServices(t, testutil.NewMockProvider())
			router := setupRouter(t, svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, uploadRequest(t, tt.fileName, tt.fields))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.expectedKind, body["kind"])
			assert.NotEmpty(t, body["request_id"])

			records, err := store.GetRecent(context.Background(), 10)
			require.NoError(t, err)
			assert.Empty(t, records, "rejected uploads leave no history")
		})
	}
}

func TestTranscriptionCreateTooLarge(t *testing.T) {
	svc, store := setupServices(t, testutil.NewMockProvider())
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.BodyLimit(512))
	routes.Register(router.Group("/api/v1"), svc)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "clip.wav")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/transcriptions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "payload_too_large", decodeBody(t, rec)["kind"])

	records, err := store.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTranscriptionCreateProviderFailure(t *testing.T) {
	mock := testutil.NewMockProvider().WithError(errors.New("model exploded"))
	svc, store := setupServices(t, mock)
	router := setupRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "clip.wav", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "internal", body["kind"])

	records, err := store.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1, "failures are recorded")
	assert.True(t, records[0].HasError)
	assert.Contains(t, records[0].ErrorMessage, "model exploded")
}

func TestTranscriptionList(t *testing.T) {
	svc, store := setupServices(t, testutil.NewMockProvider())
	router := setupRouter(t, svc)

	seedRecord(t, store, "a.mp3", "podcast", "budget review")
	seedRecord(t, store, "b.mp3", "lectures", "intro to signals")

	tests := []struct {
		name          string
		query         string
		expectedCount int
		expectedFirst string
	}{
		{"all", "", 2, ""},
		{"by source", "?source=lectures", 1, "b.mp3"},
		{"search", "?search=budget", 1, "a.mp3"},
		{"search miss", "?search=nothing", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/v1/transcriptions"+tt.query, nil)
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			assert.Equal(t, float64(tt.expectedCount), body["count"])
			if tt.expectedFirst != "" {
				transcriptions := body["transcriptions"].([]interface{})
				first := transcriptions[0].(map[string]interface{})
				assert.Equal(t, tt.expectedFirst, first["file_name"])
			}
		})
	}

	t.Run("invalid limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/transcriptions?limit=0", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "validation", decodeBody(t, rec)["kind"])
	})
}

func TestTranscriptionGet(t *testing.T) {
	svc, store := setupServices(t, testutil.NewMockProvider())
	router := setupRouter(t, svc)

	seedRecord(t, store, "talk.mp3", "podcast", "full transcript text")
	records, err := store.GetRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET",
			"/api/v1/transcriptions/"+strconv.Itoa(records[0].ID), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "talk.mp3", body["file_name"])
		assert.Equal(t, "full transcript text", body["text"])
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/transcriptions/99999", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeBody(t, rec)["kind"])
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/transcriptions/abc", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeBody(t, rec)["kind"])
	})
}

// disabledHistoryServices builds the service set with no history store,
// the shape the server takes when persistence is turned off.
func disabledHistoryServices(t *testing.T) *routes.Services {
	t.Helper()

	registry := provider.NewRegistry()
	require.NoError(t, registry.Register("mock", testutil.NewMockProvider()))
	return &routes.Services{
		Transcriptions: services.NewTranscriptionService(registry, nil, zap.NewNop()).WithChainBuilder(testChain),
		Providers:      services.NewProviderService(registry),
		Stats:          services.NewStatsService(nil),
	}
}

func TestTranscriptionHistoryDisabled(t *testing.T) {
	router := setupRouter(t, disabledHistoryServices(t))

	t.Run("list unavailable", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/transcriptions", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "service_unavailable", decodeBody(t, rec)["kind"])
	})

	t.Run("upload still works", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, uploadRequest(t, "clip.wav", nil))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "hello world", decodeBody(t, rec)["text"])
	})
}
