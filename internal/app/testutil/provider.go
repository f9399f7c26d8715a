// Package testutil holds shared fakes for package tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/model"
)

// MockProvider is a configurable TranscriptionProvider for tests. Configure
// it with the With* builders, then inspect the recorded requests.
type MockProvider struct {
	mu       sync.Mutex
	requests []*provider.TranscriptionRequest

	response    *provider.TranscriptionResponse
	err         error
	latency     time.Duration
	validateErr error
	healthErr   error
	transcribe  func(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error)
}

// NewMockProvider returns a mock that answers every request with a small
// fixed response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		response: &provider.TranscriptionResponse{
			Text:     "hello world",
			Language: "en",
			Duration: 2.5,
			Segments: []model.Segment{
				{ID: 1, Start: 0, End: 2.5, Text: "hello world"},
			},
			ModelUsed: "mock",
		},
	}
}

// WithResponse replaces the canned response.
func (m *MockProvider) WithResponse(response *provider.TranscriptionResponse) *MockProvider {
	m.response = response
	return m
}

// WithText shortens WithResponse for single-segment texts.
func (m *MockProvider) WithText(text string, duration float64) *MockProvider {
	m.response = &provider.TranscriptionResponse{
		Text:     text,
		Language: "en",
		Duration: duration,
		Segments: []model.Segment{
			{ID: 1, Start: 0, End: duration, Text: text},
		},
		ModelUsed: "mock",
	}
	return m
}

// WithError makes every Transcribe call fail.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.err = err
	return m
}

// WithLatency delays each Transcribe call.
func (m *MockProvider) WithLatency(latency time.Duration) *MockProvider {
	m.latency = latency
	return m
}

// WithValidateError makes ValidateConfig fail.
func (m *MockProvider) WithValidateError(err error) *MockProvider {
	m.validateErr = err
	return m
}

// WithHealthError makes HealthCheck fail.
func (m *MockProvider) WithHealthError(err error) *MockProvider {
	m.healthErr = err
	return m
}

// WithTranscribeFunc installs per-request behavior, overriding the canned
// response and error.
func (m *MockProvider) WithTranscribeFunc(fn func(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error)) *MockProvider {
	m.transcribe = fn
	return m
}

func (m *MockProvider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, request)
	fn, latency, response, err := m.transcribe, m.latency, m.response, m.err
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fn != nil {
		return fn(ctx, request)
	}
	if err != nil {
		return nil, err
	}
	request.ReportProgress(100)
	return response, nil
}

func (m *MockProvider) Info() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:        "mock",
		DisplayName: "Mock Provider",
		Type:        provider.ProviderTypeLocal,
		Version:     "test",
	}
}

func (m *MockProvider) ValidateConfig() error { return m.validateErr }

func (m *MockProvider) HealthCheck(context.Context) error { return m.healthErr }

// Calls returns how many Transcribe calls the mock has seen.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns the recorded requests in call order.
func (m *MockProvider) Requests() []*provider.TranscriptionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*provider.TranscriptionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

var _ provider.TranscriptionProvider = (*MockProvider)(nil)
