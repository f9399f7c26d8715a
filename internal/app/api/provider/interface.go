package provider

import (
	"context"
)

// TranscriptionProvider is implemented by every speech-to-text backend. New
// backends register a Creator in their package init and become selectable by
// name without changes here.
type TranscriptionProvider interface {
	// Transcribe runs one input through the backend.
	Transcribe(ctx context.Context, request *TranscriptionRequest) (*TranscriptionResponse, error)

	// Info returns static capability metadata.
	Info() ProviderInfo

	// ValidateConfig verifies the provider's configuration without touching
	// the network or the filesystem beyond existence checks.
	ValidateConfig() error

	// HealthCheck verifies the backend is reachable and usable.
	HealthCheck(ctx context.Context) error
}
