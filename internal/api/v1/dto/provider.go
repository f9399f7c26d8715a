package dto

import (
	"github.com/samber/lo"

	"green-needle/internal/app/api/provider"
)

// ProviderResponse describes one registered provider and its probed health.
type ProviderResponse struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name"`
	Type             string   `json:"type"`
	Default          bool     `json:"default"`
	Healthy          bool     `json:"healthy"`
	HealthError      string   `json:"health_error,omitempty"`
	SupportedFormats []string `json:"supported_formats,omitempty"`
	RequiresAPIKey   bool     `json:"requires_api_key"`
	RequiresBinary   bool     `json:"requires_binary"`
	DefaultModel     string   `json:"default_model,omitempty"`
	AvailableModels  []string `json:"available_models,omitempty"`
}

// ProviderListResponse wraps the provider listing.
type ProviderListResponse struct {
	Providers []ProviderResponse `json:"providers"`
	Default   string             `json:"default,omitempty"`
}

// ToProviderResponse combines a provider's capability info with the
// outcome of a health probe. The name is the one the provider was
// configured under, which may differ from its type.
func ToProviderResponse(name string, info provider.ProviderInfo, healthErr error, isDefault bool) ProviderResponse {
	resp := ProviderResponse{
		Name:        name,
		DisplayName: info.DisplayName,
		Type:        string(info.Type),
		Default:     isDefault,
		SupportedFormats: lo.Map(info.SupportedFormats, func(f provider.AudioFormat, _ int) string {
			return string(f)
		}),
		RequiresAPIKey:  info.RequiresAPIKey,
		RequiresBinary:  info.RequiresBinary,
		DefaultModel:    info.DefaultModel,
		AvailableModels: info.AvailableModels,
	}
	if healthErr != nil {
		resp.HealthError = healthErr.Error()
	} else {
		resp.Healthy = true
	}
	return resp
}
