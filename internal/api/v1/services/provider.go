package services

import (
	"context"

	"green-needle/internal/api/errors"
	"green-needle/internal/api/v1/dto"
	"green-needle/internal/app/api/provider"
)

// ProviderService reports the registered providers and their health.
type ProviderService struct {
	registry *provider.Registry
}

// NewProviderService wires the service to the provider registry.
func NewProviderService(registry *provider.Registry) *ProviderService {
	return &ProviderService{registry: registry}
}

// List probes every provider concurrently and returns the combined view.
func (s *ProviderService) List(ctx context.Context) (*dto.ProviderListResponse, error) {
	health := s.registry.HealthCheckAll(ctx)
	defaultName := s.registry.DefaultName()

	names := s.registry.Names()
	providers := make([]dto.ProviderResponse, 0, len(names))
	for _, name := range names {
		p, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		providers = append(providers, dto.ToProviderResponse(name, p.Info(), health[name], name == defaultName))
	}

	return &dto.ProviderListResponse{Providers: providers, Default: defaultName}, nil
}

// Get probes one provider.
func (s *ProviderService) Get(ctx context.Context, name string) (*dto.ProviderResponse, error) {
	p, err := s.registry.Get(name)
	if err != nil {
		return nil, errors.NotFound("provider " + name)
	}
	response := dto.ToProviderResponse(name, p.Info(), p.HealthCheck(ctx), name == s.registry.DefaultName())
	return &response, nil
}
