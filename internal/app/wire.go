//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"green-needle/internal/config"
)

// InitializeApp builds the application graph from a loaded configuration.
// Regenerate wire_gen.go with `go generate ./internal/app` after changing
// the provider set.
func InitializeApp(cfg *config.Config, verbose bool) (*App, error) {
	wire.Build(
		provideLogger,
		provideRegistry,
		provideHistory,
		provideCache,
		provideArchiver,
		provideMetrics,
		newApp,
	)
	return nil, nil
}
