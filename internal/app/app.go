// Package app assembles the long-lived collaborators shared by the CLI
// commands and the HTTP server.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"green-needle/internal/app/api/provider"
	"green-needle/internal/app/cache"
	"green-needle/internal/app/common"
	"green-needle/internal/app/metrics"
	"green-needle/internal/app/repository"
	"green-needle/internal/app/repository/pg"
	"green-needle/internal/app/repository/sqlite"
	"green-needle/internal/app/storage"
	"green-needle/internal/config"
)

// App carries one of everything a command might need. Optional
// collaborators are nil when their config section is disabled.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *provider.Registry
	History  repository.HistoryDAO
	Cache    *cache.RedisCache
	Archiver *storage.MinioArchiver
	Metrics  *metrics.Metrics
}

// Provider resolves a provider by name, or the configured default when name
// is empty.
func (a *App) Provider(name string) (provider.TranscriptionProvider, error) {
	if name == "" {
		return a.Registry.Default()
	}
	return a.Registry.Get(name)
}

// Close flushes the logger and releases the backing stores.
func (a *App) Close() {
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.Logger.Warn("closing history store", zap.Error(err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn("closing cache", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

func newApp(
	cfg *config.Config,
	logger *zap.Logger,
	registry *provider.Registry,
	history repository.HistoryDAO,
	resultCache *cache.RedisCache,
	archiver *storage.MinioArchiver,
	m *metrics.Metrics,
) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		History:  history,
		Cache:    resultCache,
		Archiver: archiver,
		Metrics:  m,
	}
}

func provideLogger(verbose bool) *zap.Logger {
	return common.MustNewLogger(verbose)
}

func provideRegistry(cfg *config.Config) (*provider.Registry, error) {
	return provider.BuildRegistry(cfg.Providers, cfg.DefaultProvider)
}

// OpenHistory opens the configured history backend on its own, for commands
// that need the store but not the rest of the application.
func OpenHistory(cfg *config.Config) (repository.HistoryDAO, error) {
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("app: history is disabled in the configuration")
	}
	if cfg.History.Backend == "postgres" {
		return pg.Open(cfg.History.DSN)
	}
	return sqlite.Open(cfg.History.Path)
}

func provideHistory(cfg *config.Config) (repository.HistoryDAO, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return OpenHistory(cfg)
}

func provideCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	ttl, err := cfg.Cache.ParsedTTL()
	if err != nil {
		return nil, err
	}
	return cache.New(cache.Config{
		Addr:      cfg.Cache.Addr,
		Password:  cfg.Cache.Password,
		DB:        cfg.Cache.DB,
		TTL:       ttl,
		KeyPrefix: cfg.Cache.KeyPrefix,
	}), nil
}

func provideArchiver(cfg *config.Config, logger *zap.Logger) (*storage.MinioArchiver, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	archiver, err := storage.New(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Prefix:    cfg.Storage.Prefix,
	})
	if err != nil {
		return nil, err
	}
	return archiver.WithLogger(logger), nil
}

func provideMetrics() *metrics.Metrics {
	return metrics.New()
}
