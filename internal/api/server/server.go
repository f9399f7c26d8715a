// Package server assembles the HTTP API around one application instance.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "green-needle/docs"
	"green-needle/internal/api/middleware"
	v1routes "green-needle/internal/api/v1/routes"
	"green-needle/internal/api/v1/services"
	"green-needle/internal/app"
)

// Config carries the server settings.
type Config struct {
	Host        string
	Port        int
	MaxUploadMB int
	Development bool
}

// Server is the HTTP API.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
}

// New builds the router and wires the application into the handlers.
func New(config Config, application *app.App) *Server {
	if config.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := application.Logger
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if application.Metrics != nil {
		router.Use(middleware.Observe(application.Metrics))
	}
	if config.MaxUploadMB > 0 {
		router.Use(middleware.BodyLimit(int64(config.MaxUploadMB) << 20))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})
	if application.Metrics != nil {
		router.GET("/metrics", gin.WrapH(application.Metrics.Handler()))
	}

	svc := &v1routes.Services{
		Transcriptions: services.NewTranscriptionService(application.Registry, application.History, logger),
		Providers:      services.NewProviderService(application.Registry),
		Stats:          services.NewStatsService(application.History),
	}

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		v1routes.Register(v1, svc)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":       "green-needle API",
			"version":       "1.0",
			"documentation": "/swagger/index.html",
			"endpoints": gin.H{
				"health":         "/health",
				"metrics":        "/metrics",
				"transcriptions": "/api/v1/transcriptions",
				"providers":      "/api/v1/providers",
				"stats":          "/api/v1/stats",
			},
		})
	})

	// Transcription is synchronous and can run for minutes, so only the
	// header read gets a deadline.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		config:     config,
		router:     router,
		httpServer: httpServer,
		logger:     logger,
	}
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		zap.String("address", s.httpServer.Addr),
		zap.Bool("development", s.config.Development),
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
