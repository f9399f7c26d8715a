// Package routes mounts the v1 endpoint tree.
package routes

import (
	"github.com/gin-gonic/gin"

	"green-needle/internal/api/v1/handlers"
	"green-needle/internal/api/v1/services"
)

// Services holds the service instances the v1 handlers need.
type Services struct {
	Transcriptions *services.TranscriptionService
	Providers      *services.ProviderService
	Stats          *services.StatsService
}

// Register mounts the v1 API onto the group.
func Register(router *gin.RouterGroup, svc *Services) {
	transcriptionHandler := handlers.NewTranscriptionHandler(svc.Transcriptions)
	transcriptions := router.Group("/transcriptions")
	{
		transcriptions.POST("", transcriptionHandler.Create)
		transcriptions.GET("", transcriptionHandler.List)
		transcriptions.GET("/:id", transcriptionHandler.Get)
	}

	providerHandler := handlers.NewProviderHandler(svc.Providers)
	providers := router.Group("/providers")
	{
		providers.GET("", providerHandler.List)
		providers.GET("/:name", providerHandler.Get)
	}

	statsHandler := handlers.NewStatsHandler(svc.Stats)
	router.GET("/stats", statsHandler.Summary)
}
