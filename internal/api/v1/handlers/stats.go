package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"green-needle/internal/api/middleware"
	"green-needle/internal/api/v1/services"
)

// StatsHandler serves the history statistics endpoint.
type StatsHandler struct {
	service *services.StatsService
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(service *services.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Summary handles GET /api/v1/stats
//
// @Summary Summarize transcription history
// @Description Returns the total number of transcriptions and per-source aggregates.
// @Tags stats
// @Produce json
// @Success 200 {object} dto.StatsResponse "History aggregates"
// @Failure 503 {object} errors.APIError "History is disabled"
// @Router /stats [get]
func (h *StatsHandler) Summary(c *gin.Context) {
	response, err := h.service.Summary(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
