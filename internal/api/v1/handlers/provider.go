package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"green-needle/internal/api/middleware"
	"green-needle/internal/api/v1/services"
)

// ProviderHandler serves the provider endpoints.
type ProviderHandler struct {
	service *services.ProviderService
}

// NewProviderHandler creates a provider handler.
func NewProviderHandler(service *services.ProviderService) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// List handles GET /api/v1/providers
//
// @Summary List configured providers
// @Description Lists every registered provider with its capabilities and a fresh health probe.
// @Tags providers
// @Produce json
// @Success 200 {object} dto.ProviderListResponse "Providers and the default"
// @Router /providers [get]
func (h *ProviderHandler) List(c *gin.Context) {
	response, err := h.service.List(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/providers/:name
//
// @Summary Get one provider
// @Description Returns one provider's capabilities and a fresh health probe.
// @Tags providers
// @Produce json
// @Param name path string true "Configured provider name"
// @Success 200 {object} dto.ProviderResponse "The provider"
// @Failure 404 {object} errors.APIError "No such provider"
// @Router /providers/{name} [get]
func (h *ProviderHandler) Get(c *gin.Context) {
	response, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
