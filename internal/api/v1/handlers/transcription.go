// Package handlers binds HTTP requests to the v1 services.
package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"green-needle/internal/api/errors"
	"green-needle/internal/api/middleware"
	"green-needle/internal/api/v1/dto"
	"green-needle/internal/api/v1/services"
)

// TranscriptionHandler serves the transcription endpoints.
type TranscriptionHandler struct {
	service *services.TranscriptionService
}

// NewTranscriptionHandler creates a transcription handler.
func NewTranscriptionHandler(service *services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{service: service}
}

// Create handles POST /api/v1/transcriptions
//
// @Summary Transcribe an uploaded audio file
// @Description Uploads an audio file and transcribes it synchronously. The response carries the finished transcript with segments.
// @Tags transcriptions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file to transcribe"
// @Param provider formData string false "Provider name, default provider when empty"
// @Param language formData string false "Language code, or auto"
// @Param model formData string false "Model size or provider-specific model ID"
// @Param task formData string false "transcribe or translate" Enums(transcribe,translate)
// @Param source formData string false "Source collection recorded in history"
// @Success 200 {object} dto.TranscriptionResponse "Finished transcript"
// @Failure 400 {object} errors.APIError "Missing or unsupported file"
// @Failure 413 {object} errors.APIError "File exceeds the upload limit"
// @Failure 503 {object} errors.APIError "No provider available"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcriptions [post]
func (h *TranscriptionHandler) Create(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if stderrors.As(err, &maxBytes) {
			middleware.HandleError(c, errors.TooLarge(maxBytes.Limit))
			return
		}
		middleware.HandleError(c, errors.BadRequest("no file uploaded"))
		return
	}

	var opts dto.TranscribeOptions
	if err := c.ShouldBind(&opts); err != nil {
		middleware.HandleError(c, errors.BadRequest("invalid form fields"))
		return
	}

	response, err := h.service.Transcribe(c.Request.Context(), header, opts)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// List handles GET /api/v1/transcriptions
//
// @Summary List past transcriptions
// @Description Lists history rows, newest first, optionally filtered by source collection or a search term over text and file names.
// @Tags transcriptions
// @Produce json
// @Param limit query int false "Maximum rows" default(20) minimum(1) maximum(500)
// @Param source query string false "Filter by source collection"
// @Param search query string false "Search transcripts and file names"
// @Success 200 {object} dto.TranscriptionListResponse "Matching transcriptions"
// @Failure 422 {object} errors.APIError "Invalid query parameters"
// @Failure 503 {object} errors.APIError "History is disabled"
// @Router /transcriptions [get]
func (h *TranscriptionHandler) List(c *gin.Context) {
	var query dto.ListTranscriptionsQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/transcriptions/:id
//
// @Summary Get one transcription
// @Description Returns a single history row by its id.
// @Tags transcriptions
// @Produce json
// @Param id path int true "Transcription ID" minimum(1)
// @Success 200 {object} dto.TranscriptionResponse "The transcription"
// @Failure 400 {object} errors.APIError "Invalid id"
// @Failure 404 {object} errors.APIError "No such transcription"
// @Failure 503 {object} errors.APIError "History is disabled"
// @Router /transcriptions/{id} [get]
func (h *TranscriptionHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		middleware.HandleError(c, errors.BadRequest("invalid transcription id"))
		return
	}

	response, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
