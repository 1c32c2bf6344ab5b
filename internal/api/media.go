// Package api provides the HTTP handlers for the management dashboard and
// the device-facing playback endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kwrenn/signet/internal/content"
	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/models"
)

const requestTimeout = 5 * time.Second

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CreateMediaRequest represents a request to register a media record
type CreateMediaRequest struct {
	Name      string `json:"name" binding:"required"`
	MimeType  string `json:"mime_type"`
	FileType  string `json:"file_type"`
	Source    string `json:"source"`
	URL       string `json:"url" binding:"required"`
	SizeBytes int64  `json:"size_bytes"`
}

// MediaListResponse represents a paginated media listing
type MediaListResponse struct {
	Media  []*models.Media `json:"media"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// MediaHandler handles media-related API requests
type MediaHandler struct {
	content *content.Service
}

// NewMediaHandler creates a new media handler instance
func NewMediaHandler(contentService *content.Service) *MediaHandler {
	return &MediaHandler{content: contentService}
}

// CreateMedia handles POST /api/media
func (h *MediaHandler) CreateMedia(c *gin.Context) {
	var req CreateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	media, err := h.content.CreateMedia(ctx, req.Name, req.MimeType, req.FileType, req.Source, req.URL, req.SizeBytes)
	if err != nil {
		if errors.Is(err, content.ErrEmptyName) || errors.Is(err, content.ErrEmptyURL) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create media")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create media",
		})
		return
	}

	c.JSON(http.StatusCreated, media)
}

// ListMedia handles GET /api/media
func (h *MediaHandler) ListMedia(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	mediaList, err := h.content.ListMedia(ctx, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list media",
		})
		return
	}

	c.JSON(http.StatusOK, MediaListResponse{
		Media:  mediaList,
		Limit:  limit,
		Offset: offset,
	})
}

// GetMedia handles GET /api/media/:id
func (h *MediaHandler) GetMedia(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Media ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	media, err := h.content.GetMedia(ctx, id)
	if err != nil {
		if content.IsMediaNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get media",
		})
		return
	}

	c.JSON(http.StatusOK, media)
}

// DeleteMedia handles DELETE /api/media/:id
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Media ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.content.DeleteMedia(ctx, id); err != nil {
		if content.IsMediaNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete media",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// SetupMediaRoutes registers media management routes
func SetupMediaRoutes(apiGroup *gin.RouterGroup, contentService *content.Service) {
	handler := NewMediaHandler(contentService)

	apiGroup.POST("/media", handler.CreateMedia)
	apiGroup.GET("/media", handler.ListMedia)
	apiGroup.GET("/media/:id", handler.GetMedia)
	apiGroup.DELETE("/media/:id", handler.DeleteMedia)
}
