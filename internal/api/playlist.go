package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kwrenn/signet/internal/content"
	"github.com/kwrenn/signet/internal/db"
	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/models"
)

// CreatePlaylistRequest represents a request to create a playlist with items
type CreatePlaylistRequest struct {
	Name        string              `json:"name" binding:"required"`
	LoopEnabled *bool               `json:"loop_enabled,omitempty"`
	Shuffle     bool                `json:"shuffle"`
	Items       []CreateItemRequest `json:"items"`
}

// CreateItemRequest represents one item of a playlist being created
type CreateItemRequest struct {
	MediaID  string `json:"media_id" binding:"required"`
	Duration *int   `json:"duration,omitempty"`
}

// UpdatePlaylistRequest represents a partial playlist update
type UpdatePlaylistRequest struct {
	Name        *string `json:"name,omitempty"`
	LoopEnabled *bool   `json:"loop_enabled,omitempty"`
	Shuffle     *bool   `json:"shuffle,omitempty"`
}

// AddItemRequest represents a request to append media to a playlist
type AddItemRequest struct {
	MediaID  string `json:"media_id" binding:"required"`
	Duration *int   `json:"duration,omitempty"`
}

// UpdateItemRequest represents a duration override update
type UpdateItemRequest struct {
	Duration *int `json:"duration"`
}

// ReorderRequest represents a request to reorder playlist items
type ReorderRequest struct {
	Items []ReorderEntry `json:"items" binding:"required,min=1"`
}

// ReorderEntry represents an item position in a reorder request
type ReorderEntry struct {
	ItemID   string `json:"item_id" binding:"required"`
	Position int    `json:"position" binding:"gte=1"`
}

// PlaylistListResponse represents a list of playlists
type PlaylistListResponse struct {
	Playlists []*models.Playlist `json:"playlists"`
}

// PlaylistHandler handles playlist-related API requests
type PlaylistHandler struct {
	content *content.Service
}

// NewPlaylistHandler creates a new playlist handler instance
func NewPlaylistHandler(contentService *content.Service) *PlaylistHandler {
	return &PlaylistHandler{content: contentService}
}

// CreatePlaylist handles POST /api/playlists
func (h *PlaylistHandler) CreatePlaylist(c *gin.Context) {
	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	items := make([]content.NewItem, 0, len(req.Items))
	for _, item := range req.Items {
		mediaID, err := uuid.Parse(item.MediaID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_id",
				Message: "Media ID must be a valid UUID",
			})
			return
		}
		items = append(items, content.NewItem{MediaID: mediaID, Duration: item.Duration})
	}

	// Loop defaults to on; playlists that should stop at the end opt out.
	loopEnabled := true
	if req.LoopEnabled != nil {
		loopEnabled = *req.LoopEnabled
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	playlist, err := h.content.CreatePlaylist(ctx, req.Name, loopEnabled, req.Shuffle, items)
	if err != nil {
		if errors.Is(err, content.ErrEmptyName) || errors.Is(err, content.ErrInvalidDuration) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create playlist")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create playlist",
		})
		return
	}

	c.JSON(http.StatusCreated, playlist)
}

// ListPlaylists handles GET /api/playlists
func (h *PlaylistHandler) ListPlaylists(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	playlists, err := h.content.ListPlaylists(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list playlists",
		})
		return
	}

	c.JSON(http.StatusOK, PlaylistListResponse{Playlists: playlists})
}

// GetPlaylist handles GET /api/playlists/:id
func (h *PlaylistHandler) GetPlaylist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Playlist ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	playlist, err := h.content.GetPlaylist(ctx, id)
	if err != nil {
		if content.IsPlaylistNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get playlist",
		})
		return
	}

	c.JSON(http.StatusOK, playlist)
}

// UpdatePlaylist handles PUT /api/playlists/:id
func (h *PlaylistHandler) UpdatePlaylist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Playlist ID must be a valid UUID",
		})
		return
	}

	var req UpdatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	playlist, err := h.content.GetPlaylist(ctx, id)
	if err != nil {
		if content.IsPlaylistNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update playlist",
		})
		return
	}

	if req.Name != nil {
		playlist.Name = *req.Name
	}
	if req.LoopEnabled != nil {
		playlist.LoopEnabled = *req.LoopEnabled
	}
	if req.Shuffle != nil {
		playlist.Shuffle = *req.Shuffle
	}

	if err := h.content.UpdatePlaylist(ctx, playlist); err != nil {
		if errors.Is(err, content.ErrEmptyName) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update playlist",
		})
		return
	}

	c.JSON(http.StatusOK, playlist)
}

// DeletePlaylist handles DELETE /api/playlists/:id
func (h *PlaylistHandler) DeletePlaylist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Playlist ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.content.DeletePlaylist(ctx, id); err != nil {
		if content.IsPlaylistNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete playlist",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// AddItem handles POST /api/playlists/:id/items
func (h *PlaylistHandler) AddItem(c *gin.Context) {
	playlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Playlist ID must be a valid UUID",
		})
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	mediaID, err := uuid.Parse(req.MediaID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Media ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	item, err := h.content.AddItem(ctx, playlistID, mediaID, req.Duration)
	if err != nil {
		switch {
		case content.IsMediaNotFound(err):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
		case errors.Is(err, content.ErrInvalidDuration):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to add playlist item",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, item)
}

// RemoveItem handles DELETE /api/playlists/:id/items/:item_id
func (h *PlaylistHandler) RemoveItem(c *gin.Context) {
	playlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Playlist ID must be a valid UUID",
		})
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Item ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.content.RemoveItem(ctx, playlistID, itemID); err != nil {
		if content.IsItemNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist item not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to remove playlist item",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateItem handles PUT /api/playlists/:id/items/:item_id
func (h *PlaylistHandler) UpdateItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Item ID must be a valid UUID",
		})
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.content.UpdateItemDuration(ctx, itemID, req.Duration); err != nil {
		switch {
		case content.IsItemNotFound(err):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist item not found",
			})
		case errors.Is(err, content.ErrInvalidDuration):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to update playlist item",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ReorderPlaylist handles PUT /api/playlists/:id/reorder
func (h *PlaylistHandler) ReorderPlaylist(c *gin.Context) {
	playlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Playlist ID must be a valid UUID",
		})
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	items := make([]db.ReorderItem, 0, len(req.Items))
	for _, entry := range req.Items {
		itemID, err := uuid.Parse(entry.ItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_id",
				Message: "Item ID must be a valid UUID",
			})
			return
		}
		items = append(items, db.ReorderItem{ID: itemID, Position: entry.Position})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.content.Reorder(ctx, playlistID, items); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to reorder playlist",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// SetupPlaylistRoutes registers playlist management routes
func SetupPlaylistRoutes(apiGroup *gin.RouterGroup, contentService *content.Service) {
	handler := NewPlaylistHandler(contentService)

	apiGroup.POST("/playlists", handler.CreatePlaylist)
	apiGroup.GET("/playlists", handler.ListPlaylists)
	apiGroup.GET("/playlists/:id", handler.GetPlaylist)
	apiGroup.PUT("/playlists/:id", handler.UpdatePlaylist)
	apiGroup.DELETE("/playlists/:id", handler.DeletePlaylist)

	apiGroup.POST("/playlists/:id/items", handler.AddItem)
	apiGroup.PUT("/playlists/:id/items/:item_id", handler.UpdateItem)
	apiGroup.DELETE("/playlists/:id/items/:item_id", handler.RemoveItem)
	apiGroup.PUT("/playlists/:id/reorder", handler.ReorderPlaylist)
}
