package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kwrenn/signet/internal/devices"
	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/middleware"
	"github.com/kwrenn/signet/internal/models"
)

// CreateDeviceRequest represents a request to provision a device
type CreateDeviceRequest struct {
	Name string `json:"name" binding:"required"`
}

// RegisterDeviceRequest represents a player's pairing request
type RegisterDeviceRequest struct {
	PairingCode string `json:"pairing_code" binding:"required"`
	Name        string `json:"name,omitempty"`
}

// RegisterDeviceResponse represents the identity issued at pairing
type RegisterDeviceResponse struct {
	DeviceID uuid.UUID `json:"device_id"`
	Name     string    `json:"name"`
	APIToken string    `json:"api_token"`
}

// AssignPlaylistRequest represents a playlist assignment change. A null
// playlist_id clears the assignment.
type AssignPlaylistRequest struct {
	PlaylistID *string `json:"playlist_id"`
}

// DeviceListResponse represents a list of devices
type DeviceListResponse struct {
	Devices []*models.Device `json:"devices"`
}

// DevicePlaylistResponse wraps the playlist a device should play. A null
// playlist means nothing is assigned.
type DevicePlaylistResponse struct {
	Playlist *models.Playlist `json:"playlist"`
}

// HeartbeatRequest represents the status payload a device posts
type HeartbeatRequest struct {
	Status      string             `json:"status"`
	CurrentItem string             `json:"currentItem,omitempty"`
	Progress    float64            `json:"progress"`
	Metrics     map[string]float64 `json:"performanceMetrics,omitempty"`
}

// HeartbeatResponse acknowledges an accepted heartbeat
type HeartbeatResponse struct {
	Success    bool   `json:"success"`
	ServerTime string `json:"serverTime"`
}

// DeviceHandler handles device-related API requests
type DeviceHandler struct {
	devices *devices.Service
}

// NewDeviceHandler creates a new device handler instance
func NewDeviceHandler(deviceService *devices.Service) *DeviceHandler {
	return &DeviceHandler{devices: deviceService}
}

// CreateDevice handles POST /api/devices
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	device, err := h.devices.CreateDevice(ctx, req.Name)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create device")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create device",
		})
		return
	}

	c.JSON(http.StatusCreated, device)
}

// ListDevices handles GET /api/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	deviceList, err := h.devices.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list devices",
		})
		return
	}

	c.JSON(http.StatusOK, DeviceListResponse{Devices: deviceList})
}

// GetDevice handles GET /api/devices/:id
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Device ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	device, err := h.devices.GetByID(ctx, id)
	if err != nil {
		if devices.IsDeviceNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get device",
		})
		return
	}

	c.JSON(http.StatusOK, device)
}

// DeleteDevice handles DELETE /api/devices/:id
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Device ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.devices.Delete(ctx, id); err != nil {
		if devices.IsDeviceNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete device",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignPlaylist handles PUT /api/devices/:id/playlist
func (h *DeviceHandler) AssignPlaylist(c *gin.Context) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Device ID must be a valid UUID",
		})
		return
	}

	var req AssignPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	var playlistID *uuid.UUID
	if req.PlaylistID != nil {
		parsed, err := uuid.Parse(*req.PlaylistID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_id",
				Message: "Playlist ID must be a valid UUID",
			})
			return
		}
		playlistID = &parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.devices.AssignPlaylist(ctx, deviceID, playlistID); err != nil {
		switch {
		case devices.IsDeviceNotFound(err):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
		case devices.IsPlaylistNotFound(err):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playlist not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to assign playlist",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// Register handles POST /api/devices/register (device-facing, unauthenticated)
func (h *DeviceHandler) Register(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	device, err := h.devices.Register(ctx, req.PairingCode, req.Name)
	if err != nil {
		if devices.IsInvalidPairingCode(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "invalid_pairing_code",
				Message: "No device matches this pairing code",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to register device",
		})
		return
	}

	c.JSON(http.StatusCreated, RegisterDeviceResponse{
		DeviceID: device.ID,
		Name:     device.Name,
		APIToken: device.APIToken,
	})
}

// GetAssignedPlaylist handles GET /api/devices/:id/playlist (device-facing)
func (h *DeviceHandler) GetAssignedPlaylist(c *gin.Context) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Device ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	playlist, err := h.devices.AssignedPlaylist(ctx, deviceID)
	if err != nil {
		if devices.IsDeviceNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load assigned playlist",
		})
		return
	}

	c.JSON(http.StatusOK, DevicePlaylistResponse{Playlist: playlist})
}

// Heartbeat handles POST /api/devices/:id/heartbeat (device-facing)
func (h *DeviceHandler) Heartbeat(c *gin.Context) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Device ID must be a valid UUID",
		})
		return
	}

	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	hb := devices.Heartbeat{
		Status:      req.Status,
		CurrentItem: req.CurrentItem,
		Progress:    req.Progress,
	}
	if err := h.devices.RecordHeartbeat(ctx, deviceID, hb); err != nil {
		if devices.IsDeviceNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to record heartbeat",
		})
		return
	}

	c.JSON(http.StatusOK, HeartbeatResponse{
		Success:    true,
		ServerTime: time.Now().UTC().Format(time.RFC3339),
	})
}

// SetupDeviceRoutes registers device management and device-facing routes
func SetupDeviceRoutes(apiGroup *gin.RouterGroup, deviceService *devices.Service) {
	handler := NewDeviceHandler(deviceService)

	// Management endpoints
	apiGroup.POST("/devices", handler.CreateDevice)
	apiGroup.GET("/devices", handler.ListDevices)
	apiGroup.GET("/devices/:id", handler.GetDevice)
	apiGroup.DELETE("/devices/:id", handler.DeleteDevice)
	apiGroup.PUT("/devices/:id/playlist", handler.AssignPlaylist)

	// Device-facing endpoints; pairing is the only unauthenticated one.
	apiGroup.POST("/devices/register", handler.Register)

	auth := middleware.DeviceAuth(deviceService)
	apiGroup.GET("/devices/:id/playlist", auth, handler.GetAssignedPlaylist)
	apiGroup.POST("/devices/:id/heartbeat", auth, handler.Heartbeat)
}
