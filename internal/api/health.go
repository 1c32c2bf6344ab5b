package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kwrenn/signet/internal/db"
	"github.com/kwrenn/signet/internal/models"
)

// HealthResponse reports service liveness plus a small fleet and catalog
// summary for dashboards and uptime checks.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Database string                 `json:"database"`
	Time     string                 `json:"time"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db    *db.DB
	repos *db.Repositories
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(database *db.DB, repos *db.Repositories) *HealthHandler {
	return &HealthHandler{db: database, repos: repos}
}

// Check handles the health check endpoint
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Details: make(map[string]interface{}),
	}

	if err := h.db.Health(ctx); err != nil {
		response.Status = "degraded"
		response.Database = "unhealthy"
		response.Details["database_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response.Database = "healthy"

	// Counts are informational: a failure here does not degrade the check.
	if online, total, err := h.repos.Devices.CountByState(ctx, models.DeviceStateOnline); err == nil {
		response.Details["devices"] = total
		response.Details["devices_online"] = online
	}
	if playlists, err := h.repos.Playlists.Count(ctx); err == nil {
		response.Details["playlists"] = playlists
	}
	if media, err := h.repos.Media.Count(ctx); err == nil {
		response.Details["media"] = media
	}

	c.JSON(http.StatusOK, response)
}

// SetupHealthRoutes registers health check routes
func SetupHealthRoutes(apiGroup *gin.RouterGroup, database *db.DB, repos *db.Repositories) {
	handler := NewHealthHandler(database, repos)
	apiGroup.GET("/health", handler.Check)
}
