package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kwrenn/signet/internal/devices"
	"github.com/kwrenn/signet/internal/logger"
)

// DeviceKey is the context key under which the authenticated device is stored
const DeviceKey = "device"

// DeviceAuth returns a middleware that authenticates device-facing requests
// via the Bearer token issued at pairing. The token must belong to the
// device addressed by the :id path parameter.
func DeviceAuth(service *devices.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing device token",
			})
			return
		}

		device, err := service.Authenticate(c.Request.Context(), token)
		if err != nil {
			if devices.IsInvalidToken(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "unauthorized",
					"message": "Invalid device token",
				})
				return
			}
			logger.Log.Error().
				Err(err).
				Msg("Device authentication failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal_error",
			})
			return
		}

		// A device token only grants access to that device's own endpoints.
		if id := c.Param("id"); id != "" && id != device.ID.String() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Token does not match device",
			})
			return
		}

		c.Set(DeviceKey, device)
		c.Next()
	}
}
