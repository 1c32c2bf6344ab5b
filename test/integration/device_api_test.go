//go:build integration
// +build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwrenn/signet/internal/api"
	"github.com/kwrenn/signet/internal/models"
)

// createMediaViaAPI registers a media record through the HTTP surface
func createMediaViaAPI(t *testing.T, router *gin.Engine, name, mimeType, url string) *models.Media {
	t.Helper()

	w := doRequest(t, router, http.MethodPost, "/api/media", "", api.CreateMediaRequest{
		Name:     name,
		MimeType: mimeType,
		URL:      url,
	})
	require.Equal(t, http.StatusCreated, w.Code, "unexpected response: %s", w.Body.String())

	var media models.Media
	decodeJSON(t, w, &media)
	return &media
}

func TestDevicePairingFlow(t *testing.T) {
	database, repos := setupTestDB(t)
	router := setupTestRouter(t, database, repos)

	// Content setup: two media records sequenced into a playlist
	video := createMediaViaAPI(t, router, "Promo Video", "video/mp4", "https://cdn.example.com/promo.mp4")
	image := createMediaViaAPI(t, router, "Menu Board", "image/png", "https://cdn.example.com/menu.png")

	duration := 20
	w := doRequest(t, router, http.MethodPost, "/api/playlists", "", api.CreatePlaylistRequest{
		Name: "Lobby Loop",
		Items: []api.CreateItemRequest{
			{MediaID: video.ID.String()},
			{MediaID: image.ID.String(), Duration: &duration},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, "unexpected response: %s", w.Body.String())
	var playlist models.Playlist
	decodeJSON(t, w, &playlist)

	// Provision a device and assign the playlist
	w = doRequest(t, router, http.MethodPost, "/api/devices", "", api.CreateDeviceRequest{Name: "lobby-screen"})
	require.Equal(t, http.StatusCreated, w.Code)
	var device models.Device
	decodeJSON(t, w, &device)
	require.NotEmpty(t, device.PairingCode)

	playlistID := playlist.ID.String()
	w = doRequest(t, router, http.MethodPut, "/api/devices/"+device.ID.String()+"/playlist", "", api.AssignPlaylistRequest{
		PlaylistID: &playlistID,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	// A wrong pairing code is rejected without leaking whether it ever existed
	w = doRequest(t, router, http.MethodPost, "/api/devices/register", "", api.RegisterDeviceRequest{
		PairingCode: "ZZZZZZ",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	var errResp api.ErrorResponse
	decodeJSON(t, w, &errResp)
	assert.Equal(t, "invalid_pairing_code", errResp.Error)

	// The real code issues an API token
	w = doRequest(t, router, http.MethodPost, "/api/devices/register", "", api.RegisterDeviceRequest{
		PairingCode: device.PairingCode,
		Name:        "lobby-pi",
	})
	require.Equal(t, http.StatusCreated, w.Code, "unexpected response: %s", w.Body.String())
	var registered api.RegisterDeviceResponse
	decodeJSON(t, w, &registered)
	assert.Equal(t, device.ID, registered.DeviceID)
	assert.Equal(t, "lobby-pi", registered.Name)
	require.NotEmpty(t, registered.APIToken)

	// The device fetches its playlist with the issued token
	w = doRequest(t, router, http.MethodGet, "/api/devices/"+device.ID.String()+"/playlist", registered.APIToken, nil)
	require.Equal(t, http.StatusOK, w.Code, "unexpected response: %s", w.Body.String())
	var playlistResp api.DevicePlaylistResponse
	decodeJSON(t, w, &playlistResp)
	require.NotNil(t, playlistResp.Playlist)
	assert.Equal(t, playlist.ID, playlistResp.Playlist.ID)
	require.Len(t, playlistResp.Playlist.Items, 2)
	assert.Equal(t, video.ID, playlistResp.Playlist.Items[0].MediaID)
	require.NotNil(t, playlistResp.Playlist.Items[0].Media)
	assert.Equal(t, "video/mp4", playlistResp.Playlist.Items[0].Media.MimeType)
	require.NotNil(t, playlistResp.Playlist.Items[1].Duration)
	assert.Equal(t, 20, *playlistResp.Playlist.Items[1].Duration)

	// Heartbeat flips the device online
	w = doRequest(t, router, http.MethodPost, "/api/devices/"+device.ID.String()+"/heartbeat", registered.APIToken, api.HeartbeatRequest{
		Status:   "playing",
		Progress: 37.5,
	})
	require.Equal(t, http.StatusOK, w.Code, "unexpected response: %s", w.Body.String())
	var hbResp api.HeartbeatResponse
	decodeJSON(t, w, &hbResp)
	assert.True(t, hbResp.Success)
	assert.NotEmpty(t, hbResp.ServerTime)

	w = doRequest(t, router, http.MethodGet, "/api/devices/"+device.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var seen models.Device
	decodeJSON(t, w, &seen)
	assert.Equal(t, models.DeviceStateOnline, seen.State)
	assert.Equal(t, "playing", seen.Status)

	// Clearing the assignment: the device sees a null playlist on its next poll
	w = doRequest(t, router, http.MethodPut, "/api/devices/"+device.ID.String()+"/playlist", "", api.AssignPlaylistRequest{
		PlaylistID: nil,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/devices/"+device.ID.String()+"/playlist", registered.APIToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	playlistResp = api.DevicePlaylistResponse{}
	decodeJSON(t, w, &playlistResp)
	assert.Nil(t, playlistResp.Playlist)
}

func TestDeviceAuth(t *testing.T) {
	database, repos := setupTestDB(t)
	router := setupTestRouter(t, database, repos)

	// Two paired devices
	w := doRequest(t, router, http.MethodPost, "/api/devices", "", api.CreateDeviceRequest{Name: "screen-a"})
	require.Equal(t, http.StatusCreated, w.Code)
	var deviceA models.Device
	decodeJSON(t, w, &deviceA)

	w = doRequest(t, router, http.MethodPost, "/api/devices", "", api.CreateDeviceRequest{Name: "screen-b"})
	require.Equal(t, http.StatusCreated, w.Code)
	var deviceB models.Device
	decodeJSON(t, w, &deviceB)

	w = doRequest(t, router, http.MethodPost, "/api/devices/register", "", api.RegisterDeviceRequest{PairingCode: deviceA.PairingCode})
	require.Equal(t, http.StatusCreated, w.Code)
	var registeredA api.RegisterDeviceResponse
	decodeJSON(t, w, &registeredA)

	playlistPath := "/api/devices/" + deviceA.ID.String() + "/playlist"

	// Missing and malformed credentials
	w = doRequest(t, router, http.MethodGet, playlistPath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, http.MethodGet, playlistPath, "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid token only opens that device's own endpoints
	w = doRequest(t, router, http.MethodGet, "/api/devices/"+deviceB.ID.String()+"/playlist", registeredA.APIToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, router, http.MethodGet, playlistPath, registeredA.APIToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	database, repos := setupTestDB(t)
	router := setupTestRouter(t, database, repos)

	createMediaViaAPI(t, router, "Poster", "image/png", "https://cdn.example.com/poster.png")

	w := doRequest(t, router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var health struct {
		Status   string                 `json:"status"`
		Database string                 `json:"database"`
		Details  map[string]interface{} `json:"details"`
	}
	decodeJSON(t, w, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "healthy", health.Database)
	assert.Equal(t, float64(1), health.Details["media"])
	assert.Equal(t, float64(0), health.Details["devices"])
	assert.Equal(t, float64(0), health.Details["devices_online"])
	assert.Equal(t, float64(0), health.Details["playlists"])
}
