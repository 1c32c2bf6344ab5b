package devices

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwrenn/signet/internal/db"
	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/models"
)

func TestMain(m *testing.M) {
	logger.Init("error", false)
	os.Exit(m.Run())
}

// setupTestService creates a service backed by a temp-file SQLite database
// with migrations applied
func setupTestService(t *testing.T) (*Service, *db.Repositories) {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "signet.db"))
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() {
		_ = database.Close()
	})

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Resolve the migrations directory relative to this file so tests work
	// regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")
	moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	migrationsPath := "file://" + filepath.Join(moduleRoot, "migrations")

	require.NoError(t, db.RunMigrations(sqlDB, migrationsPath), "Failed to run migrations")

	repos := db.NewRepositories(database)
	return NewService(repos, 90*time.Second), repos
}

// createTestPlaylist inserts a playlist with n media-backed items
func createTestPlaylist(t *testing.T, repos *db.Repositories, n int) *models.Playlist {
	t.Helper()
	ctx := context.Background()

	playlist := models.NewPlaylist("Lobby Loop", true, false)
	require.NoError(t, repos.Playlists.Create(ctx, playlist))

	for i := 0; i < n; i++ {
		media := models.NewMedia("clip", "video/mp4", "mp4", models.MediaSourceUpload, "https://cdn.example.com/"+uuid.NewString()+".mp4")
		require.NoError(t, repos.Media.Create(ctx, media))

		item := models.NewPlaylistItem(playlist.ID, media.ID, i+1)
		require.NoError(t, repos.PlaylistItems.Create(ctx, item))
	}
	return playlist
}

func TestCreateDevice(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "lobby-screen")
	require.NoError(t, err)

	assert.Equal(t, "lobby-screen", device.Name)
	assert.Equal(t, models.DeviceStateOffline, device.State)
	assert.Nil(t, device.PlaylistID)

	require.Len(t, device.PairingCode, pairingCodeLength)
	for _, c := range device.PairingCode {
		assert.True(t, strings.ContainsRune(pairingCodeAlphabet, c),
			"pairing code contains character outside alphabet: %c", c)
	}

	other, err := service.CreateDevice(ctx, "hallway-screen")
	require.NoError(t, err)
	assert.NotEqual(t, device.PairingCode, other.PairingCode)
}

func TestRegister(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "unnamed")
	require.NoError(t, err)
	originalToken := device.APIToken

	registered, err := service.Register(ctx, device.PairingCode, "lobby-pi")
	require.NoError(t, err)

	assert.Equal(t, device.ID, registered.ID)
	assert.Equal(t, "lobby-pi", registered.Name)
	assert.NotEqual(t, originalToken, registered.APIToken, "token should rotate on registration")

	// The old token no longer authenticates
	_, err = service.Authenticate(ctx, originalToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	authed, err := service.Authenticate(ctx, registered.APIToken)
	require.NoError(t, err)
	assert.Equal(t, device.ID, authed.ID)
}

func TestRegisterUnknownCode(t *testing.T) {
	service, _ := setupTestService(t)

	_, err := service.Register(context.Background(), "ZZZZZZ", "")
	assert.True(t, IsInvalidPairingCode(err))
}

func TestRegisterKeepsNameWhenOmitted(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "front-desk")
	require.NoError(t, err)

	registered, err := service.Register(ctx, device.PairingCode, "")
	require.NoError(t, err)
	assert.Equal(t, "front-desk", registered.Name)
}

func TestAuthenticate(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.Authenticate(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAssignPlaylist(t *testing.T) {
	service, repos := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "lobby-screen")
	require.NoError(t, err)
	playlist := createTestPlaylist(t, repos, 3)

	require.NoError(t, service.AssignPlaylist(ctx, device.ID, &playlist.ID))

	assigned, err := service.AssignedPlaylist(ctx, device.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned)
	assert.Equal(t, playlist.ID, assigned.ID)
	require.Len(t, assigned.Items, 3)
	for i, item := range assigned.Items {
		assert.Equal(t, i+1, item.Position)
		require.NotNil(t, item.Media, "item media should be attached")
	}

	// Clearing the assignment
	require.NoError(t, service.AssignPlaylist(ctx, device.ID, nil))
	assigned, err = service.AssignedPlaylist(ctx, device.ID)
	require.NoError(t, err)
	assert.Nil(t, assigned)
}

func TestAssignPlaylistUnknownPlaylist(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "lobby-screen")
	require.NoError(t, err)

	missing := uuid.New()
	err = service.AssignPlaylist(ctx, device.ID, &missing)
	assert.True(t, IsPlaylistNotFound(err))
}

func TestAssignPlaylistUnknownDevice(t *testing.T) {
	service, repos := setupTestService(t)
	playlist := createTestPlaylist(t, repos, 1)

	err := service.AssignPlaylist(context.Background(), uuid.New(), &playlist.ID)
	assert.True(t, IsDeviceNotFound(err))
}

func TestAssignedPlaylistUnassigned(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "lobby-screen")
	require.NoError(t, err)

	playlist, err := service.AssignedPlaylist(ctx, device.ID)
	require.NoError(t, err)
	assert.Nil(t, playlist, "unassigned device should report no playlist, not an error")
}

func TestRecordHeartbeat(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "lobby-screen")
	require.NoError(t, err)

	require.NoError(t, service.RecordHeartbeat(ctx, device.ID, Heartbeat{Status: "playing", Progress: 42.5}))

	updated, err := service.GetByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, "playing", updated.Status)
	assert.Equal(t, models.DeviceStateOnline, updated.State)
	require.NotNil(t, updated.LastSeenAt)
	assert.WithinDuration(t, time.Now().UTC(), *updated.LastSeenAt, 5*time.Second)
}

func TestRecordHeartbeatDefaultsStatus(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "lobby-screen")
	require.NoError(t, err)

	require.NoError(t, service.RecordHeartbeat(ctx, device.ID, Heartbeat{}))

	updated, err := service.GetByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, "idle", updated.Status)
}

func TestRecordHeartbeatUnknownDevice(t *testing.T) {
	service, _ := setupTestService(t)

	err := service.RecordHeartbeat(context.Background(), uuid.New(), Heartbeat{Status: "playing"})
	assert.True(t, IsDeviceNotFound(err))
}

func TestOfflineSweep(t *testing.T) {
	service, repos := setupTestService(t)
	ctx := context.Background()

	stale, err := service.CreateDevice(ctx, "stale-screen")
	require.NoError(t, err)
	fresh, err := service.CreateDevice(ctx, "fresh-screen")
	require.NoError(t, err)

	// One device last spoke well past the threshold, the other just now
	past := time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, repos.Devices.RecordHeartbeat(ctx, stale.ID, "playing", past))
	require.NoError(t, repos.Devices.RecordHeartbeat(ctx, fresh.ID, "playing", time.Now().UTC()))

	service.sweepOffline()

	staleAfter, err := service.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStateOffline, staleAfter.State)
	assert.Equal(t, "playing", staleAfter.Status, "sweep only changes connectivity, not playback status")

	freshAfter, err := service.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStateOnline, freshAfter.State)
}

func TestStartStopIdempotent(t *testing.T) {
	service, _ := setupTestService(t)

	service.Start()
	service.Start()
	service.Stop()
	service.Stop()
}

func TestDeleteDevice(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, "lobby-screen")
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, device.ID))

	_, err = service.GetByID(ctx, device.ID)
	assert.True(t, IsDeviceNotFound(err))

	err = service.Delete(ctx, device.ID)
	assert.True(t, IsDeviceNotFound(err))
}
