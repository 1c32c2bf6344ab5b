package content

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

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
func setupTestService(t *testing.T) *Service {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "signet.db"))
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() {
		_ = database.Close()
	})

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")
	moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	migrationsPath := "file://" + filepath.Join(moduleRoot, "migrations")

	require.NoError(t, db.RunMigrations(sqlDB, migrationsPath), "Failed to run migrations")

	return NewService(database, db.NewRepositories(database))
}

// createTestMedia registers n media records and returns them in creation order
func createTestMedia(t *testing.T, service *Service, n int) []*models.Media {
	t.Helper()
	ctx := context.Background()

	out := make([]*models.Media, n)
	for i := range out {
		media, err := service.CreateMedia(ctx, "clip", "video/mp4", "mp4", models.MediaSourceUpload,
			"https://cdn.example.com/"+uuid.NewString()+".mp4", 1024)
		require.NoError(t, err)
		out[i] = media
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestCreateMedia(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	media, err := service.CreateMedia(ctx, "Welcome Banner", "image/png", "png", "", "https://cdn.example.com/banner.png", 2048)
	require.NoError(t, err)
	assert.Equal(t, models.MediaSourceUpload, media.Source, "empty source defaults to upload")
	assert.Equal(t, int64(2048), media.SizeBytes)

	got, err := service.GetMedia(ctx, media.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome Banner", got.Name)
}

func TestCreateMediaValidation(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	_, err := service.CreateMedia(ctx, "  ", "image/png", "png", "", "https://cdn.example.com/x.png", 0)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = service.CreateMedia(ctx, "banner", "image/png", "png", "", "   ", 0)
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestListMedia(t *testing.T) {
	service := setupTestService(t)
	createTestMedia(t, service, 5)

	page, err := service.ListMedia(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := service.ListMedia(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestCreatePlaylist(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 3)

	items := []NewItem{
		{MediaID: media[0].ID, Duration: intPtr(30)},
		{MediaID: media[1].ID},
		{MediaID: media[2].ID},
	}
	playlist, err := service.CreatePlaylist(ctx, "Lobby Loop", true, false, items)
	require.NoError(t, err)

	got, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lobby Loop", got.Name)
	assert.True(t, got.LoopEnabled)
	require.Len(t, got.Items, 3)
	for i, item := range got.Items {
		assert.Equal(t, i+1, item.Position)
		assert.Equal(t, media[i].ID, item.MediaID)
		require.NotNil(t, item.Media)
	}
	require.NotNil(t, got.Items[0].Duration)
	assert.Equal(t, 30, *got.Items[0].Duration)
	assert.Nil(t, got.Items[1].Duration)
}

func TestCreatePlaylistValidation(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 1)

	_, err := service.CreatePlaylist(ctx, "", true, false, nil)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = service.CreatePlaylist(ctx, "Bad", true, false, []NewItem{
		{MediaID: media[0].ID, Duration: intPtr(0)},
	})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestCreatePlaylistUnknownMediaRollsBack(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 1)

	_, err := service.CreatePlaylist(ctx, "Broken", true, false, []NewItem{
		{MediaID: media[0].ID},
		{MediaID: uuid.New()},
	})
	require.Error(t, err)

	// The playlist from the failed transaction must not exist
	playlists, err := service.ListPlaylists(ctx)
	require.NoError(t, err)
	assert.Empty(t, playlists)
}

func TestUpdatePlaylist(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	playlist, err := service.CreatePlaylist(ctx, "Lobby Loop", true, false, nil)
	require.NoError(t, err)

	playlist.Name = "Hallway Loop"
	playlist.LoopEnabled = false
	playlist.Shuffle = true
	require.NoError(t, service.UpdatePlaylist(ctx, playlist))

	got, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hallway Loop", got.Name)
	assert.False(t, got.LoopEnabled)
	assert.True(t, got.Shuffle)
}

func TestDeletePlaylist(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 2)

	playlist, err := service.CreatePlaylist(ctx, "Lobby Loop", true, false, []NewItem{
		{MediaID: media[0].ID},
		{MediaID: media[1].ID},
	})
	require.NoError(t, err)

	require.NoError(t, service.DeletePlaylist(ctx, playlist.ID))

	_, err = service.GetPlaylist(ctx, playlist.ID)
	assert.True(t, IsPlaylistNotFound(err))

	err = service.DeletePlaylist(ctx, playlist.ID)
	assert.True(t, IsPlaylistNotFound(err))

	// Media outlives the playlist that referenced it
	_, err = service.GetMedia(ctx, media[0].ID)
	assert.NoError(t, err)
}

func TestAddItem(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 2)

	playlist, err := service.CreatePlaylist(ctx, "Lobby Loop", true, false, []NewItem{
		{MediaID: media[0].ID},
	})
	require.NoError(t, err)

	item, err := service.AddItem(ctx, playlist.ID, media[1].ID, intPtr(15))
	require.NoError(t, err)
	assert.Equal(t, 2, item.Position, "new items append to the end")

	_, err = service.AddItem(ctx, playlist.ID, uuid.New(), nil)
	assert.True(t, IsMediaNotFound(err))

	_, err = service.AddItem(ctx, playlist.ID, media[1].ID, intPtr(-5))
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestRemoveItemRenumbers(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 3)

	playlist, err := service.CreatePlaylist(ctx, "Lobby Loop", true, false, []NewItem{
		{MediaID: media[0].ID},
		{MediaID: media[1].ID},
		{MediaID: media[2].ID},
	})
	require.NoError(t, err)

	got, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)

	// Remove the middle item; positions must stay contiguous
	require.NoError(t, service.RemoveItem(ctx, playlist.ID, got.Items[1].ID))

	after, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	require.Len(t, after.Items, 2)
	assert.Equal(t, 1, after.Items[0].Position)
	assert.Equal(t, media[0].ID, after.Items[0].MediaID)
	assert.Equal(t, 2, after.Items[1].Position)
	assert.Equal(t, media[2].ID, after.Items[1].MediaID)

	err = service.RemoveItem(ctx, playlist.ID, uuid.New())
	assert.True(t, IsItemNotFound(err))

	// The delete is scoped to the playlist: a valid item id paired with the
	// wrong playlist removes nothing.
	err = service.RemoveItem(ctx, uuid.New(), after.Items[0].ID)
	assert.True(t, IsItemNotFound(err))

	unchanged, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	require.Len(t, unchanged.Items, 2)
	assert.Equal(t, 1, unchanged.Items[0].Position)
	assert.Equal(t, 2, unchanged.Items[1].Position)
}

func TestUpdateItemDuration(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 1)

	playlist, err := service.CreatePlaylist(ctx, "Lobby Loop", true, false, []NewItem{
		{MediaID: media[0].ID, Duration: intPtr(10)},
	})
	require.NoError(t, err)

	got, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	itemID := got.Items[0].ID

	require.NoError(t, service.UpdateItemDuration(ctx, itemID, intPtr(90)))
	got, err = service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Items[0].Duration)
	assert.Equal(t, 90, *got.Items[0].Duration)

	// Clearing the override falls back to per-kind defaults at playback
	require.NoError(t, service.UpdateItemDuration(ctx, itemID, nil))
	got, err = service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Items[0].Duration)

	assert.ErrorIs(t, service.UpdateItemDuration(ctx, itemID, intPtr(0)), ErrInvalidDuration)
	assert.True(t, IsItemNotFound(service.UpdateItemDuration(ctx, uuid.New(), intPtr(5))))
}

func TestReorder(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 3)

	playlist, err := service.CreatePlaylist(ctx, "Lobby Loop", true, false, []NewItem{
		{MediaID: media[0].ID},
		{MediaID: media[1].ID},
		{MediaID: media[2].ID},
	})
	require.NoError(t, err)

	got, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)

	// Reverse the sequence
	reorder := []db.ReorderItem{
		{ID: got.Items[0].ID, Position: 3},
		{ID: got.Items[1].ID, Position: 2},
		{ID: got.Items[2].ID, Position: 1},
	}
	require.NoError(t, service.Reorder(ctx, playlist.ID, reorder))

	after, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	require.Len(t, after.Items, 3)
	assert.Equal(t, media[2].ID, after.Items[0].MediaID)
	assert.Equal(t, media[1].ID, after.Items[1].MediaID)
	assert.Equal(t, media[0].ID, after.Items[2].MediaID)
}

func TestDeleteMediaCascadesToItems(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	media := createTestMedia(t, service, 2)

	playlist, err := service.CreatePlaylist(ctx, "Lobby Loop", true, false, []NewItem{
		{MediaID: media[0].ID},
		{MediaID: media[1].ID},
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteMedia(ctx, media[0].ID))

	got, err := service.GetPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1, "items referencing deleted media cascade away")
	assert.Equal(t, media[1].ID, got.Items[0].MediaID)
}
