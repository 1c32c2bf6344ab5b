package db

// Repositories provides access to all database repositories
type Repositories struct {
	Devices       *DeviceRepository
	Playlists     *PlaylistRepository
	PlaylistItems *PlaylistItemRepository
	Media         *MediaRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Devices:       NewDeviceRepository(db),
		Playlists:     NewPlaylistRepository(db),
		PlaylistItems: NewPlaylistItemRepository(db),
		Media:         NewMediaRepository(db),
	}
}
