package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kwrenn/signet/internal/models"
)

// PlaylistRepository handles database operations for playlists
type PlaylistRepository struct {
	db *DB
}

// NewPlaylistRepository creates a new playlist repository
func NewPlaylistRepository(db *DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist into the database
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	result := r.db.WithContext(ctx).Create(playlist)
	if result.Error != nil {
		return fmt.Errorf("failed to create playlist: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a playlist by its UUID, without items
func (r *PlaylistRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	var playlist models.Playlist
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&playlist)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &playlist, nil
}

// List retrieves all playlists ordered by creation date (newest first)
func (r *PlaylistRepository) List(ctx context.Context) ([]*models.Playlist, error) {
	var playlists []*models.Playlist
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&playlists)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", MapGormError(result.Error))
	}
	return playlists, nil
}

// Count returns the total number of playlists
func (r *PlaylistRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Playlist{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count playlists: %w", MapGormError(result.Error))
	}
	return count, nil
}

// Update updates an existing playlist's behavior fields
func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	playlist.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", playlist.ID.String()).
		Select("name", "loop_enabled", "shuffle", "background_color", "auto_advance", "updated_at").
		Updates(playlist)
	if result.Error != nil {
		return fmt.Errorf("failed to update playlist: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a playlist by its UUID (cascade delete to playlist items)
func (r *PlaylistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Playlist{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete playlist: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PlaylistItemRepository handles database operations for playlist items
type PlaylistItemRepository struct {
	db *DB
}

// NewPlaylistItemRepository creates a new playlist item repository
func NewPlaylistItemRepository(db *DB) *PlaylistItemRepository {
	return &PlaylistItemRepository{db: db}
}

// ReorderItem represents a playlist item position update
type ReorderItem struct {
	ID       uuid.UUID
	Position int
}

// Create inserts a new playlist item into the database
func (r *PlaylistItemRepository) Create(ctx context.Context, item *models.PlaylistItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create playlist item: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a playlist item by its UUID
func (r *PlaylistItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PlaylistItem, error) {
	var item models.PlaylistItem
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// GetByPlaylistID retrieves all items for a playlist, ordered by position
func (r *PlaylistItemRepository) GetByPlaylistID(ctx context.Context, playlistID uuid.UUID) ([]*models.PlaylistItem, error) {
	var items []*models.PlaylistItem
	result := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// GetWithMedia retrieves a playlist's items in position order with their
// media records attached. Items whose media has been deleted keep a nil
// Media; the player classifies those as unplayable and skips them.
func (r *PlaylistItemRepository) GetWithMedia(ctx context.Context, playlistID uuid.UUID) ([]*models.PlaylistItem, error) {
	items, err := r.GetByPlaylistID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	mediaIDs := make([]string, 0, len(items))
	for _, item := range items {
		mediaIDs = append(mediaIDs, item.MediaID.String())
	}

	var mediaList []*models.Media
	result := r.db.WithContext(ctx).Where("id IN ?", mediaIDs).Find(&mediaList)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get media for playlist items: %w", MapGormError(result.Error))
	}

	byID := make(map[uuid.UUID]*models.Media, len(mediaList))
	for _, m := range mediaList {
		byID[m.ID] = m
	}
	for _, item := range items {
		item.Media = byID[item.MediaID]
	}
	return items, nil
}

// Delete deletes a playlist item by its UUID
func (r *PlaylistItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.PlaylistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete playlist item: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByPlaylistID deletes all items for a playlist
func (r *PlaylistItemRepository) DeleteByPlaylistID(ctx context.Context, playlistID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("playlist_id = ?", playlistID.String()).Delete(&models.PlaylistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete playlist items: %w", MapGormError(result.Error))
	}
	return nil
}

// Reorder updates positions for multiple playlist items in a transaction
func (r *PlaylistItemRepository) Reorder(ctx context.Context, playlistID uuid.UUID, items []ReorderItem) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, item := range items {
			result := tx.Model(&models.PlaylistItem{}).
				Where("id = ? AND playlist_id = ?", item.ID.String(), playlistID.String()).
				Update("position", item.Position)
			if result.Error != nil {
				return fmt.Errorf("failed to update position for item %s: %w", item.ID, MapGormError(result.Error))
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("playlist item %s not found or does not belong to playlist", item.ID)
			}
		}
		return nil
	})
}
