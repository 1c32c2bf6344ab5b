// Package content implements the management side of the catalog: media
// records and the playlists that sequence them. Devices only ever read the
// result through the device service.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kwrenn/signet/internal/db"
	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/models"
)

// Service handles business logic for media and playlist operations
type Service struct {
	db    *db.DB
	repos *db.Repositories
}

// NewService creates a new content service instance
func NewService(database *db.DB, repos *db.Repositories) *Service {
	return &Service{db: database, repos: repos}
}

// NewItem describes one entry of a playlist being created or replaced
type NewItem struct {
	MediaID  uuid.UUID `json:"media_id"`
	Duration *int      `json:"duration,omitempty"`
}

// CreateMedia registers a content record
func (s *Service) CreateMedia(ctx context.Context, name, mimeType, fileType, source, url string, sizeBytes int64) (*models.Media, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}

	media := models.NewMedia(name, mimeType, fileType, source, url)
	media.SizeBytes = sizeBytes

	if err := s.repos.Media.Create(ctx, media); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to create media in database")
		return nil, fmt.Errorf("failed to create media: %w", err)
	}

	logger.Log.Info().
		Str("media_id", media.ID.String()).
		Str("name", media.Name).
		Str("source", media.Source).
		Msg("Media created")

	return media, nil
}

// GetMedia retrieves a media record by ID
func (s *Service) GetMedia(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	media, err := s.repos.Media.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return media, nil
}

// ListMedia retrieves media records with pagination
func (s *Service) ListMedia(ctx context.Context, limit, offset int) ([]*models.Media, error) {
	mediaList, err := s.repos.Media.List(ctx, limit, offset)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list media")
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return mediaList, nil
}

// DeleteMedia removes a media record. Playlist items referencing it cascade
// away; devices see the shrunken playlist on their next poll.
func (s *Service) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Media.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete media: %w", err)
	}

	logger.Log.Info().
		Str("media_id", id.String()).
		Msg("Media deleted")

	return nil
}

// CreatePlaylist creates a playlist and its items atomically. Item
// positions are assigned 1..n in the order given.
func (s *Service) CreatePlaylist(ctx context.Context, name string, loopEnabled, shuffle bool, items []NewItem) (*models.Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	for _, item := range items {
		if item.Duration != nil && *item.Duration <= 0 {
			return nil, ErrInvalidDuration
		}
	}

	playlist := models.NewPlaylist(name, loopEnabled, shuffle)
	for i, item := range items {
		playlistItem := models.NewPlaylistItem(playlist.ID, item.MediaID, i+1)
		playlistItem.Duration = item.Duration
		playlist.Items = append(playlist.Items, playlistItem)
	}

	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(playlist).Error; err != nil {
			return db.MapGormError(err)
		}
		for _, item := range playlist.Items {
			if err := tx.Create(item).Error; err != nil {
				return db.MapGormError(err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to create playlist in database")
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	logger.Log.Info().
		Str("playlist_id", playlist.ID.String()).
		Str("name", playlist.Name).
		Int("items", len(playlist.Items)).
		Msg("Playlist created")

	return playlist, nil
}

// GetPlaylist retrieves a playlist with its items and media in position order
func (s *Service) GetPlaylist(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	playlist, err := s.repos.Playlists.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	items, err := s.repos.PlaylistItems.GetWithMedia(ctx, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	playlist.Items = items
	return playlist, nil
}

// ListPlaylists retrieves all playlists without items
func (s *Service) ListPlaylists(ctx context.Context) ([]*models.Playlist, error) {
	playlists, err := s.repos.Playlists.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list playlists")
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

// UpdatePlaylist updates a playlist's behavior fields
func (s *Service) UpdatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	if strings.TrimSpace(playlist.Name) == "" {
		return ErrEmptyName
	}
	if err := s.repos.Playlists.Update(ctx, playlist); err != nil {
		if db.IsNotFound(err) {
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return nil
}

// DeletePlaylist removes a playlist and its items
func (s *Service) DeletePlaylist(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id.String()).Delete(&models.PlaylistItem{}).Error; err != nil {
			return db.MapGormError(err)
		}
		result := tx.Where("id = ?", id.String()).Delete(&models.Playlist{})
		if result.Error != nil {
			return db.MapGormError(result.Error)
		}
		if result.RowsAffected == 0 {
			return db.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if db.IsNotFound(err) {
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	logger.Log.Info().
		Str("playlist_id", id.String()).
		Msg("Playlist deleted")

	return nil
}

// AddItem appends a media record to the end of a playlist
func (s *Service) AddItem(ctx context.Context, playlistID, mediaID uuid.UUID, duration *int) (*models.PlaylistItem, error) {
	if duration != nil && *duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if _, err := s.GetMedia(ctx, mediaID); err != nil {
		return nil, err
	}

	existing, err := s.repos.PlaylistItems.GetByPlaylistID(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to add playlist item: %w", err)
	}

	item := models.NewPlaylistItem(playlistID, mediaID, len(existing)+1)
	item.Duration = duration
	if err := s.repos.PlaylistItems.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add playlist item: %w", err)
	}

	logger.Log.Info().
		Str("playlist_id", playlistID.String()).
		Str("item_id", item.ID.String()).
		Int("position", item.Position).
		Msg("Playlist item added")

	return item, nil
}

// RemoveItem deletes a playlist item and renumbers the remaining items.
// Delete and renumber run in one transaction so positions stay contiguous
// even when the renumber fails.
func (s *Service) RemoveItem(ctx context.Context, playlistID, itemID uuid.UUID) error {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND playlist_id = ?", itemID.String(), playlistID.String()).
			Delete(&models.PlaylistItem{})
		if result.Error != nil {
			return db.MapGormError(result.Error)
		}
		if result.RowsAffected == 0 {
			return db.ErrNotFound
		}

		var items []*models.PlaylistItem
		if err := tx.Where("playlist_id = ?", playlistID.String()).
			Order("position ASC").
			Find(&items).Error; err != nil {
			return db.MapGormError(err)
		}
		for i, item := range items {
			if item.Position == i+1 {
				continue
			}
			if err := tx.Model(&models.PlaylistItem{}).
				Where("id = ?", item.ID.String()).
				Update("position", i+1).Error; err != nil {
				return db.MapGormError(err)
			}
		}
		return nil
	})
	if err != nil {
		if db.IsNotFound(err) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to remove playlist item: %w", err)
	}
	return nil
}

// UpdateItemDuration changes or clears an item's duration override. Players
// hot-apply the change without restarting the item.
func (s *Service) UpdateItemDuration(ctx context.Context, itemID uuid.UUID, duration *int) error {
	if duration != nil && *duration <= 0 {
		return ErrInvalidDuration
	}

	item, err := s.repos.PlaylistItems.GetByID(ctx, itemID)
	if err != nil {
		if db.IsNotFound(err) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to update playlist item: %w", err)
	}

	err = s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&models.PlaylistItem{}).
			Where("id = ?", itemID.String()).
			Update("duration", duration).Error; err != nil {
			return db.MapGormError(err)
		}
		// Touch the playlist so list views reflect the edit time.
		return db.MapGormError(tx.Model(&models.Playlist{}).
			Where("id = ?", item.PlaylistID.String()).
			Update("updated_at", time.Now().UTC()).Error)
	})
	if err != nil {
		return fmt.Errorf("failed to update playlist item: %w", err)
	}
	return nil
}

// Reorder applies a full position reassignment to a playlist's items
func (s *Service) Reorder(ctx context.Context, playlistID uuid.UUID, items []db.ReorderItem) error {
	if err := s.repos.PlaylistItems.Reorder(ctx, playlistID, items); err != nil {
		return fmt.Errorf("failed to reorder playlist: %w", err)
	}
	return nil
}
