package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kwrenn/signet/internal/models"
)

// DeviceRepository handles database operations for devices
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create inserts a new device into the database
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	result := r.db.WithContext(ctx).Create(device)
	if result.Error != nil {
		return fmt.Errorf("failed to create device: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a device by its UUID
func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	var device models.Device
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&device)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &device, nil
}

// GetByPairingCode retrieves a device by its pairing code
func (r *DeviceRepository) GetByPairingCode(ctx context.Context, code string) (*models.Device, error) {
	var device models.Device
	result := r.db.WithContext(ctx).Where("pairing_code = ?", code).First(&device)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &device, nil
}

// GetByToken retrieves a device by its API token
func (r *DeviceRepository) GetByToken(ctx context.Context, token string) (*models.Device, error) {
	var device models.Device
	result := r.db.WithContext(ctx).Where("api_token = ?", token).First(&device)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &device, nil
}

// List retrieves all devices ordered by creation date (newest first)
func (r *DeviceRepository) List(ctx context.Context) ([]*models.Device, error) {
	var devices []*models.Device
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&devices)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list devices: %w", MapGormError(result.Error))
	}
	return devices, nil
}

// Update updates an existing device's editable fields
func (r *DeviceRepository) Update(ctx context.Context, device *models.Device) error {
	device.UpdatedAt = time.Now().UTC()

	// Use Select to explicitly update all fields including zero values
	result := r.db.WithContext(ctx).
		Where("id = ?", device.ID.String()).
		Select("name", "playlist_id", "updated_at").
		Updates(device)
	if result.Error != nil {
		return fmt.Errorf("failed to update device: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRegistration persists the fields touched by pairing: the rotated
// API token and the optional name supplied by the player
func (r *DeviceRepository) UpdateRegistration(ctx context.Context, device *models.Device) error {
	device.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", device.ID.String()).
		Select("api_token", "name", "updated_at").
		Updates(device)
	if result.Error != nil {
		return fmt.Errorf("failed to update device registration: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignPlaylist sets or clears the device's playlist assignment
func (r *DeviceRepository) AssignPlaylist(ctx context.Context, deviceID uuid.UUID, playlistID *uuid.UUID) error {
	updates := map[string]interface{}{
		"playlist_id": nil,
		"updated_at":  time.Now().UTC(),
	}
	if playlistID != nil {
		updates["playlist_id"] = playlistID.String()
	}

	result := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", deviceID.String()).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to assign playlist: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordHeartbeat stores the reported playback status and marks the device
// online with a fresh last-seen timestamp
func (r *DeviceRepository) RecordHeartbeat(ctx context.Context, deviceID uuid.UUID, status string, seenAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", deviceID.String()).
		Updates(map[string]interface{}{
			"status":       status,
			"state":        models.DeviceStateOnline,
			"last_seen_at": seenAt,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to record heartbeat: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOfflineBefore flips devices whose last heartbeat predates the cutoff
// to the offline state. Returns the number of devices transitioned.
func (r *DeviceRepository) MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("state = ? AND (last_seen_at IS NULL OR last_seen_at < ?)", models.DeviceStateOnline, cutoff).
		Updates(map[string]interface{}{
			"state":      models.DeviceStateOffline,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark devices offline: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

// CountByState returns how many devices are in the given state, and the
// fleet total.
func (r *DeviceRepository) CountByState(ctx context.Context, state string) (inState, total int64, err error) {
	result := r.db.WithContext(ctx).Model(&models.Device{}).Count(&total)
	if result.Error != nil {
		return 0, 0, fmt.Errorf("failed to count devices: %w", MapGormError(result.Error))
	}
	result = r.db.WithContext(ctx).Model(&models.Device{}).Where("state = ?", state).Count(&inState)
	if result.Error != nil {
		return 0, 0, fmt.Errorf("failed to count devices: %w", MapGormError(result.Error))
	}
	return inState, total, nil
}

// Delete deletes a device by its UUID
func (r *DeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Device{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete device: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
