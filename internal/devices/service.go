// Package devices implements the server-side device lifecycle: pairing,
// playlist assignment, heartbeat ingestion, and the offline sweep that
// flips devices whose heartbeats stop arriving.
package devices

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kwrenn/signet/internal/db"
	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/models"
)

// Pairing codes skip easily-confused characters (0/O, 1/I/L).
const (
	pairingCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	pairingCodeLength   = 6
)

const defaultSweepInterval = 30 * time.Second

// Heartbeat carries the playback status a device reports
type Heartbeat struct {
	Status      string  `json:"status"`
	CurrentItem string  `json:"currentItem,omitempty"`
	Progress    float64 `json:"progress"`
}

// Service handles business logic for device operations
type Service struct {
	repos *db.Repositories

	// OfflineThreshold is how long a device may go without a heartbeat
	// before the sweep marks it offline.
	offlineThreshold time.Duration
	sweepInterval    time.Duration

	sweepTicker *time.Ticker
	stopChan    chan struct{}
	sweepDone   chan struct{}
	mu          sync.Mutex
	stopped     bool
}

// NewService creates a new device service instance
func NewService(repos *db.Repositories, offlineThreshold time.Duration) *Service {
	if offlineThreshold <= 0 {
		offlineThreshold = 90 * time.Second
	}
	return &Service{
		repos:            repos,
		offlineThreshold: offlineThreshold,
		sweepInterval:    defaultSweepInterval,
		stopChan:         make(chan struct{}),
		sweepDone:        make(chan struct{}),
	}
}

// Start launches the background offline sweep
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.sweepTicker != nil {
		return
	}
	s.sweepTicker = time.NewTicker(s.sweepInterval)
	go s.runSweepLoop()

	logger.Log.Info().
		Dur("offline_threshold", s.offlineThreshold).
		Dur("sweep_interval", s.sweepInterval).
		Msg("Device service started")
}

// Stop gracefully shuts down the device service
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	ticker := s.sweepTicker
	s.mu.Unlock()

	close(s.stopChan)
	if ticker != nil {
		<-s.sweepDone
		ticker.Stop()
	}

	logger.Log.Info().Msg("Device service stopped")
}

// CreateDevice provisions a device record with a fresh pairing code. The
// device stays offline until a player registers with the code.
func (s *Service) CreateDevice(ctx context.Context, name string) (*models.Device, error) {
	code, err := generatePairingCode()
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	device := models.NewDevice(name, code)
	if err := s.repos.Devices.Create(ctx, device); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to create device in database")
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	logger.Log.Info().
		Str("device_id", device.ID.String()).
		Str("name", device.Name).
		Msg("Device created")

	return device, nil
}

// Register exchanges a pairing code for the device identity. The API token
// is rotated on every successful registration so a leaked code cannot
// resurrect an old credential.
func (s *Service) Register(ctx context.Context, pairingCode, name string) (*models.Device, error) {
	device, err := s.repos.Devices.GetByPairingCode(ctx, pairingCode)
	if err != nil {
		if db.IsNotFound(err) {
			logger.Log.Warn().
				Str("pairing_code", pairingCode).
				Msg("Registration attempt with unknown pairing code")
			return nil, ErrInvalidPairingCode
		}
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	device.APIToken = uuid.NewString()
	if name != "" {
		device.Name = name
	}
	if err := s.repos.Devices.UpdateRegistration(ctx, device); err != nil {
		logger.Log.Error().
			Err(err).
			Str("device_id", device.ID.String()).
			Msg("Failed to persist device registration")
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	logger.Log.Info().
		Str("device_id", device.ID.String()).
		Str("name", device.Name).
		Msg("Device registered")

	return device, nil
}

// Authenticate resolves an API token to its device
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Device, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	device, err := s.repos.Devices.GetByToken(ctx, token)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to authenticate device: %w", err)
	}
	return device, nil
}

// GetByID retrieves a device by its ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	device, err := s.repos.Devices.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrDeviceNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("device_id", id.String()).
			Msg("Failed to get device by ID")
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return device, nil
}

// List retrieves all devices
func (s *Service) List(ctx context.Context) ([]*models.Device, error) {
	devicesList, err := s.repos.Devices.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list devices")
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devicesList, nil
}

// AssignPlaylist points the device at a playlist, or clears the assignment
// when playlistID is nil. Players pick the change up on their next poll.
func (s *Service) AssignPlaylist(ctx context.Context, deviceID uuid.UUID, playlistID *uuid.UUID) error {
	if playlistID != nil {
		if _, err := s.repos.Playlists.GetByID(ctx, *playlistID); err != nil {
			if db.IsNotFound(err) {
				return ErrPlaylistNotFound
			}
			return fmt.Errorf("failed to assign playlist: %w", err)
		}
	}

	if err := s.repos.Devices.AssignPlaylist(ctx, deviceID, playlistID); err != nil {
		if db.IsNotFound(err) {
			return ErrDeviceNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("device_id", deviceID.String()).
			Msg("Failed to assign playlist")
		return fmt.Errorf("failed to assign playlist: %w", err)
	}

	logger.Log.Info().
		Str("device_id", deviceID.String()).
		Bool("assigned", playlistID != nil).
		Msg("Device playlist assignment changed")

	return nil
}

// AssignedPlaylist returns the device's playlist with items and media in
// position order, or nil when nothing is assigned.
func (s *Service) AssignedPlaylist(ctx context.Context, deviceID uuid.UUID) (*models.Playlist, error) {
	device, err := s.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.PlaylistID == nil {
		return nil, nil
	}

	playlist, err := s.repos.Playlists.GetByID(ctx, *device.PlaylistID)
	if err != nil {
		if db.IsNotFound(err) {
			// Assignment points at a deleted playlist; treat as unassigned.
			logger.Log.Warn().
				Str("device_id", deviceID.String()).
				Str("playlist_id", device.PlaylistID.String()).
				Msg("Device assigned to missing playlist")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load assigned playlist: %w", err)
	}

	items, err := s.repos.PlaylistItems.GetWithMedia(ctx, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned playlist: %w", err)
	}
	playlist.Items = items
	return playlist, nil
}

// RecordHeartbeat ingests a device heartbeat: the reported playback status
// is stored and the device is marked online.
func (s *Service) RecordHeartbeat(ctx context.Context, deviceID uuid.UUID, hb Heartbeat) error {
	status := hb.Status
	if status == "" {
		status = "idle"
	}

	if err := s.repos.Devices.RecordHeartbeat(ctx, deviceID, status, time.Now().UTC()); err != nil {
		if db.IsNotFound(err) {
			return ErrDeviceNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("device_id", deviceID.String()).
			Msg("Failed to record heartbeat")
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}

	logger.Log.Debug().
		Str("device_id", deviceID.String()).
		Str("status", status).
		Float64("progress", hb.Progress).
		Msg("Heartbeat recorded")

	return nil
}

// Delete removes a device
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Devices.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}

// runSweepLoop periodically flips silent devices to the offline state
func (s *Service) runSweepLoop() {
	defer close(s.sweepDone)

	logger.Log.Debug().Msg("Offline sweep loop started")

	for {
		select {
		case <-s.stopChan:
			logger.Log.Debug().Msg("Offline sweep loop stopping")
			return
		case <-s.sweepTicker.C:
			s.sweepOffline()
		}
	}
}

func (s *Service) sweepOffline() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.offlineThreshold)
	count, err := s.repos.Devices.MarkOfflineBefore(ctx, cutoff)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Offline sweep failed")
		return
	}
	if count > 0 {
		logger.Log.Info().
			Int64("count", count).
			Dur("threshold", s.offlineThreshold).
			Msg("Devices marked offline")
	}
}

// generatePairingCode returns a short human-enterable code
func generatePairingCode() (string, error) {
	buf := make([]byte, pairingCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate pairing code: %w", err)
	}
	code := make([]byte, pairingCodeLength)
	for i, b := range buf {
		code[i] = pairingCodeAlphabet[int(b)%len(pairingCodeAlphabet)]
	}
	return string(code), nil
}
