package devices

import "errors"

// Custom device service errors
var (
	// ErrDeviceNotFound indicates the requested device does not exist
	ErrDeviceNotFound = errors.New("device not found")

	// ErrInvalidPairingCode indicates no device matches the pairing code
	ErrInvalidPairingCode = errors.New("invalid pairing code")

	// ErrInvalidToken indicates the API token does not match any device
	ErrInvalidToken = errors.New("invalid device token")

	// ErrPlaylistNotFound indicates the playlist to assign does not exist
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// IsDeviceNotFound checks if the error is a device not found error
func IsDeviceNotFound(err error) bool {
	return errors.Is(err, ErrDeviceNotFound)
}

// IsInvalidPairingCode checks if the error is an invalid pairing code error
func IsInvalidPairingCode(err error) bool {
	return errors.Is(err, ErrInvalidPairingCode)
}

// IsInvalidToken checks if the error is an invalid token error
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

// IsPlaylistNotFound checks if the error is a playlist not found error
func IsPlaylistNotFound(err error) bool {
	return errors.Is(err, ErrPlaylistNotFound)
}
