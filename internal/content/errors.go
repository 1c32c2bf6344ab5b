package content

import "errors"

// Custom content service errors
var (
	// ErrPlaylistNotFound indicates the requested playlist does not exist
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrMediaNotFound indicates the requested media does not exist
	ErrMediaNotFound = errors.New("media not found")

	// ErrItemNotFound indicates the requested playlist item does not exist
	ErrItemNotFound = errors.New("playlist item not found")

	// ErrEmptyName indicates a required name was missing
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyURL indicates media was submitted without a playable URL
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrInvalidDuration indicates a non-positive duration override
	ErrInvalidDuration = errors.New("duration must be positive")
)

// IsPlaylistNotFound checks if the error is a playlist not found error
func IsPlaylistNotFound(err error) bool {
	return errors.Is(err, ErrPlaylistNotFound)
}

// IsMediaNotFound checks if the error is a media not found error
func IsMediaNotFound(err error) bool {
	return errors.Is(err, ErrMediaNotFound)
}

// IsItemNotFound checks if the error is a playlist item not found error
func IsItemNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}
