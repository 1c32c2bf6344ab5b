package models

import (
	"time"

	"github.com/google/uuid"
)

// Media source constants. Source tags mark content that did not originate
// from a file upload and overrides MIME-based classification.
const (
	MediaSourceUpload       = "upload"
	MediaSourceGoogleSlides = "google_slides"
)

// Media represents a piece of signage content
type Media struct {
	ID           uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name         string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	MimeType     string    `json:"mime_type" gorm:"type:text;column:mime_type"`
	FileType     string    `json:"file_type" gorm:"type:text;column:file_type"`
	Source       string    `json:"source" gorm:"type:text;not null;default:'upload';column:source"`
	URL          string    `json:"url" gorm:"type:text;not null;column:url" validate:"required"`
	ExternalURL  *string   `json:"external_url,omitempty" gorm:"type:text;column:external_url"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty" gorm:"type:text;column:thumbnail_url"`
	SizeBytes    int64     `json:"size_bytes" gorm:"type:integer;not null;default:0;column:size_bytes"`
	CreatedAt    time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewMedia creates a new Media with generated UUID and timestamps
func NewMedia(name, mimeType, fileType, source, url string) *Media {
	now := time.Now().UTC()
	if source == "" {
		source = MediaSourceUpload
	}
	return &Media{
		ID:        uuid.New(),
		Name:      name,
		MimeType:  mimeType,
		FileType:  fileType,
		Source:    source,
		URL:       url,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
