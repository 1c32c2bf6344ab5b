// Package media provides centralized playback-kind classification for
// signage content, mapping MIME/file-type/source metadata onto the handful
// of kinds the playback engine knows how to sequence.
package media

import (
	"strings"
	"time"

	"github.com/kwrenn/signet/internal/models"
)

// Kind represents the playback category of a media record.
type Kind int

const (
	KindUnsupported Kind = iota
	KindImage
	KindVideo
	KindAudio
	KindSlides
	KindPDF
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSlides:
		return "slides"
	case KindPDF:
		return "pdf"
	default:
		return "unsupported"
	}
}

// Timed reports whether the kind advances on a duration timer rather than a
// natural end event.
func (k Kind) Timed() bool {
	return !k.Natural()
}

// Natural reports whether the kind completes via the media element's own end
// event (declared durations are ignored for these kinds).
func (k Kind) Natural() bool {
	return k == KindVideo || k == KindAudio
}

// Per-kind default durations for timed kinds. PDF and unsupported content
// advance on a timer like images do.
const (
	DefaultImageDuration  = 8 * time.Second
	DefaultSlidesDuration = 60 * time.Second
)

// ContentRef carries the classification-determining fields of a media record.
type ContentRef struct {
	MimeType string
	FileType string
	Source   string
}

// Classify maps content metadata to a playback kind. It is total and
// deterministic: every input yields a kind, unknown content falls back to
// KindUnsupported.
//
// Precedence: source tag beats MIME type beats file type. The google_slides
// source tag wins regardless of any declared MIME type because slide embeds
// are stored with the MIME type of their thumbnail.
func Classify(ref ContentRef) Kind {
	if strings.EqualFold(ref.Source, models.MediaSourceGoogleSlides) {
		return KindSlides
	}

	mime := strings.ToLower(ref.MimeType)
	fileType := strings.ToLower(ref.FileType)

	switch {
	case strings.HasPrefix(mime, "video/") || strings.HasPrefix(fileType, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/") || strings.HasPrefix(fileType, "audio/"):
		return KindAudio
	case strings.Contains(mime, "pdf") || strings.Contains(fileType, "pdf"):
		return KindPDF
	case strings.HasPrefix(mime, "image/") || strings.HasPrefix(fileType, "image/"):
		return KindImage
	default:
		return KindUnsupported
	}
}

// ClassifyMedia classifies a media record.
func ClassifyMedia(m *models.Media) Kind {
	if m == nil {
		return KindUnsupported
	}
	return Classify(ContentRef{MimeType: m.MimeType, FileType: m.FileType, Source: m.Source})
}

// EffectiveDuration returns the per-item duration used for timing: the
// explicit override when present, else the kind-specific default. Natural
// kinds return 0 because their end event drives the advance.
func EffectiveDuration(override *int, kind Kind) time.Duration {
	if kind.Natural() {
		return 0
	}
	if override != nil && *override > 0 {
		return time.Duration(*override) * time.Second
	}
	if kind == KindSlides {
		return DefaultSlidesDuration
	}
	return DefaultImageDuration
}
