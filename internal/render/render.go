// Package render provides renderer adapters for the playback engine. Each
// adapter mounts the current item on one surface and forwards completion
// and failure events back into the engine; the engine itself stays
// surface-agnostic.
package render

// Events is the back-channel from a renderer adapter into the playback
// engine. The engine satisfies this interface.
type Events interface {
	MediaReady()
	MediaEnded()
	MediaFailed(err error)
	MediaProgress(position, duration float64)
}
