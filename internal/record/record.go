// Package record provides the data structures for voice inbox recordings.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recording represents a single captured voice memo.
//
// The structure doubles as the wire format for the remote inbox service:
// GET /items returns a JSON array of these objects. The store-internal
// synced flag is deliberately NOT part of this value - sync bookkeeping
// belongs to the store, not to the recording itself.
type Recording struct {
	// ID is the globally unique identifier, assigned at creation.
	ID string `json:"id"`

	// Text is the transcribed content. Immutable once set.
	Text string `json:"text"`

	// AudioPath is an optional reference to the source audio artifact.
	// Locally this is a filesystem path; items fetched from the server
	// carry a URL here instead. Empty if the audio was discarded after
	// transcription.
	AudioPath string `json:"audio_url,omitempty"`

	// Tag is an optional user-assigned label.
	Tag string `json:"tag,omitempty"`

	// Pending marks a recording that still needs user attention.
	// Independent of sync state.
	Pending bool `json:"pending"`

	// CreatedAt orders recordings newest-first for display.
	CreatedAt time.Time `json:"created_at"`
}

// New creates a Recording with a fresh UUID, pending set, and the
// creation timestamp taken from the clock.
func New(text, audioPath string) *Recording {
	return &Recording{
		ID:        uuid.NewString(),
		Text:      text,
		AudioPath: audioPath,
		Pending:   true,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks that the Recording has valid field values.
func (r *Recording) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Text == "" {
		return fmt.Errorf("text is required")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	return nil
}

// Summary returns a short display form of the transcript, truncated to
// max runes with an ellipsis.
func (r *Recording) Summary(max int) string {
	if max < 0 {
		max = 0
	}
	runes := []rune(r.Text)
	if len(runes) <= max {
		return r.Text
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
