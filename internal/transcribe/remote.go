package transcribe

import (
	"context"
	"fmt"
	"os"

	"github.com/voiceinbox/voiceinbox/internal/api"
)

// Remote transcribes audio through the inbox service's /transcribe
// endpoint. It is the fallback when no local model is available.
type Remote struct {
	client *api.Client
}

// NewRemote creates a Remote transcriber backed by the given client.
// A nil client is allowed; Transcribe then fails with
// ErrMissingCredential.
func NewRemote(client *api.Client) *Remote {
	return &Remote{client: client}
}

// Transcribe implements Transcriber.
func (r *Remote) Transcribe(ctx context.Context, path string) (string, error) {
	if r.client == nil {
		return "", ErrMissingCredential
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file %s: %w", path, err)
	}

	return r.client.TranscribeRemote(ctx, audio)
}
