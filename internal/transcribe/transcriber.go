// Package transcribe converts captured audio into text.
//
// Transcription is local-first: a whisper-compatible command line tool is
// tried before falling back to the remote inbox service's /transcribe
// endpoint. Both sit behind the same Transcriber interface so the capture
// path does not care which one produced the transcript.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by transcribers.
var (
	// ErrMissingCredential is returned when the fallback path is
	// unusable because it has not been configured (no remote endpoint).
	ErrMissingCredential = errors.New("remote transcription not configured")

	// ErrNoTranscriber is returned when no transcriber in a chain could
	// produce a transcript.
	ErrNoTranscriber = errors.New("no usable transcriber")
)

// Transcriber converts an audio file into text.
type Transcriber interface {
	// Transcribe returns the transcript for the audio file at path.
	Transcribe(ctx context.Context, path string) (string, error)
}

// Chain tries each transcriber in order and returns the first transcript.
//
// Failures are collected; if every transcriber fails the aggregate error
// wraps ErrNoTranscriber so callers can classify it.
type Chain struct {
	transcribers []Transcriber
}

// NewChain builds a chain from the given transcribers. Nil entries are
// skipped.
func NewChain(transcribers ...Transcriber) *Chain {
	var ts []Transcriber
	for _, t := range transcribers {
		if t != nil {
			ts = append(ts, t)
		}
	}
	return &Chain{transcribers: ts}
}

// Transcribe implements Transcriber.
func (c *Chain) Transcribe(ctx context.Context, path string) (string, error) {
	if len(c.transcribers) == 0 {
		return "", ErrNoTranscriber
	}

	var errs []error
	for _, t := range c.transcribers {
		text, err := t.Transcribe(ctx, path)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				errs = append(errs, fmt.Errorf("empty transcript for %s", path))
				continue
			}
			return text, nil
		}
		errs = append(errs, err)
	}

	return "", fmt.Errorf("%w: %w", ErrNoTranscriber, errors.Join(errs...))
}
