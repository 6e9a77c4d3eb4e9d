package main

import (
	"testing"
	"time"

	"github.com/voiceinbox/voiceinbox/internal/record"
)

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"4f1c9b2a-77aa-4f0e-9d1c-1b2e3c4d5e6f", "4f1c9b2a"},
		{"12345678", "12345678"},
		{"r1", "r1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := shortID(tt.id); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPrintRecording_ShortServerID(t *testing.T) {
	// Items fetched from the server carry opaque ids of any length.
	rec := &record.Recording{
		ID:        "r1",
		Text:      "hello from the server",
		Pending:   true,
		CreatedAt: time.Now(),
	}

	printRecording(rec)
}
