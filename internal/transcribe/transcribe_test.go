package transcribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/voiceinbox/voiceinbox/internal/api"
)

// fakeTranscriber returns a fixed transcript or error.
type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	chain := NewChain(
		&fakeTranscriber{text: "local transcript"},
		&fakeTranscriber{text: "remote transcript"},
	)

	text, err := chain.Transcribe(context.Background(), "a.m4a")
	if err != nil {
		t.Fatalf("Transcribe() failed: %v", err)
	}
	if text != "local transcript" {
		t.Errorf("Transcribe() = %q, want the first transcriber's output", text)
	}
}

func TestChain_FallsBack(t *testing.T) {
	chain := NewChain(
		&fakeTranscriber{err: errors.New("model not loaded")},
		&fakeTranscriber{text: "remote transcript"},
	)

	text, err := chain.Transcribe(context.Background(), "a.m4a")
	if err != nil {
		t.Fatalf("Transcribe() failed: %v", err)
	}
	if text != "remote transcript" {
		t.Errorf("Transcribe() = %q, want fallback output", text)
	}
}

func TestChain_SkipsEmptyTranscripts(t *testing.T) {
	chain := NewChain(
		&fakeTranscriber{text: "   "},
		&fakeTranscriber{text: "real transcript"},
	)

	text, err := chain.Transcribe(context.Background(), "a.m4a")
	if err != nil {
		t.Fatalf("Transcribe() failed: %v", err)
	}
	if text != "real transcript" {
		t.Errorf("Transcribe() = %q, want %q", text, "real transcript")
	}
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain(
		&fakeTranscriber{err: errors.New("no model")},
		&fakeTranscriber{err: ErrMissingCredential},
	)

	_, err := chain.Transcribe(context.Background(), "a.m4a")
	if !errors.Is(err, ErrNoTranscriber) {
		t.Errorf("Transcribe() error = %v, want ErrNoTranscriber", err)
	}
	// The underlying causes stay inspectable.
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("aggregate error lost the cause: %v", err)
	}
}

func TestChain_Empty(t *testing.T) {
	chain := NewChain(nil, nil)

	_, err := chain.Transcribe(context.Background(), "a.m4a")
	if !errors.Is(err, ErrNoTranscriber) {
		t.Errorf("empty chain error = %v, want ErrNoTranscriber", err)
	}
}

func TestNewLocal_MissingBinary(t *testing.T) {
	if l := NewLocal("definitely-not-a-real-binary-xyz", ""); l != nil {
		t.Error("NewLocal() should return nil for a binary not on PATH")
	}
	if l := NewLocal("", ""); l != nil {
		t.Error("NewLocal() should return nil for an empty binary name")
	}
}

func TestRemote_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		io.WriteString(w, `{"text":"hello from the server"}`)
	}))
	defer srv.Close()

	audioPath := filepath.Join(t.TempDir(), "note.m4a")
	if err := os.WriteFile(audioPath, []byte{0x01, 0x02}, 0644); err != nil {
		t.Fatalf("failed to write audio fixture: %v", err)
	}

	remote := NewRemote(api.New(srv.URL, nil))
	text, err := remote.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe() failed: %v", err)
	}
	if text != "hello from the server" {
		t.Errorf("Transcribe() = %q", text)
	}
}

func TestRemote_Unconfigured(t *testing.T) {
	remote := NewRemote(nil)

	_, err := remote.Transcribe(context.Background(), "a.m4a")
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Transcribe() error = %v, want ErrMissingCredential", err)
	}
}

func TestRemote_MissingFile(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	remote := NewRemote(api.New(srv.URL, nil))
	_, err := remote.Transcribe(context.Background(), filepath.Join(t.TempDir(), "ghost.m4a"))
	if err == nil {
		t.Error("Transcribe() should fail for a missing audio file")
	}
}
