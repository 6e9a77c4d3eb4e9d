package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Local runs a whisper-compatible transcription binary on the host.
//
// The binary is invoked as: <binary> [extra args...] -f <audio file> with
// the transcript expected on stdout. whisper.cpp's whisper-cli follows
// this convention with --no-prints --output-txt omitted.
type Local struct {
	// Binary is the executable name or path (e.g. "whisper-cli").
	Binary string

	// Model is an optional model file passed as -m <model>.
	Model string

	// Args are extra arguments inserted before the file flag.
	Args []string

	// Timeout bounds a single transcription run. Zero means 120s.
	Timeout time.Duration
}

// NewLocal creates a Local transcriber for the given binary and model.
// Returns nil (no local transcriber) if the binary is not on PATH, so
// the result can be passed straight to NewChain.
func NewLocal(binary, model string) *Local {
	if binary == "" {
		return nil
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil
	}
	return &Local{Binary: binary, Model: model}
}

// Transcribe implements Transcriber by shelling out to the binary.
func (l *Local) Transcribe(ctx context.Context, path string) (string, error) {
	timeout := l.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{}, l.Args...)
	if l.Model != "" {
		args = append(args, "-m", l.Model)
	}
	args = append(args, "-f", path)

	cmd := exec.CommandContext(ctx, l.Binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Include stderr in error message for debugging
		if stderr.Len() > 0 {
			return "", fmt.Errorf("local transcription failed: %w: %s",
				err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("local transcription failed: %w", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
