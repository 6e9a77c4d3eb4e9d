// Package api provides the HTTP client for the remote inbox service.
//
// The client is stateless and deliberately policy-free: no retries, no
// backoff, no timeouts beyond the transport default. All retry policy
// lives in the sync engine, which decides when an item is attempted
// again.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/voiceinbox/voiceinbox/internal/record"
)

// audioFieldName and audioFileName follow the service's multipart
// conventions: the audio part is always named "audio" with filename
// "recording.m4a" and content type audio/m4a.
const (
	audioFieldName = "audio"
	audioFileName  = "recording.m4a"
	audioMIMEType  = "audio/m4a"
)

// Client talks to the remote inbox service.
type Client struct {
	rest   *resty.Client
	logger *log.Logger
}

// New creates a Client for the service at baseURL.
//
// If logger is nil, a default logger writing to stderr is used.
func New(baseURL string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}

	rest := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(60 * time.Second)

	return &Client{rest: rest, logger: logger}
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.rest.BaseURL
}

// Upload sends a recording's text and raw audio bytes to POST /inbox as
// a single multipart request. Success is an explicit 200 or 201; any
// other status surfaces as ErrServerRejected carrying the response body.
//
// When audio is empty the audio part is omitted entirely and only the
// text field is sent. A recording with no resolvable audio payload is
// still uploaded - it is never silently dropped from sync.
func (c *Client) Upload(ctx context.Context, rec *record.Recording, audio []byte) error {
	req := c.rest.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"text": rec.Text})

	if len(audio) > 0 {
		req.SetMultipartField(audioFieldName, audioFileName, audioMIMEType, bytes.NewReader(audio))
	}

	resp, err := req.Post("/inbox")
	if err != nil {
		return fmt.Errorf("%w: upload %s: %v", ErrNetworkUnavailable, rec.ID, err)
	}

	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return fmt.Errorf("%w: status %d: %s",
			ErrServerRejected, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return nil
}

// FetchRemote retrieves the service's current recording list from
// GET /items. A malformed response body surfaces as ErrDecoding,
// distinct from transport failures and rejections.
func (c *Client) FetchRemote(ctx context.Context) ([]*record.Recording, error) {
	resp, err := c.rest.R().SetContext(ctx).Get("/items")
	if err != nil {
		return nil, fmt.Errorf("%w: fetch items: %v", ErrNetworkUnavailable, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: status %d: %s",
			ErrServerRejected, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var items []*record.Recording
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	return items, nil
}

// TranscribeRemote sends audio bytes to POST /transcribe for
// server-side transcription and returns the transcript text.
func (c *Client) TranscribeRemote(ctx context.Context, audio []byte) (string, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetMultipartField(audioFieldName, audioFileName, audioMIMEType, bytes.NewReader(audio)).
		Post("/transcribe")
	if err != nil {
		return "", fmt.Errorf("%w: transcribe: %v", ErrNetworkUnavailable, err)
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: status %d: %s",
			ErrServerRejected, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	return body.Text, nil
}
