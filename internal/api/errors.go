package api

import "errors"

// Common errors returned by remote inbox operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, api.ErrNetworkUnavailable) {
//	    // Transport failed; the item stays queued for the next pass
//	}
var (
	// ErrNetworkUnavailable is returned when the request never produced
	// an HTTP response (DNS failure, refused connection, timeout).
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrServerRejected is returned when the service answered with a
	// non-success status. The wrapped message carries the response body.
	ErrServerRejected = errors.New("server rejected request")

	// ErrDecoding is returned when a response arrived but its body
	// could not be parsed.
	ErrDecoding = errors.New("failed to decode server response")
)

// IsRetryable reports whether the error is worth retrying on a later
// sync pass. All remote failures are retryable from the engine's point
// of view - the unsynced flag stays set and the next cycle tries again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrServerRejected) ||
		errors.Is(err, ErrDecoding)
}
