package syncer

import (
	"fmt"
	"time"
)

// State enumerates the phases of the sync engine.
type State int

const (
	// StateIdle means no pass has run yet.
	StateIdle State = iota
	// StateSyncing means a pass is currently in flight.
	StateSyncing
	// StateSucceeded means the last pass completed. Per-item failures
	// inside a batch do not demote the pass - completion is reported,
	// detailed outcomes live in the logs.
	StateSucceeded
	// StateFailed means the last pass failed before its per-item loop
	// (unsynced-list read, or the remote fetch).
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its string form for status consumers.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// Status is the published engine state consumed by observers: the CLI,
// the daemon log, and the dashboard.
type Status struct {
	// State is the current phase.
	State State `json:"state"`

	// Detail is a short summary ("synced 3 items") for Succeeded, or
	// the failure reason for Failed.
	Detail string `json:"detail,omitempty"`

	// At is when this status was published.
	At time.Time `json:"at"`
}

// String returns a display form like "succeeded: synced 3 items".
func (s Status) String() string {
	if s.Detail == "" {
		return s.State.String()
	}
	return fmt.Sprintf("%s: %s", s.State, s.Detail)
}
