// Package syncer reconciles the local recording store with the remote
// inbox service.
package syncer

import (
	"context"

	"github.com/voiceinbox/voiceinbox/internal/record"
)

// Syncer pushes unsynced recordings to the remote service and observes
// the remote list.
//
// The syncer is resilient - individual item failures do not stop a push
// pass. Failures are logged, the item keeps its unsynced flag, and the
// next pass tries again. Both operations share a single busy guard:
// at most one pass of any kind runs at a time, and overlapping callers
// are dropped with ErrBusy rather than queued.
type Syncer interface {
	// Synchronize runs one push pass.
	//
	// It reads the unsynced recordings once, uploads each in turn, and
	// marks successes synced. Per-item failures are swallowed at this
	// boundary; only a failure of the unsynced-list read itself fails
	// the pass.
	//
	// Returns ErrBusy immediately if another pass is in flight.
	//
	// Example:
	//   if err := engine.Synchronize(ctx); err != nil && !errors.Is(err, syncer.ErrBusy) {
	//       log.Printf("sync failed: %v", err)
	//   }
	Synchronize(ctx context.Context) error

	// FetchFromServer runs one pull pass and returns the remote list.
	//
	// The fetched recordings are observation only; nothing is merged
	// into the local store. Shares the busy guard with Synchronize so
	// a push and a pull can never interleave.
	//
	// Returns ErrBusy immediately if another pass is in flight.
	FetchFromServer(ctx context.Context) ([]*record.Recording, error)

	// Status returns the latest published status.
	Status() Status

	// Subscribe registers an observer for status transitions.
	//
	// The returned cancel function must be called to release the
	// subscription. Slow consumers miss intermediate transitions
	// rather than blocking a pass.
	Subscribe() (<-chan Status, func())
}
