// Package syncer provides the offline-first synchronization engine between
// the local recording store and the remote inbox service.
//
// Overview
//
// Recordings are captured and persisted locally first; the engine pushes
// them to the remote service whenever connectivity allows:
//
//	Capture (transcribe + insert)
//	     ↓
//	Local Store (recordings, synced=0)
//	     ↓  ListUnsynced
//	  Engine ──upload──→ Remote Inbox (POST /inbox)
//	     ↓  MarkSynced on success
//	Local Store (synced=1)
//
// Usage
//
// Basic usage:
//
//	st := store.New("~/.voiceinbox/voiceinbox.db", nil)
//	defer st.Close()
//
//	client := api.New("https://inbox.example.com", nil)
//	engine := syncer.New(st, client, nil)
//
//	if err := engine.Synchronize(ctx); err != nil && !errors.Is(err, syncer.ErrBusy) {
//	    return err
//	}
//
// Error Handling
//
// The engine is resilient to individual item failures:
//
//   - A failed upload is logged; the item keeps synced=0 and is retried
//     on the next pass. The batch continues with the remaining items.
//   - Only a failure of the unsynced-list read (or of the remote fetch
//     in FetchFromServer) fails the whole pass.
//   - Stuck items remain unsynced indefinitely until an upload succeeds
//     or the user edits them.
//
// Concurrency
//
// At most one pass runs at a time. Synchronize and FetchFromServer share
// one atomic busy flag; an overlapping caller gets ErrBusy immediately
// instead of queueing. MarkSynced is idempotent but Upload is not, so
// the single-flight guarantee is what prevents duplicate inbox entries.
// Items within a pass are uploaded sequentially - the engine operates on
// the unsynced snapshot taken at the start of the pass.
//
// Scheduling is external: the daemon invokes Synchronize once at
// startup, on a fixed period (default 300s), and whenever a new capture
// lands. The engine itself holds no timers.
//
// Status Observation
//
// The latest Status is available by polling Status() or by subscription:
//
//	ch, cancel := engine.Subscribe()
//	defer cancel()
//	for status := range ch {
//	    log.Printf("sync: %s", status)
//	}
package syncer
