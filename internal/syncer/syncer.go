package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voiceinbox/voiceinbox/internal/api"
	"github.com/voiceinbox/voiceinbox/internal/record"
	"github.com/voiceinbox/voiceinbox/internal/store"
)

// ErrBusy is returned when a pass is already in flight. Callers treat
// it as a benign no-op: the running pass covers their request.
var ErrBusy = errors.New("sync already in progress")

// Engine implements Syncer against a local store and a remote client.
type Engine struct {
	store  *store.Store
	client *api.Client
	logger *log.Logger

	// busy is the single-flight guard shared by Synchronize and
	// FetchFromServer. Upload is not idempotent, so at-most-one-flight
	// is a hard requirement, not an optimization.
	busy atomic.Bool

	mu     sync.Mutex
	status Status
	subs   map[chan Status]struct{}
}

// New creates a sync engine.
//
// The store must have been constructed (it may be degraded - the engine
// surfaces that as pass failures). If logger is nil, a default logger
// writing to stderr is used.
//
// Example:
//
//	st := store.New(dbPath, nil)
//	client := api.New(serverURL, nil)
//	engine := syncer.New(st, client, nil)
func New(st *store.Store, client *api.Client, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Engine{
		store:  st,
		client: client,
		logger: logger,
		status: Status{State: StateIdle, At: time.Now()},
		subs:   make(map[chan Status]struct{}),
	}
}

// Synchronize implements Syncer.Synchronize.
func (e *Engine) Synchronize(ctx context.Context) error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	// Cleared unconditionally: a stuck busy flag permanently wedges
	// the engine.
	defer e.busy.Store(false)

	e.publish(StateSyncing, "")

	unsynced, err := e.store.ListUnsyncedContext(ctx)
	if err != nil {
		e.logger.Printf("Sync pass aborted: %v", err)
		e.publish(StateFailed, err.Error())
		return err
	}

	if len(unsynced) == 0 {
		e.publish(StateSucceeded, "no items to sync")
		return nil
	}

	e.logger.Printf("Syncing %d recordings", len(unsynced))

	// Items are pushed sequentially and independently; one failure
	// never aborts the batch.
	for _, rec := range unsynced {
		if err := e.pushOne(ctx, rec); err != nil {
			e.logger.Printf("Failed to sync recording %s: %v", rec.ID, err)
			continue
		}
	}

	// The pass reports batch completion; per-item outcomes are in the
	// logs. Items that failed stay unsynced for the next cycle.
	e.publish(StateSucceeded, fmt.Sprintf("synced %d items", len(unsynced)))
	return nil
}

// pushOne uploads one recording and marks it synced on success.
func (e *Engine) pushOne(ctx context.Context, rec *record.Recording) error {
	audio := e.resolveAudio(rec)

	if err := e.client.Upload(ctx, rec, audio); err != nil {
		return err
	}

	if err := e.store.MarkSyncedContext(ctx, rec.ID); err != nil {
		// The upload landed but the flag didn't stick; the item will
		// be re-uploaded next pass, which the service tolerates.
		return fmt.Errorf("uploaded but not marked synced: %w", err)
	}

	return nil
}

// resolveAudio loads the recording's audio bytes best-effort. A missing
// or remote (URL) artifact yields nil: the recording is still uploaded
// with its text and the audio part omitted.
func (e *Engine) resolveAudio(rec *record.Recording) []byte {
	if rec.AudioPath == "" {
		return nil
	}
	if strings.HasPrefix(rec.AudioPath, "http://") || strings.HasPrefix(rec.AudioPath, "https://") {
		return nil
	}

	audio, err := os.ReadFile(rec.AudioPath)
	if err != nil {
		e.logger.Printf("Audio for %s unreadable, uploading text only: %v", rec.ID, err)
		return nil
	}
	return audio
}

// FetchFromServer implements Syncer.FetchFromServer.
//
// The fetched items are returned for display only. Merging them into the
// local store is intentionally not done here - local recordings are the
// source of truth for this device.
func (e *Engine) FetchFromServer(ctx context.Context) ([]*record.Recording, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer e.busy.Store(false)

	e.publish(StateSyncing, "")

	items, err := e.client.FetchRemote(ctx)
	if err != nil {
		e.logger.Printf("Fetch pass failed: %v", err)
		e.publish(StateFailed, err.Error())
		return nil, err
	}

	e.logger.Printf("Fetched %d recordings from server", len(items))
	e.publish(StateSucceeded, fmt.Sprintf("fetched %d items", len(items)))
	return items, nil
}

// Status implements Syncer.Status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Subscribe implements Syncer.Subscribe.
func (e *Engine) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 16)

	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}

	return ch, cancel
}

// publish records a status transition and fans it out to subscribers.
// Sends never block: a full subscriber channel drops the update.
func (e *Engine) publish(state State, detail string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.status = Status{State: state, Detail: detail, At: time.Now()}
	for ch := range e.subs {
		select {
		case ch <- e.status:
		default:
		}
	}
}
