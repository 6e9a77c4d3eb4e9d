// Package daemon provides the long-running driver that feeds the sync engine.
//
// The daemon:
// 1. Runs an initial sync pass at startup
// 2. Triggers a sync pass on a fixed period
// 3. Watches a drop directory for finished audio files
// 4. Transcribes, tags, and persists new captures
// 5. Handles graceful shutdown
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/voiceinbox/voiceinbox/internal/classify"
	"github.com/voiceinbox/voiceinbox/internal/record"
	"github.com/voiceinbox/voiceinbox/internal/store"
	"github.com/voiceinbox/voiceinbox/internal/syncer"
	"github.com/voiceinbox/voiceinbox/internal/transcribe"
)

// audioExtensions lists the file types picked up from the drop directory.
var audioExtensions = map[string]bool{
	".m4a": true,
	".wav": true,
	".mp3": true,
	".ogg": true,
}

// Config holds configuration for the daemon.
type Config struct {
	// SyncInterval is how often a periodic sync pass is triggered.
	SyncInterval time.Duration

	// DebounceInterval is how long a new audio file must sit still
	// before capture. Recorders write files incrementally; capturing
	// too early reads a truncated payload.
	DebounceInterval time.Duration

	// WatchDir is the audio drop directory. Empty disables capture;
	// the daemon then only schedules sync passes.
	WatchDir string

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval:     300 * time.Second,
		DebounceInterval: 2 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates capture and sync scheduling.
type Daemon struct {
	store       *store.Store
	engine      syncer.Syncer
	transcriber transcribe.Transcriber
	tagger      classify.Tagger
	config      *Config

	watcher   *fsnotify.Watcher
	pending   map[string]time.Time // filepath -> last event time
	pendingMu sync.Mutex
	captured  map[string]bool // paths already turned into recordings

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Daemon instance.
//
// The daemon requires a store, a sync engine, and - when capture is
// enabled via Config.WatchDir - a transcriber. The tagger is optional.
//
// Use Start() to begin scheduling and watching.
func New(st *store.Store, engine syncer.Syncer, transcriber transcribe.Transcriber, tagger classify.Tagger, config *Config) (*Daemon, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	if config.SyncInterval <= 0 {
		config.SyncInterval = 300 * time.Second
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 2 * time.Second
	}
	if config.WatchDir != "" && transcriber == nil {
		return nil, fmt.Errorf("transcriber cannot be nil when capture is enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		store:       st,
		engine:      engine,
		transcriber: transcriber,
		tagger:      tagger,
		config:      config,
		pending:     make(map[string]time.Time),
		captured:    make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// This blocks until ctx is cancelled. An unreachable server at startup
// is not an error - the initial pass simply fails and the periodic
// schedule retries.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	// Initial pass; offline startup is normal.
	d.triggerSync()

	if d.config.WatchDir != "" {
		if err := d.startWatcher(); err != nil {
			return err
		}
		d.wg.Add(2)
		go d.watchFileEvents()
		go d.processPending()
	}

	d.wg.Add(1)
	go d.syncLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// startWatcher creates the drop directory and begins watching it.
func (d *Daemon) startWatcher() error {
	if err := os.MkdirAll(d.config.WatchDir, 0755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(d.config.WatchDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", d.config.WatchDir, err)
	}

	d.watcher = watcher

	// Files already in the directory never produce an event. Scanning
	// after Add closes the gap: anything dropped while the daemon was
	// down is queued here, anything dropped later is seen by the watcher.
	entries, err := os.ReadDir(d.config.WatchDir)
	if err != nil {
		return fmt.Errorf("failed to scan watch directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		d.queueCapture(filepath.Join(d.config.WatchDir, entry.Name()))
	}

	d.config.Logger.Printf("Watching for audio in: %s", d.config.WatchDir)
	return nil
}

// syncLoop triggers a sync pass on the configured period.
func (d *Daemon) syncLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.triggerSync()
		}
	}
}

// triggerSync runs one sync pass, treating an overlapping pass as done.
func (d *Daemon) triggerSync() {
	if err := d.engine.Synchronize(d.ctx); err != nil && !errors.Is(err, syncer.ErrBusy) {
		d.config.Logger.Printf("Sync pass failed: %v", err)
	}
}

// watchFileEvents monitors filesystem events and queues audio files.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !audioExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}

			d.queueCapture(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueCapture records the latest event time for a file. Repeated writes
// push the capture time back until the recorder is done with the file.
func (d *Daemon) queueCapture(path string) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	if d.captured[path] {
		return
	}
	d.pending[path] = time.Now()
}

// processPending captures files whose last write is older than the
// debounce interval.
func (d *Daemon) processPending() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			for _, path := range d.takeReady() {
				d.captureFile(path)
			}
		}
	}
}

// takeReady removes and returns all debounced paths.
func (d *Daemon) takeReady() []string {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	var ready []string
	now := time.Now()
	for path, queued := range d.pending {
		if now.Sub(queued) >= d.config.DebounceInterval {
			ready = append(ready, path)
			delete(d.pending, path)
		}
	}
	return ready
}

// captureFile turns one audio file into a persisted, unsynced recording
// and nudges the engine.
func (d *Daemon) captureFile(path string) {
	d.config.Logger.Printf("Capturing %s", path)

	text, err := d.transcriber.Transcribe(d.ctx, path)
	if err != nil {
		d.config.Logger.Printf("Transcription failed for %s: %v", path, err)
		d.markCaptured(path) // don't retry a broken file forever
		return
	}

	rec := record.New(text, path)

	if d.tagger != nil {
		// Best-effort decoration; a memo without a tag is fine.
		if tag, err := d.tagger.Suggest(d.ctx, text); err == nil && tag != "" {
			rec.Tag = tag
		}
	}

	if err := d.store.Insert(rec); err != nil {
		d.config.Logger.Printf("Failed to persist capture %s: %v", path, err)
		return
	}
	d.markCaptured(path)

	d.config.Logger.Printf("Captured recording %s (%s)", rec.ID, rec.Summary(40))

	d.triggerSync()
}

// markCaptured prevents a path from being captured twice.
func (d *Daemon) markCaptured(path string) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	d.captured[path] = true
}
