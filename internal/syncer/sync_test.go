package syncer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voiceinbox/voiceinbox/internal/api"
	"github.com/voiceinbox/voiceinbox/internal/record"
	"github.com/voiceinbox/voiceinbox/internal/store"
)

// inboxServer is a fake remote inbox for engine tests. It records every
// uploaded text and can be told to reject specific texts.
type inboxServer struct {
	mu       sync.Mutex
	uploads  []string
	reject   map[string]bool
	delay    time.Duration
	itemsRes string
	itemsNum int
}

func (s *inboxServer) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/inbox", func(w http.ResponseWriter, r *http.Request) {
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("upload was not multipart: %v", err)
		}
		text := r.FormValue("text")

		s.mu.Lock()
		rejected := s.reject[text]
		if !rejected {
			s.uploads = append(s.uploads, text)
		}
		s.mu.Unlock()

		if rejected {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, "synthetic upload failure")
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		if s.itemsNum != 0 {
			w.WriteHeader(s.itemsNum)
			io.WriteString(w, "synthetic fetch failure")
			return
		}
		io.WriteString(w, s.itemsRes)
	})
	return mux
}

func (s *inboxServer) uploadedTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.uploads...)
}

// newTestEngine wires an in-memory store, a fake inbox server, and an
// engine together.
func newTestEngine(t *testing.T, srv *inboxServer) (*Engine, *store.Store) {
	t.Helper()

	st := store.NewMemory()
	if !st.Available() {
		t.Fatal("in-memory store failed setup")
	}
	t.Cleanup(func() { st.Close() })

	httpSrv := httptest.NewServer(srv.handler(t))
	t.Cleanup(httpSrv.Close)

	return New(st, api.New(httpSrv.URL, nil), nil), st
}

// insert adds an unsynced recording with the given id and text.
func insert(t *testing.T, st *store.Store, id, text string) {
	t.Helper()

	rec := &record.Recording{ID: id, Text: text, Pending: true, CreatedAt: time.Now()}
	if err := st.Insert(rec); err != nil {
		t.Fatalf("Insert(%s) failed: %v", id, err)
	}
}

func unsyncedIDs(t *testing.T, st *store.Store) map[string]bool {
	t.Helper()

	recs, err := st.ListUnsynced()
	if err != nil {
		t.Fatalf("ListUnsynced() failed: %v", err)
	}
	ids := make(map[string]bool, len(recs))
	for _, r := range recs {
		ids[r.ID] = true
	}
	return ids
}

func TestSynchronize_HappyPath(t *testing.T) {
	srv := &inboxServer{}
	engine, st := newTestEngine(t, srv)

	insert(t, st, "a", "hello")

	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize() failed: %v", err)
	}

	if ids := unsyncedIDs(t, st); len(ids) != 0 {
		t.Errorf("unsynced after pass: %v, want none", ids)
	}

	// Sync never touches user-facing fields.
	all, err := st.ListAll()
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if len(all) != 1 || !all[0].Pending {
		t.Errorf("pass modified recording state: %+v", all)
	}

	status := engine.Status()
	if status.State != StateSucceeded || status.Detail != "synced 1 items" {
		t.Errorf("Status() = %v, want succeeded: synced 1 items", status)
	}
}

func TestSynchronize_EmptyQueue(t *testing.T) {
	srv := &inboxServer{}
	engine, _ := newTestEngine(t, srv)

	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize() on empty queue failed: %v", err)
	}

	status := engine.Status()
	if status.State != StateSucceeded || status.Detail != "no items to sync" {
		t.Errorf("Status() = %v, want succeeded: no items to sync", status)
	}
	if n := len(srv.uploadedTexts()); n != 0 {
		t.Errorf("empty pass made %d uploads", n)
	}
}

func TestSynchronize_PartialFailure(t *testing.T) {
	srv := &inboxServer{reject: map[string]bool{"second": true}}
	engine, st := newTestEngine(t, srv)

	insert(t, st, "1", "first")
	insert(t, st, "2", "second")
	insert(t, st, "3", "third")

	// One bad item must not abort the batch or propagate.
	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize() failed despite partial-failure tolerance: %v", err)
	}

	ids := unsyncedIDs(t, st)
	if ids["1"] || ids["3"] {
		t.Errorf("successful items still unsynced: %v", ids)
	}
	if !ids["2"] {
		t.Error("failed item lost its unsynced flag")
	}

	// The pass still reports completion with the attempted count.
	status := engine.Status()
	if status.State != StateSucceeded || status.Detail != "synced 3 items" {
		t.Errorf("Status() = %v, want succeeded: synced 3 items", status)
	}
}

func TestSynchronize_FailedItemRetriesNextPass(t *testing.T) {
	srv := &inboxServer{reject: map[string]bool{"flaky": true}}
	engine, st := newTestEngine(t, srv)

	insert(t, st, "f", "flaky")

	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("first Synchronize() failed: %v", err)
	}
	if ids := unsyncedIDs(t, st); !ids["f"] {
		t.Fatal("failed item should stay queued")
	}

	// Server recovers; the next cycle picks the item up again.
	srv.mu.Lock()
	srv.reject = nil
	srv.mu.Unlock()

	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("second Synchronize() failed: %v", err)
	}
	if ids := unsyncedIDs(t, st); len(ids) != 0 {
		t.Errorf("item not synced after retry: %v", ids)
	}
}

func TestSynchronize_SingleFlight(t *testing.T) {
	srv := &inboxServer{delay: 300 * time.Millisecond}
	engine, st := newTestEngine(t, srv)

	insert(t, st, "a", "only item")

	statusCh, cancel := engine.Subscribe()
	defer cancel()

	var firstErr error
	done := make(chan struct{})
	go func() {
		firstErr = engine.Synchronize(context.Background())
		close(done)
	}()

	// Wait for the pass to actually start before racing it.
	waitForState(t, statusCh, StateSyncing)

	if err := engine.Synchronize(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("overlapping Synchronize() error = %v, want ErrBusy", err)
	}

	<-done
	if firstErr != nil {
		t.Fatalf("first Synchronize() failed: %v", firstErr)
	}

	// Exactly one upload per unsynced item per pass, even under
	// overlapping triggers.
	if got := srv.uploadedTexts(); len(got) != 1 {
		t.Errorf("server saw %d uploads, want 1: %v", len(got), got)
	}
}

func TestSynchronize_BusyFlagClearsAfterPass(t *testing.T) {
	srv := &inboxServer{}
	engine, st := newTestEngine(t, srv)

	insert(t, st, "a", "note")

	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	// A wedged busy flag would make this return ErrBusy.
	if err := engine.Synchronize(context.Background()); err != nil {
		t.Errorf("second pass failed: %v", err)
	}
}

func TestSynchronize_BusyFlagClearsAfterFailure(t *testing.T) {
	srv := &inboxServer{}
	engine, st := newTestEngine(t, srv)
	st.Close() // force the unsynced-list read to fail

	err := engine.Synchronize(context.Background())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Synchronize() error = %v, want ErrUnavailable", err)
	}
	if engine.Status().State != StateFailed {
		t.Errorf("Status() = %v, want failed", engine.Status())
	}

	// The guard must be released even though the pass failed.
	if err := engine.Synchronize(context.Background()); errors.Is(err, ErrBusy) {
		t.Error("busy flag stuck after failed pass")
	}
}

func TestSynchronize_UploadsAudioBytes(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "memo.m4a")
	if err := os.WriteFile(audioPath, []byte("fake-aac-bytes"), 0644); err != nil {
		t.Fatalf("failed to write audio fixture: %v", err)
	}

	var gotAudio atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/inbox", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("upload was not multipart: %v", err)
		}
		if file, _, err := r.FormFile("audio"); err == nil {
			data, _ := io.ReadAll(file)
			file.Close()
			gotAudio.Store(int64(len(data)))
		}
		w.WriteHeader(http.StatusOK)
	})
	httpSrv := httptest.NewServer(mux)
	defer httpSrv.Close()

	st := store.NewMemory()
	defer st.Close()
	engine := New(st, api.New(httpSrv.URL, nil), nil)

	rec := &record.Recording{ID: "a", Text: "with audio", AudioPath: audioPath, CreatedAt: time.Now()}
	if err := st.Insert(rec); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize() failed: %v", err)
	}
	if gotAudio.Load() != int64(len("fake-aac-bytes")) {
		t.Errorf("server received %d audio bytes, want %d", gotAudio.Load(), len("fake-aac-bytes"))
	}
}

func TestSynchronize_MissingAudioStillUploads(t *testing.T) {
	srv := &inboxServer{}
	engine, st := newTestEngine(t, srv)

	rec := &record.Recording{
		ID:        "a",
		Text:      "audio is gone",
		AudioPath: filepath.Join(t.TempDir(), "deleted.m4a"),
		CreatedAt: time.Now(),
	}
	if err := st.Insert(rec); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize() failed: %v", err)
	}

	// The recording is never silently dropped from sync.
	if got := srv.uploadedTexts(); len(got) != 1 || got[0] != "audio is gone" {
		t.Errorf("uploads = %v, want the text-only item", got)
	}
	if ids := unsyncedIDs(t, st); len(ids) != 0 {
		t.Errorf("item with missing audio stayed unsynced: %v", ids)
	}
}

func TestFetchFromServer_ReadOnly(t *testing.T) {
	srv := &inboxServer{itemsRes: `[
		{"id":"r1","text":"remote one","pending":true,"created_at":"2025-06-01T12:00:00Z"},
		{"id":"r2","text":"remote two","pending":false,"created_at":"2025-06-01T13:00:00Z"}
	]`}
	engine, st := newTestEngine(t, srv)

	items, err := engine.FetchFromServer(context.Background())
	if err != nil {
		t.Fatalf("FetchFromServer() failed: %v", err)
	}

	if len(items) != 2 || items[0].ID != "r1" || items[1].ID != "r2" {
		t.Errorf("FetchFromServer() items = %v, want r1 and r2", items)
	}

	status := engine.Status()
	if status.State != StateSucceeded || status.Detail != "fetched 2 items" {
		t.Errorf("Status() = %v, want succeeded: fetched 2 items", status)
	}

	// Fetch observes only; the local store is never mutated.
	all, err := st.ListAll()
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("fetch merged %d items into the local store", len(all))
	}
}

func TestFetchFromServer_ServerError(t *testing.T) {
	srv := &inboxServer{itemsNum: http.StatusInternalServerError}
	engine, st := newTestEngine(t, srv)

	items, err := engine.FetchFromServer(context.Background())
	if !errors.Is(err, api.ErrServerRejected) {
		t.Fatalf("FetchFromServer() error = %v, want ErrServerRejected", err)
	}
	if items != nil {
		t.Errorf("failed fetch returned items: %v", items)
	}

	status := engine.Status()
	if status.State != StateFailed {
		t.Errorf("Status() = %v, want failed", status)
	}
	if !strings.Contains(status.Detail, "synthetic fetch failure") {
		t.Errorf("failure detail %q lost the server message", status.Detail)
	}

	all, err := st.ListAll()
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if len(all) != 0 {
		t.Error("failed fetch mutated the local store")
	}
}

func TestFetchFromServer_SharesBusyGuard(t *testing.T) {
	srv := &inboxServer{delay: 300 * time.Millisecond}
	engine, st := newTestEngine(t, srv)

	insert(t, st, "a", "note")

	statusCh, cancel := engine.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = engine.Synchronize(context.Background())
		close(done)
	}()

	waitForState(t, statusCh, StateSyncing)

	// A pull pass must not interleave with the running push pass.
	if _, err := engine.FetchFromServer(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("FetchFromServer() during push error = %v, want ErrBusy", err)
	}

	<-done
}

func TestSubscribe_ObservesTransitions(t *testing.T) {
	srv := &inboxServer{}
	engine, st := newTestEngine(t, srv)

	insert(t, st, "a", "note")

	ch, cancel := engine.Subscribe()
	defer cancel()

	if err := engine.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize() failed: %v", err)
	}

	first := waitForAnyState(t, ch)
	if first.State != StateSyncing {
		t.Errorf("first transition = %v, want syncing", first)
	}
	second := waitForAnyState(t, ch)
	if second.State != StateSucceeded {
		t.Errorf("second transition = %v, want succeeded", second)
	}
}

func TestSubscribe_CancelIsIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t, &inboxServer{})

	_, cancel := engine.Subscribe()
	cancel()
	cancel() // must not panic
}

// waitForState drains the status channel until the wanted state appears.
func waitForState(t *testing.T, ch <-chan Status, want State) {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case status := <-ch:
			if status.State == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

// waitForAnyState returns the next published status.
func waitForAnyState(t *testing.T, ch <-chan Status) Status {
	t.Helper()

	select {
	case status := <-ch:
		return status
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a status transition")
		return Status{}
	}
}
