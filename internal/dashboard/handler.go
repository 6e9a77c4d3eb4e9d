// Package dashboard provides event handling and message formatting for the dashboard.
package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/voiceinbox/voiceinbox/internal/record"
	"github.com/voiceinbox/voiceinbox/internal/store"
	"github.com/voiceinbox/voiceinbox/internal/syncer"
)

// Handler bridges sync engine status updates and store statistics to the
// WebSocket server.
type Handler struct {
	server *Server
	store  *store.Store
	logger *log.Logger
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, st *store.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		store:  st,
		logger: logger,
	}
}

// Watch subscribes to the sync engine and forwards every status transition
// to connected clients. Blocks until ctx is cancelled; run it in a goroutine.
func (h *Handler) Watch(ctx context.Context, engine syncer.Syncer) {
	ch, cancel := engine.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-ch:
			if !ok {
				return
			}
			h.OnSyncStatus(status)
		}
	}
}

// OnSyncStatus broadcasts one sync engine state transition.
func (h *Handler) OnSyncStatus(status syncer.Status) {
	h.logger.Printf("Sync status: %s", status)

	data := SyncStatusData{
		State:  status.State.String(),
		Detail: status.Detail,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal status data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncStatus,
		Timestamp: status.At,
		Data:      dataJSON,
	})

	// Queue counts change when a pass finishes.
	if status.State == syncer.StateSucceeded || status.State == syncer.StateFailed {
		h.BroadcastStats()
	}
}

// OnCapture broadcasts a newly captured recording.
func (h *Handler) OnCapture(rec *record.Recording) {
	h.logger.Printf("Capture: %s (%s)", rec.ID, rec.Summary(40))

	data := CaptureData{
		ID:      rec.ID,
		Summary: rec.Summary(80),
		Tag:     rec.Tag,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal capture data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeCapture,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	h.BroadcastStats()
}

// BroadcastStats sends current queue statistics to all clients.
func (h *Handler) BroadcastStats() {
	total, unsynced, err := h.store.Counts()
	if err != nil {
		h.logger.Printf("Failed to read queue counts: %v", err)
		return
	}

	dataJSON, err := json.Marshal(StatsData{Total: total, Unsynced: unsynced})
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
