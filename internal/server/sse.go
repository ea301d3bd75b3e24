package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mapboard/mapboard/pkg/mapstore"
)

// Event types pushed on the streaming sync endpoints.
const (
	eventConnected   = "connected"
	eventMapsUpdated = "market_maps_updated"
	eventPing        = "ping"
)

// syncEvent is the envelope for every message pushed to streaming clients.
type syncEvent struct {
	Type string          `json:"type"`
	Data mapstore.MapSet `json:"data,omitempty"`
}

// handleSync serves the SSE stream: a "connected" event on open, one
// "market_maps_updated" event per accepted write, and a keep-alive "ping" to
// defeat intermediary timeouts.
//
// Each connection owns a dedicated store subscription scoped to the request
// context, so a slow or disconnecting client never affects another. The
// subscription (and its broker connection) is released when the client goes
// away.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	ctx := r.Context()
	sub, err := s.store.Subscribe(ctx)
	if err != nil {
		s.log.Error("failed to open sync subscription", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}
	defer sub.Close()

	connID := uuid.New().String()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.log.Info("sync stream opened",
		zap.String("conn_id", connID),
		zap.String("client", clientAddr(r)))

	if err := writeSSE(w, flusher, syncEvent{Type: eventConnected}); err != nil {
		return
	}

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client-initiated disconnect.
			s.log.Info("sync stream closed", zap.String("conn_id", connID))
			return

		case set, ok := <-sub.Events():
			if !ok {
				// Unrecoverable broker error; only this connection ends.
				s.log.Warn("sync subscription ended", zap.String("conn_id", connID))
				return
			}
			if err := writeSSE(w, flusher, syncEvent{Type: eventMapsUpdated, Data: set}); err != nil {
				s.log.Info("sync stream write failed", zap.String("conn_id", connID), zap.Error(err))
				return
			}

		case err := <-sub.Errors():
			if err == nil {
				return
			}
			// Malformed inbound message: drop it, keep the stream alive.
			s.log.Warn("dropping malformed update", zap.String("conn_id", connID), zap.Error(err))

		case <-ticker.C:
			if err := writeSSE(w, flusher, syncEvent{Type: eventPing}); err != nil {
				return
			}
		}
	}
}

// writeSSE writes one server-sent event frame and flushes it to the client.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev syncEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("failed to write sync event: %w", err)
	}
	flusher.Flush()
	return nil
}
