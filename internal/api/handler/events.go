package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/habitforge/habitforge/internal/api/middleware"
	"github.com/habitforge/habitforge/internal/api/response"
	"github.com/habitforge/habitforge/internal/repository/postgres"
)

const eventHeartbeat = 30 * time.Second

// EventsHandler streams row-change events to the owner over SSE so the
// client can refresh chat lists and progress without polling.
type EventsHandler struct {
	notifier *postgres.Notifier
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(notifier *postgres.Notifier) *EventsHandler {
	return &EventsHandler{notifier: notifier}
}

// Stream subscribes the owner to the change feed until the client
// disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming unsupported")
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.notifier.Subscribe(sess.UserID)
	defer cancel()

	heartbeat := time.NewTicker(eventHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event := <-events:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Table, payload)
			flusher.Flush()
		}
	}
}
