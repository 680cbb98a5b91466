package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

const sseHeartbeat = 15 * time.Second

// handleEvents relaie les événements du bus en SSE (event: <topic>, data: <payload JSON>).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var events <-chan ports.Event
	if s.deps.Bus != nil {
		ch, cancel := s.deps.Bus.Subscribe()
		defer cancel()
		events = ch
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	fmt.Fprintf(w, "event: hello\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Topic, evt.Payload)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
