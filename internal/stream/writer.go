// internal/stream/writer.go
//
// Package stream carries orchestrator lifecycle events between server and
// client: a server-sent-events writer, a frame parser for the consuming
// side, and a pure reducer that folds the event sequence into UI state.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brandlens/brandlens-workflows/internal/models"
)

// Writer serializes progress events as text/event-stream frames over one
// long-lived response.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares the response for event streaming.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &Writer{w: w, flusher: flusher}, nil
}

// WriteEvent emits one frame. The blank line terminates the frame; a
// second blank line is sent for robustness with lenient parsers.
func (s *Writer) WriteEvent(event models.ProgressEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n\n", event.Type, jsonData); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// WriteError emits a terminal error event.
func (s *Writer) WriteError(stage models.Stage, message string) error {
	return s.WriteEvent(models.ProgressEvent{
		Type:  models.EventError,
		Stage: stage,
		Data:  map[string]string{"message": message},
	})
}
