package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quillview/pagetutor/internal/stream"
)

// sseWriter emits chat stream frames in SSE format: `data: <JSON>` followed
// by a blank line, flushed after every frame so tokens reach the client as
// they arrive.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &sseWriter{w: w, flusher: flusher}, nil
}

func (w *sseWriter) writeEvent(event stream.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

func (w *sseWriter) token(value string) error {
	return w.writeEvent(stream.Event{Type: stream.EventToken, Value: value})
}

func (w *sseWriter) done() error {
	return w.writeEvent(stream.Event{Type: stream.EventDone})
}

func (w *sseWriter) fail(message string) error {
	return w.writeEvent(stream.Event{Type: stream.EventError, Value: message})
}
