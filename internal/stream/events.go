// Package stream defines the chat SSE wire format and the client-side
// engine that consumes it.
package stream

// EventType discriminates chat stream frames.
type EventType string

const (
	EventToken EventType = "token"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one chat stream frame, carried as `data: <JSON>` in SSE.
// Citations are never sent over the wire; they are derived client-side from
// the finished text. That protocol simplification is load-bearing and must
// be preserved for compatibility.
type Event struct {
	Type  EventType `json:"type"`
	Value string    `json:"value,omitempty"`
}
