package jwtgate

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// GateEvent is one audited gate decision.
type GateEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Decision  string    `json:"decision"`
	Branch    string    `json:"branch"`
	TypeTag   string    `json:"type_tag,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// AuditSink receives gate decisions from the async dispatcher. Emit must be
// safe for concurrent calls.
type AuditSink interface {
	Emit(ctx context.Context, event GateEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, GateEvent) {}

// ChannelSink forwards events to a buffered channel for custom consumers.
type ChannelSink struct {
	events chan GateEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan GateEvent, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event GateEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan GateEvent {
	return s.events
}

// JSONWriterSink writes one JSON line per event.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event GateEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
