package jwtgate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func testEvent(id string) GateEvent {
	return GateEvent{
		ID:        id,
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Method:    "GET",
		Path:      "/secure",
		Decision:  "rejected",
		Branch:    "token",
		Error:     "credential required",
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), testEvent("a"))
	sink.Emit(context.Background(), testEvent("b"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var got GateEvent
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "a" || got.Path != "/secure" || got.Decision != "rejected" {
		t.Fatalf("unexpected event %#v", got)
	}
}

func TestJSONWriterSinkConcurrent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Emit(context.Background(), testEvent("x"))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("lines = %d, want 20", len(lines))
	}
	for _, line := range lines {
		var got GateEvent
		if err := json.Unmarshal([]byte(line), &got); err != nil {
			t.Fatalf("interleaved write produced bad JSON: %v", err)
		}
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(2)

	sink.Emit(context.Background(), testEvent("a"))

	select {
	case e := <-sink.Events():
		if e.ID != "a" {
			t.Fatalf("ID = %q, want a", e.ID)
		}
	default:
		t.Fatal("expected a buffered event")
	}

	// a full channel gives up when the context is cancelled
	sink.Emit(context.Background(), testEvent("b"))
	sink.Emit(context.Background(), testEvent("c"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		sink.Emit(ctx, testEvent("d"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not honor context cancellation")
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), testEvent("1"))
	d.Emit(context.Background(), testEvent("2"))
	d.Emit(context.Background(), testEvent("3"))
	d.Close()

	for _, want := range []string{"1", "2", "3"} {
		select {
		case e := <-sink.Events():
			if e.ID != want {
				t.Fatalf("ID = %q, want %q", e.ID, want)
			}
		default:
			t.Fatalf("event %q not delivered before Close returned", want)
		}
	}
}

type blockingSink struct {
	release chan struct{}
	seen    chan GateEvent
}

func (s *blockingSink) Emit(_ context.Context, event GateEvent) {
	<-s.release
	s.seen <- event
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{
		release: make(chan struct{}),
		seen:    make(chan GateEvent, 16),
	}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// first event is taken by the worker and blocks in the sink; the second
	// fills the buffer; everything after that must be dropped, not block
	d.Emit(context.Background(), testEvent("1"))
	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no event was ever dropped")
		}
		d.Emit(context.Background(), testEvent("n"))
	}

	close(sink.release)
	d.Close()

	if d.Dropped() == 0 {
		t.Fatal("expected a nonzero drop count")
	}
}

func TestDispatcherDisabled(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{}, NoOpSink{}); d != nil {
		t.Fatal("disabled config must not start a dispatcher")
	}

	// all methods are nil-safe
	var d *auditDispatcher
	d.Emit(context.Background(), testEvent("x"))
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
	d.Close()
}

func TestDispatcherEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	d.Close()

	d.Emit(context.Background(), testEvent("late"))
	select {
	case e := <-sink.Events():
		t.Fatalf("event %q delivered after Close", e.ID)
	default:
	}
}
