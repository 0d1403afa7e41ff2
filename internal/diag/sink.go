package diag

import (
	"context"
	"errors"
	"sync"
)

// Sink receives diagnostics records. Implementations must be safe for
// concurrent use.
type Sink interface {
	// Record delivers one event.
	Record(ctx context.Context, ev Event) error
}

// Discard is a Sink that drops every record.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, Event) error { return nil }

// MultiSink delivers each record to every member, even when an earlier
// member fails. The returned error joins all member failures.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// LogSink writes each record as a structured log line on the DIAG
// subsystem.
type LogSink struct{}

// Record implements Sink.
func (LogSink) Record(ctx context.Context, ev Event) error {
	switch r := ev.(type) {
	case ChangeRecord:
		log.InfoS(ctx, "File change advisory",
			"id", r.ID,
			"operation", r.Operation,
			"files", r.FileCount,
			"notifications", r.Notifications,
			"warnings", r.Warnings,
			"errors", r.Errors,
		)

	case PromptRecord:
		log.InfoS(ctx, "Prompt classified",
			"id", r.ID,
			"intent", r.Intent,
			"prompt_len", r.PromptLength,
			"file_contexts", r.FileContextCount,
		)

	default:
		log.DebugS(ctx, "Unknown diagnostics event",
			"id", ev.EventID(), "kind", ev.EventKind())
	}

	return nil
}

// MemorySink keeps records in memory. It is used by tests that assert on
// emitted diagnostics.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements Sink.
func (m *MemorySink) Record(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, ev)

	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Event, len(m.events))
	copy(out, m.events)

	return out
}

// Emit delivers ev to sink and logs, rather than returns, any failure.
// Diagnostics must never change what a hook returns to the host.
func Emit(ctx context.Context, sink Sink, ev Event) {
	if sink == nil {
		return
	}

	if err := sink.Record(ctx, ev); err != nil {
		log.WarnS(ctx, "Unable to record diagnostics event", err,
			"id", ev.EventID(), "kind", ev.EventKind())
	}
}
