package diag

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roasbeef/devhooks/internal/db"
)

// EventStore is the subset of the db store used by StoreSink.
type EventStore interface {
	InsertEvent(ctx context.Context, ev db.HookEvent) error
}

// StoreSink persists records into the sqlite hook_events table.
type StoreSink struct {
	store EventStore
}

// NewStoreSink returns a sink writing into store.
func NewStoreSink(store EventStore) *StoreSink {
	return &StoreSink{store: store}
}

// Record implements Sink.
func (s *StoreSink) Record(ctx context.Context, ev Event) error {
	row, err := toHookEvent(ev)
	if err != nil {
		return err
	}

	return s.store.InsertEvent(ctx, row)
}

// toHookEvent flattens a record into a hook_events row.
func toHookEvent(ev Event) (db.HookEvent, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return db.HookEvent{}, fmt.Errorf("marshal %s event: %w",
			ev.EventKind(), err)
	}

	row := db.HookEvent{
		ID:          ev.EventID(),
		CreatedAt:   ev.EventTime(),
		PayloadJSON: string(payload),
	}

	switch r := ev.(type) {
	case ChangeRecord:
		row.Kind = db.KindFileChange
		row.Label = r.Operation
		row.FileCount = r.FileCount
		row.Notifications = r.Notifications
		row.Warnings = r.Warnings
		row.Errors = r.Errors

	case PromptRecord:
		row.Kind = db.KindPrompt
		row.Label = r.Intent
		row.FileCount = r.FileContextCount

	default:
		return db.HookEvent{}, fmt.Errorf("unsupported event type %T",
			ev)
	}

	return row, nil
}
