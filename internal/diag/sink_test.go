package diag

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/roasbeef/devhooks/internal/db"
	"github.com/stretchr/testify/require"
)

type failingSink struct {
	err   error
	calls int
}

func (f *failingSink) Record(context.Context, Event) error {
	f.calls++
	return f.err
}

// TestMultiSinkDeliversToAll verifies a failing member does not stop
// delivery to the remaining members.
func TestMultiSinkDeliversToAll(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	a := &failingSink{err: errA}
	b := &failingSink{err: errB}
	mem := NewMemorySink()

	rec := NewChangeRecord(time.Now(), "Write", 1, 0, 0, 0)
	err := MultiSink{a, mem, b}.Record(context.Background(), rec)

	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
	require.Equal(t, 1, a.calls)
	require.Equal(t, 1, b.calls)
	require.Equal(t, []Event{rec}, mem.Events())
}

// TestEmitSwallowsErrors verifies Emit never panics on nil or failing sinks.
func TestEmitSwallowsErrors(t *testing.T) {
	ctx := context.Background()
	rec := NewPromptRecord(time.Now(), "general", 5, 0)

	Emit(ctx, nil, rec)
	Emit(ctx, Discard, rec)

	f := &failingSink{err: errors.New("boom")}
	Emit(ctx, f, rec)
	require.Equal(t, 1, f.calls)

	require.NoError(t, LogSink{}.Record(ctx, rec))
}

// TestRecordIDsUnique verifies each record gets its own ID.
func TestRecordIDsUnique(t *testing.T) {
	now := time.Now()
	a := NewChangeRecord(now, "Edit", 1, 0, 0, 0)
	b := NewChangeRecord(now, "Edit", 1, 0, 0, 0)

	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, KindFileChange, a.EventKind())
	require.Equal(t, time.UTC, a.EventTime().Location())
}

// TestJSONLSinkAppends verifies records are written one per line with the
// camelCase field names.
func TestJSONLSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "diag.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	require.Equal(t, path, sink.Path())

	ctx := context.Background()
	ts := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, sink.Record(
		ctx, NewChangeRecord(ts, "Write", 2, 1, 3, 0),
	))
	require.NoError(t, sink.Record(
		ctx, NewPromptRecord(ts, "testing", 42, 1),
	))

	records, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "file_change", records[0]["kind"])
	require.Equal(t, "Write", records[0]["operation"])
	require.EqualValues(t, 2, records[0]["fileCount"])
	require.EqualValues(t, 3, records[0]["warnings"])

	require.Equal(t, "prompt", records[1]["kind"])
	require.Equal(t, "testing", records[1]["intent"])
	require.EqualValues(t, 42, records[1]["promptLength"])
}

// TestJSONLSinkConcurrent verifies concurrent appends never interleave.
func TestJSONLSinkConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.jsonl")

	const writers = 8
	const perWriter = 10

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine holds its own flock handle, the same as
			// separate hook processes would.
			sink, err := NewJSONLSink(path)
			if err != nil {
				t.Error(err)
				return
			}
			for j := 0; j < perWriter; j++ {
				rec := NewPromptRecord(time.Now(), "general", j, 0)
				if err := sink.Record(
					context.Background(), rec,
				); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	records, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, writers*perWriter)
}

// TestStoreSink verifies records land in the sqlite event store with their
// summary columns filled.
func TestStoreSink(t *testing.T) {
	store, err := db.NewSqliteStore(&db.SqliteConfig{
		DatabaseFileName: filepath.Join(t.TempDir(), "events.db"),
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	sink := NewStoreSink(store)

	ts := time.UnixMilli(1_700_000_000_000)
	change := NewChangeRecord(ts, "MultiEdit", 3, 2, 1, 0)
	prompt := NewPromptRecord(ts.Add(time.Second), "codeReview", 20, 2)

	require.NoError(t, sink.Record(ctx, change))
	require.NoError(t, sink.Record(ctx, prompt))

	events, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Equal(t, prompt.ID, events[0].ID)
	require.Equal(t, db.KindPrompt, events[0].Kind)
	require.Equal(t, "codeReview", events[0].Label)
	require.Equal(t, 2, events[0].FileCount)

	require.Equal(t, change.ID, events[1].ID)
	require.Equal(t, "MultiEdit", events[1].Label)
	require.Equal(t, 2, events[1].Notifications)
	require.Equal(t, 1, events[1].Warnings)
	require.Contains(t, events[1].PayloadJSON, `"operation":"MultiEdit"`)

	// Replaying the same record is rejected by the store.
	require.ErrorIs(t, sink.Record(ctx, change), db.ErrDuplicateEvent)
}
