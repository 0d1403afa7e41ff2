// Package diag carries the write-only telemetry of the advisory hooks: one
// record per hook invocation, delivered to a Sink that is never read back by
// the hooks themselves.
package diag

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the hook that produced a record.
type Kind string

const (
	// KindFileChange records a ChangeAdvisor invocation.
	KindFileChange Kind = "file_change"

	// KindPrompt records an IntentClassifier invocation.
	KindPrompt Kind = "prompt"
)

// Event is the sealed interface for diagnostics records.
type Event interface {
	// EventID returns the unique record ID.
	EventID() string

	// EventKind returns the hook that produced the record.
	EventKind() Kind

	// EventTime returns when the record was produced.
	EventTime() time.Time

	isEvent()
}

// ChangeRecord summarizes one ChangeAdvisor call.
type ChangeRecord struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	Timestamp     time.Time `json:"timestamp"`
	Operation     string    `json:"operation"`
	FileCount     int       `json:"fileCount"`
	Notifications int       `json:"notifications"`
	Warnings      int       `json:"warnings"`
	Errors        int       `json:"errors"`
}

// NewChangeRecord builds a ChangeRecord with a fresh time-ordered ID.
func NewChangeRecord(ts time.Time, operation string, fileCount,
	notifications, warnings, errs int) ChangeRecord {

	return ChangeRecord{
		ID:            newID(),
		Kind:          KindFileChange,
		Timestamp:     ts.UTC(),
		Operation:     operation,
		FileCount:     fileCount,
		Notifications: notifications,
		Warnings:      warnings,
		Errors:        errs,
	}
}

func (r ChangeRecord) EventID() string      { return r.ID }
func (r ChangeRecord) EventKind() Kind      { return KindFileChange }
func (r ChangeRecord) EventTime() time.Time { return r.Timestamp }
func (ChangeRecord) isEvent()               {}

// PromptRecord summarizes one IntentClassifier call.
type PromptRecord struct {
	ID               string    `json:"id"`
	Kind             Kind      `json:"kind"`
	Timestamp        time.Time `json:"timestamp"`
	Intent           string    `json:"intent"`
	PromptLength     int       `json:"promptLength"`
	FileContextCount int       `json:"fileContextCount"`
}

// NewPromptRecord builds a PromptRecord with a fresh time-ordered ID.
func NewPromptRecord(ts time.Time, intent string, promptLength,
	fileContextCount int) PromptRecord {

	return PromptRecord{
		ID:               newID(),
		Kind:             KindPrompt,
		Timestamp:        ts.UTC(),
		Intent:           intent,
		PromptLength:     promptLength,
		FileContextCount: fileContextCount,
	}
}

func (r PromptRecord) EventID() string      { return r.ID }
func (r PromptRecord) EventKind() Kind      { return KindPrompt }
func (r PromptRecord) EventTime() time.Time { return r.Timestamp }
func (PromptRecord) isEvent()               {}

// newID returns a UUIDv7 so IDs sort in creation order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
