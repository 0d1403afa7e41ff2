// Package intent classifies user prompts into a small fixed set of intents
// and attaches canned tips for the detected intent.
package intent

import (
	"context"
	"maps"
	"regexp"
	"slices"
	"time"

	"github.com/roasbeef/devhooks/internal/diag"
)

// Intent is a coarse classification of a prompt.
type Intent string

const (
	CodeReview  Intent = "codeReview"
	Refactoring Intent = "refactoring"
	Testing     Intent = "testing"

	// General is the fallback when no rule matches.
	General Intent = "general"
)

// Metadata keys added by Classify.
const (
	MetaDetectedIntent = "detectedIntent"
	MetaSuggestions    = "suggestions"
)

// rule pairs an intent with its pattern and tips.
type rule struct {
	intent  Intent
	pattern *regexp.Regexp
	tips    []string
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{
		intent:  CodeReview,
		pattern: regexp.MustCompile(`(?i)review|check|analy[sz]e|audit`),
		tips: []string{
			"Focus on correctness first, then readability and style.",
			"Look for missing error handling and unchecked edge cases.",
			"Flag security-sensitive code such as input parsing and auth.",
		},
	},
	{
		intent: Refactoring,
		pattern: regexp.MustCompile(
			`(?i)refactor|clean ?up|restructure|simplify|improve`,
		),
		tips: []string{
			"Make sure tests cover the code before changing its shape.",
			"Refactor in small steps and keep behavior unchanged.",
		},
	},
	{
		intent: Testing,
		pattern: regexp.MustCompile(
			`(?i)\btests?\b|testing|coverage|unit test|spec`,
		),
		tips: []string{
			"Cover edge cases and error paths, not only the happy path.",
			"Keep tests independent so they can run in any order.",
			"Prefer descriptive test names that state the expected behavior.",
		},
	},
}

// Intents returns every intent in evaluation order, fallback last.
func Intents() []Intent {
	out := make([]Intent, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.intent)
	}

	return append(out, General)
}

// Detect returns the first intent whose pattern matches prompt.
func Detect(prompt string) Intent {
	for _, r := range rules {
		if r.pattern.MatchString(prompt) {
			return r.intent
		}
	}

	return General
}

// Suggestions returns a copy of the tips for i. General has none.
func Suggestions(i Intent) []string {
	for _, r := range rules {
		if r.intent == i {
			return slices.Clone(r.tips)
		}
	}

	return nil
}

// PromptEvent is a prompt submitted by the user.
type PromptEvent struct {
	Prompt string `json:"prompt"`

	// Files are opaque file context references. Only the count is used.
	Files []any `json:"files,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is the classified prompt.
type Result struct {
	Prompt   string         `json:"prompt"`
	Metadata map[string]any `json:"metadata"`
}

// DetectedIntent returns the intent recorded in the result metadata. The
// metadata holds it as a plain string.
func (r Result) DetectedIntent() Intent {
	s, _ := r.Metadata[MetaDetectedIntent].(string)
	return Intent(s)
}

// Classifier classifies prompts and records one diagnostics event per call.
type Classifier struct {
	sink diag.Sink
	now  func() time.Time
}

// NewClassifier returns a Classifier reporting to sink. A nil sink discards
// records.
func NewClassifier(sink diag.Sink) *Classifier {
	if sink == nil {
		sink = diag.Discard
	}

	return &Classifier{sink: sink, now: time.Now}
}

// Classify detects the intent of ev.Prompt and returns the prompt together
// with a copy of the input metadata plus the detected intent and, when
// there are any, its tips. The input metadata is never modified.
func (c *Classifier) Classify(ctx context.Context, ev PromptEvent) Result {
	detected := Detect(ev.Prompt)

	meta := make(map[string]any, len(ev.Metadata)+2)
	maps.Copy(meta, ev.Metadata)
	meta[MetaDetectedIntent] = string(detected)
	if tips := Suggestions(detected); len(tips) > 0 {
		meta[MetaSuggestions] = tips
	}

	log.DebugS(ctx, "Classified prompt", "intent", detected,
		"prompt_len", len(ev.Prompt), "files", len(ev.Files))

	diag.Emit(ctx, c.sink, diag.NewPromptRecord(
		c.now(), string(detected), len(ev.Prompt), len(ev.Files),
	))

	return Result{
		Prompt:   ev.Prompt,
		Metadata: meta,
	}
}
