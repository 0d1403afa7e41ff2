package intent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/roasbeef/devhooks/internal/diag"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		prompt string
		want   Intent
	}{
		{"please refactor this messy function", Refactoring},
		{"Can you REVIEW my PR", CodeReview},
		{"analyse the hot path", CodeReview},
		{"analyze the hot path", CodeReview},
		{"audit the auth flow", CodeReview},
		{"clean up the handlers", Refactoring},
		{"cleanup the handlers", Refactoring},
		{"simplify this", Refactoring},
		{"add a test for the parser", Testing},
		{"raise coverage", Testing},
		{"write the spec", Testing},
		{"review and refactor the cache", CodeReview},
		{"improve test coverage", Refactoring},
		{"hello", General},
		{"", General},
	}

	for _, tc := range tests {
		t.Run(tc.prompt, func(t *testing.T) {
			require.Equal(t, tc.want, Detect(tc.prompt))
		})
	}
}

func TestSuggestions(t *testing.T) {
	require.Len(t, Suggestions(CodeReview), 3)
	require.Len(t, Suggestions(Refactoring), 2)
	require.Len(t, Suggestions(Testing), 3)
	require.Empty(t, Suggestions(General))

	// Callers get a copy.
	tips := Suggestions(Testing)
	tips[0] = "changed"
	require.NotEqual(t, "changed", Suggestions(Testing)[0])

	require.Equal(t, []Intent{CodeReview, Refactoring, Testing, General},
		Intents())
}

// TestClassifyRefactoring verifies the result for a refactoring prompt.
func TestClassifyRefactoring(t *testing.T) {
	sink := diag.NewMemorySink()
	c := NewClassifier(sink)

	prompt := "please refactor this messy function"
	res := c.Classify(context.Background(), PromptEvent{
		Prompt: prompt,
		Files:  []any{"a.go", map[string]any{"path": "b.go"}},
	})

	require.Equal(t, prompt, res.Prompt)
	require.Equal(t, Refactoring, res.DetectedIntent())

	// Consumers read the metadata without importing the Intent type.
	name, ok := res.Metadata["detectedIntent"].(string)
	require.True(t, ok)
	require.Equal(t, "refactoring", name)
	require.Equal(t, Suggestions(Refactoring),
		res.Metadata[MetaSuggestions])

	events := sink.Events()
	require.Len(t, events, 1)

	rec := events[0].(diag.PromptRecord)
	require.Equal(t, "refactoring", rec.Intent)
	require.Equal(t, len(prompt), rec.PromptLength)
	require.Equal(t, 2, rec.FileContextCount)
}

// TestClassifyGeneral verifies the fallback carries no suggestions key.
func TestClassifyGeneral(t *testing.T) {
	c := NewClassifier(nil)

	res := c.Classify(context.Background(), PromptEvent{Prompt: "hello"})
	require.Equal(t, General, res.DetectedIntent())
	require.NotContains(t, res.Metadata, MetaSuggestions)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"prompt":"hello","metadata":{"detectedIntent":"general"}}`,
		string(out))
}

// TestClassifyMetadata verifies unrelated keys pass through, new keys win
// on collision and the input map is left untouched.
func TestClassifyMetadata(t *testing.T) {
	c := NewClassifier(nil)

	in := map[string]any{
		"a":              1,
		"detectedIntent": "stale",
		"suggestions":    []string{"stale"},
	}
	res := c.Classify(context.Background(), PromptEvent{
		Prompt:   "check this",
		Metadata: in,
	})

	require.Equal(t, 1, res.Metadata["a"])
	require.Equal(t, "codeReview", res.Metadata[MetaDetectedIntent])
	require.Equal(t, Suggestions(CodeReview),
		res.Metadata[MetaSuggestions])

	require.Equal(t, map[string]any{
		"a":              1,
		"detectedIntent": "stale",
		"suggestions":    []string{"stale"},
	}, in)
}

// TestClassifyProperties checks order precedence, pass-through and
// idempotence over generated prompts.
func TestClassifyProperties(t *testing.T) {
	words := []string{
		"review", "refactor", "tests", "coverage", "audit", "simplify",
		"hello", "world", "please", "the", "function", "deploy",
	}

	rapid.Check(t, func(rt *rapid.T) {
		picked := rapid.SliceOfN(rapid.SampledFrom(words), 0, 8).
			Draw(rt, "words")
		prompt := strings.Join(picked, " ")

		keys := rapid.MapOfN(
			rapid.StringMatching(`[a-z]{1,6}`),
			rapid.IntRange(0, 100), 0, 4,
		).Draw(rt, "meta")
		meta := make(map[string]any, len(keys))
		for k, v := range keys {
			meta[k] = v
		}

		c := NewClassifier(nil)
		ev := PromptEvent{Prompt: prompt, Metadata: meta}
		first := c.Classify(context.Background(), ev)
		second := c.Classify(context.Background(), ev)

		require.Equal(rt, first, second)
		require.Equal(rt, prompt, first.Prompt)

		// The detected intent is the earliest matching rule.
		got := first.DetectedIntent()
		for _, r := range rules {
			if r.intent == got {
				break
			}
			require.False(rt, r.pattern.MatchString(prompt),
				"earlier rule %s matched", r.intent)
		}

		for k, v := range meta {
			if k == MetaDetectedIntent || k == MetaSuggestions {
				continue
			}
			require.Equal(rt, v, first.Metadata[k])
		}

		_, hasTips := first.Metadata[MetaSuggestions]
		require.Equal(rt, got != General, hasTips)
	})
}
