package hookio

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/roasbeef/devhooks/internal/advisor"
	"github.com/roasbeef/devhooks/internal/intent"
)

// Format selects how a hook result is written.
type Format string

const (
	// FormatText is a human readable listing.
	FormatText Format = "text"

	// FormatJSON is the native result shape.
	FormatJSON Format = "json"

	// FormatHook is the Claude Code hook output shape, which injects the
	// result into the session as additional context.
	FormatHook Format = "hook"
)

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatHook:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, "+
			"json or hook)", s)
	}
}

// Host hook event names used in hook output.
const (
	EventPostToolUse      = "PostToolUse"
	EventUserPromptSubmit = "UserPromptSubmit"
)

type hookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

type hookOutput struct {
	HookSpecificOutput hookSpecificOutput `json:"hookSpecificOutput"`
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeContext writes a hook output carrying ctx. Nothing is written when
// ctx is empty so the host adds no context.
func writeContext(w io.Writer, event, ctx string) error {
	if ctx == "" {
		return nil
	}

	return writeJSON(w, hookOutput{
		HookSpecificOutput: hookSpecificOutput{
			HookEventName:     event,
			AdditionalContext: ctx,
		},
	})
}

// FormatAdvice renders advisories as a plain text block. It returns an
// empty string when there are none.
func FormatAdvice(res advisor.Result) string {
	if res.Empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("[devhooks] File change advisories:\n")

	section := func(label string, msgs []string) {
		for _, m := range msgs {
			fmt.Fprintf(&sb, "- %s: %s\n", label, m)
		}
	}
	section("error", res.Errors)
	section("warning", res.Warnings)
	section("note", res.Notifications)

	return strings.TrimRight(sb.String(), "\n")
}

// FormatIntent renders the detected intent and its tips. It returns an
// empty string for the fallback intent, which has no tips.
func FormatIntent(res intent.Result) string {
	tips, _ := res.Metadata[intent.MetaSuggestions].([]string)
	if len(tips) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[devhooks] Detected intent: %s\n",
		res.DetectedIntent())
	sb.WriteString("Suggestions:\n")
	for _, tip := range tips {
		fmt.Fprintf(&sb, "- %s\n", tip)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// EncodeAdvice writes res to w in format f.
func EncodeAdvice(w io.Writer, f Format, res advisor.Result) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, res)

	case FormatHook:
		return writeContext(w, EventPostToolUse, FormatAdvice(res))

	default:
		text := FormatAdvice(res)
		if text == "" {
			text = "No advisories."
		}
		_, err := fmt.Fprintln(w, text)
		return err
	}
}

// EncodeIntent writes res to w in format f.
func EncodeIntent(w io.Writer, f Format, res intent.Result) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, res)

	case FormatHook:
		return writeContext(w, EventUserPromptSubmit, FormatIntent(res))

	default:
		text := FormatIntent(res)
		if text == "" {
			text = fmt.Sprintf("Detected intent: %s",
				res.DetectedIntent())
		}
		_, err := fmt.Fprintln(w, text)
		return err
	}
}
