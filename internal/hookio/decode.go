// Package hookio translates between the host's hook wire format and the
// advisor and intent request types.
//
// Two input shapes are accepted for each hook: the native shape, which
// mirrors the request types directly, and the Claude Code hook payload
// that the host writes to a command hook's stdin.
package hookio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/roasbeef/devhooks/internal/advisor"
	"github.com/roasbeef/devhooks/internal/intent"
)

// ErrEmptyInput is returned when stdin carried no payload.
var ErrEmptyInput = errors.New("empty hook input")

// maxInputSize caps the payload read from the host.
const maxInputSize = 8 << 20

// hookPayload is the common part of a Claude Code hook payload.
type hookPayload struct {
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	Cwd            string          `json:"cwd"`
	HookEventName  string          `json:"hook_event_name"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input"`
	ToolResponse   json.RawMessage `json:"tool_response"`
	Prompt         string          `json:"prompt"`
}

// toolInput holds the file path fields of the file editing tools.
type toolInput struct {
	FilePath     string `json:"file_path"`
	NotebookPath string `json:"notebook_path"`
}

// toolResponse holds the Write tool's create/update marker.
type toolResponse struct {
	Type string `json:"type"`
}

// ChangeInput is a decoded file change hook invocation.
type ChangeInput struct {
	Event advisor.ChangeEvent

	// Cwd is the host's working directory, when the host sent one.
	Cwd string

	// SessionID is the host session, when the host sent one.
	SessionID string
}

// PromptInput is a decoded prompt hook invocation.
type PromptInput struct {
	Event intent.PromptEvent

	// Cwd is the host's working directory, when the host sent one.
	Cwd string
}

func readPayload(r io.Reader) ([]byte, map[string]json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize))
	if err != nil {
		return nil, nil, fmt.Errorf("read hook input: %w", err)
	}
	if len(data) == 0 {
		return nil, nil, ErrEmptyInput
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, fmt.Errorf("parse hook input: %w", err)
	}

	return data, fields, nil
}

// isHostPayload reports whether the fields came from a Claude Code hook.
func isHostPayload(fields map[string]json.RawMessage) bool {
	_, ok := fields["hook_event_name"]
	return ok
}

// DecodeChange reads a file change event from r.
func DecodeChange(r io.Reader) (ChangeInput, error) {
	data, fields, err := readPayload(r)
	if err != nil {
		return ChangeInput{}, err
	}

	if isHostPayload(fields) {
		return decodeToolUse(data)
	}

	var ev advisor.ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ChangeInput{}, fmt.Errorf("parse change event: %w", err)
	}

	for i, f := range ev.Files {
		if f.ChangeType == "" {
			ev.Files[i].ChangeType = advisor.ChangeModified
			continue
		}

		if _, err := advisor.ParseChangeType(
			string(f.ChangeType),
		); err != nil {
			return ChangeInput{}, fmt.Errorf("file %d: %w", i, err)
		}
	}

	return ChangeInput{Event: ev}, nil
}

// decodeToolUse maps a PostToolUse payload onto a single file change.
func decodeToolUse(data []byte) (ChangeInput, error) {
	var p hookPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ChangeInput{}, fmt.Errorf("parse hook payload: %w", err)
	}

	in := ChangeInput{
		Event: advisor.ChangeEvent{
			Files:     []advisor.FileChange{},
			Operation: p.ToolName,
		},
		Cwd:       p.Cwd,
		SessionID: p.SessionID,
	}

	var ti toolInput
	if len(p.ToolInput) > 0 {
		if err := json.Unmarshal(p.ToolInput, &ti); err != nil {
			return ChangeInput{}, fmt.Errorf("parse tool_input: %w",
				err)
		}
	}

	path := ti.FilePath
	if path == "" {
		path = ti.NotebookPath
	}
	if path == "" {
		log.Debugf("Tool %s carried no file path", p.ToolName)
		return in, nil
	}

	changeType := advisor.ChangeModified
	if p.ToolName == "Write" {
		changeType = advisor.ChangeCreated

		var tr toolResponse
		if len(p.ToolResponse) > 0 &&
			json.Unmarshal(p.ToolResponse, &tr) == nil &&
			tr.Type == "update" {

			changeType = advisor.ChangeModified
		}
	}

	in.Event.Files = append(in.Event.Files, advisor.FileChange{
		FilePath:   path,
		ChangeType: changeType,
	})

	return in, nil
}

// promptKeys are host payload keys consumed by DecodePrompt rather than
// passed through as metadata.
var promptKeys = []string{"prompt", "files"}

// DecodePrompt reads a prompt event from r. For host payloads every key
// other than the prompt itself is carried as metadata.
func DecodePrompt(r io.Reader) (PromptInput, error) {
	data, fields, err := readPayload(r)
	if err != nil {
		return PromptInput{}, err
	}

	if !isHostPayload(fields) {
		var ev intent.PromptEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return PromptInput{}, fmt.Errorf("parse prompt event: %w",
				err)
		}

		return PromptInput{Event: ev}, nil
	}

	var p hookPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return PromptInput{}, fmt.Errorf("parse hook payload: %w", err)
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return PromptInput{}, fmt.Errorf("parse hook payload: %w", err)
	}

	files, _ := all["files"].([]any)

	meta := maps.Clone(all)
	for _, k := range promptKeys {
		delete(meta, k)
	}

	return PromptInput{
		Event: intent.PromptEvent{
			Prompt:   p.Prompt,
			Files:    files,
			Metadata: meta,
		},
		Cwd: p.Cwd,
	}, nil
}
