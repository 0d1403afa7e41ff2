// Package hooks registers the devhooks commands in a Claude Code
// settings.json file.
package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// SettingsFileName is the settings file inside a .claude directory.
const SettingsFileName = "settings.json"

// DefaultBinary is the command name used when no absolute binary path is
// given.
const DefaultBinary = "devhooks"

// Hook event names used by devhooks.
const (
	EventPostToolUse      = "PostToolUse"
	EventUserPromptSubmit = "UserPromptSubmit"
)

// FileChangeMatcher selects the file editing tools.
const FileChangeMatcher = "Write|Edit|MultiEdit"

// ClaudeSettings is a settings.json file. Only the hooks section is
// interpreted; every other key is written back untouched.
type ClaudeSettings struct {
	Hooks map[string][]HookEntry

	raw map[string]json.RawMessage
}

// HookEntry is one matcher block of a hook event.
type HookEntry struct {
	Matcher string        `json:"matcher"`
	Hooks   []HookCommand `json:"hooks"`
}

// HookCommand is a single command hook.
type HookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// Definitions returns the hook entries devhooks installs, invoking binary.
func Definitions(binary string) map[string]HookEntry {
	if binary == "" {
		binary = DefaultBinary
	}

	return map[string]HookEntry{
		EventPostToolUse: {
			Matcher: FileChangeMatcher,
			Hooks: []HookCommand{{
				Type: "command",
				Command: binary +
					" hook file-change --format hook",
				Timeout: 30,
			}},
		},
		EventUserPromptSubmit: {
			Matcher: "",
			Hooks: []HookCommand{{
				Type:    "command",
				Command: binary + " hook prompt --format hook",
				Timeout: 10,
			}},
		},
	}
}

// SettingsPath returns the settings.json inside claudeDir.
func SettingsPath(claudeDir string) string {
	return filepath.Join(claudeDir, SettingsFileName)
}

// UserClaudeDir returns ~/.claude.
func UserClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}

	return filepath.Join(home, ".claude")
}

// ProjectClaudeDir returns <project>/.claude.
func ProjectClaudeDir(projectDir string) string {
	return filepath.Join(projectDir, ".claude")
}

// LoadSettings reads the settings file in claudeDir. A missing file yields
// empty settings.
func LoadSettings(claudeDir string) (*ClaudeSettings, error) {
	settings := &ClaudeSettings{
		Hooks: make(map[string][]HookEntry),
		raw:   make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(SettingsPath(claudeDir))
	switch {
	case os.IsNotExist(err):
		return settings, nil

	case err != nil:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings.raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	if hooksRaw, ok := settings.raw["hooks"]; ok {
		if err := json.Unmarshal(hooksRaw, &settings.Hooks); err != nil {
			return nil, fmt.Errorf("failed to parse hooks: %w", err)
		}
		if settings.Hooks == nil {
			settings.Hooks = make(map[string][]HookEntry)
		}
	}

	return settings, nil
}

// SaveSettings writes settings back to claudeDir. The file is replaced
// atomically so a concurrent reader never sees a partial write.
func SaveSettings(claudeDir string, settings *ClaudeSettings) error {
	out := make(map[string]json.RawMessage, len(settings.raw)+1)
	for k, v := range settings.raw {
		out[k] = v
	}

	if len(settings.Hooks) > 0 {
		hooksRaw, err := json.Marshal(settings.Hooks)
		if err != nil {
			return fmt.Errorf("failed to marshal hooks: %w", err)
		}
		out["hooks"] = hooksRaw
	} else {
		delete(out, "hooks")
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(claudeDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(claudeDir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod settings: %w", err)
	}

	return os.Rename(tmp.Name(), SettingsPath(claudeDir))
}

// InstallHooks adds the devhooks entries that are not present yet. Entries
// from other tools are kept in place. It returns the events that changed.
func InstallHooks(settings *ClaudeSettings, binary string) []string {
	var added []string
	for event, def := range Definitions(binary) {
		entries := settings.Hooks[event]
		if slices.ContainsFunc(entries, isDevhooksEntry) {
			continue
		}

		settings.Hooks[event] = append(entries, def)
		added = append(added, event)

		log.Debugf("Registered %s hook: %s", event,
			def.Hooks[0].Command)
	}
	sort.Strings(added)

	return added
}

// UninstallHooks removes every devhooks entry. Events left without entries
// are dropped.
func UninstallHooks(settings *ClaudeSettings) []string {
	var removed []string
	for event, entries := range settings.Hooks {
		filtered := slices.DeleteFunc(
			slices.Clone(entries), isDevhooksEntry,
		)
		if len(filtered) == len(entries) {
			continue
		}

		removed = append(removed, event)
		if len(filtered) > 0 {
			settings.Hooks[event] = filtered
		} else {
			delete(settings.Hooks, event)
		}
	}
	sort.Strings(removed)

	return removed
}

// InstalledEvents returns the sorted events carrying a devhooks entry.
func InstalledEvents(settings *ClaudeSettings) []string {
	var events []string
	for event, entries := range settings.Hooks {
		if slices.ContainsFunc(entries, isDevhooksEntry) {
			events = append(events, event)
		}
	}
	sort.Strings(events)

	return events
}

// IsInstalled reports whether both devhooks events are registered.
func IsInstalled(settings *ClaudeSettings) bool {
	return len(InstalledEvents(settings)) == len(Definitions(""))
}

// isDevhooksEntry reports whether any command of entry runs a devhooks
// hook subcommand, regardless of where the binary lives.
func isDevhooksEntry(entry HookEntry) bool {
	return slices.ContainsFunc(entry.Hooks, func(h HookCommand) bool {
		fields := strings.Fields(h.Command)
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] != "hook" {
				continue
			}

			switch fields[i+1] {
			case "file-change", "prompt":
				return true
			}
		}

		return false
	})
}
