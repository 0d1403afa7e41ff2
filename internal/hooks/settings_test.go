package hooks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSettings() *ClaudeSettings {
	return &ClaudeSettings{
		Hooks: make(map[string][]HookEntry),
	}
}

func customEntry() HookEntry {
	return HookEntry{
		Matcher: "Write",
		Hooks: []HookCommand{{
			Type:    "command",
			Command: "/custom/hook.sh",
		}},
	}
}

// TestInstallHooks verifies both hook events are registered.
func TestInstallHooks(t *testing.T) {
	settings := newSettings()

	added := InstallHooks(settings, "/usr/local/bin/devhooks")
	require.Equal(t, []string{EventPostToolUse, EventUserPromptSubmit},
		added)

	post := settings.Hooks[EventPostToolUse]
	require.Len(t, post, 1)
	require.Equal(t, FileChangeMatcher, post[0].Matcher)
	require.Equal(t,
		"/usr/local/bin/devhooks hook file-change --format hook",
		post[0].Hooks[0].Command)

	prompt := settings.Hooks[EventUserPromptSubmit]
	require.Len(t, prompt, 1)
	require.Equal(t, "devhooks hook prompt --format hook",
		Definitions("")[EventUserPromptSubmit].Hooks[0].Command)

	require.True(t, IsInstalled(settings))
}

// TestInstallHooksIdempotent verifies double install is safe.
func TestInstallHooksIdempotent(t *testing.T) {
	settings := newSettings()

	InstallHooks(settings, "")
	added := InstallHooks(settings, "/other/devhooks")
	require.Empty(t, added)

	require.Len(t, settings.Hooks[EventPostToolUse], 1)
	require.Len(t, settings.Hooks[EventUserPromptSubmit], 1)
}

// TestInstallPreservesExisting verifies foreign hooks are kept ahead of
// ours, and survive uninstall.
func TestInstallPreservesExisting(t *testing.T) {
	settings := newSettings()
	settings.Hooks[EventPostToolUse] = []HookEntry{customEntry()}

	InstallHooks(settings, "")

	entries := settings.Hooks[EventPostToolUse]
	require.Len(t, entries, 2)
	require.Equal(t, "/custom/hook.sh", entries[0].Hooks[0].Command)

	removed := UninstallHooks(settings)
	require.Equal(t, []string{EventPostToolUse, EventUserPromptSubmit},
		removed)
	require.False(t, IsInstalled(settings))

	require.Equal(t, []HookEntry{customEntry()},
		settings.Hooks[EventPostToolUse])
	_, ok := settings.Hooks[EventUserPromptSubmit]
	require.False(t, ok)
}

func TestIsDevhooksEntry(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    bool
	}{
		{"file change", "devhooks hook file-change", true},
		{"prompt with path", "/opt/dh/bin/dh hook prompt --format hook", true},
		{"other subcommand", "devhooks diag stats", false},
		{"custom", "/custom/my_hook.sh", false},
		{"hook word only", "run hook", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry := HookEntry{Hooks: []HookCommand{{
				Command: tc.command,
			}}}
			require.Equal(t, tc.want, isDevhooksEntry(entry))
		})
	}
}

// TestSettingsRoundTrip verifies unrelated settings survive a load, install
// and save cycle.
func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Missing file loads as empty settings.
	settings, err := LoadSettings(dir)
	require.NoError(t, err)
	require.Empty(t, settings.Hooks)

	initial := `{
  "model": "opus",
  "permissions": {"allow": ["Bash(ls:*)"]},
  "hooks": {
    "Stop": [{"matcher": "", "hooks": [{"type": "command", "command": "/x/stop.sh", "timeout": 60}]}]
  }
}`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, SettingsFileName), []byte(initial), 0o644,
	))

	settings, err = LoadSettings(dir)
	require.NoError(t, err)
	require.Equal(t, 60, settings.Hooks["Stop"][0].Hooks[0].Timeout)

	InstallHooks(settings, "")
	require.NoError(t, SaveSettings(dir, settings))

	data, err := os.ReadFile(SettingsPath(dir))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "opus", raw["model"])
	require.Contains(t, raw, "permissions")

	reloaded, err := LoadSettings(dir)
	require.NoError(t, err)
	require.True(t, IsInstalled(reloaded))
	require.Len(t, reloaded.Hooks["Stop"], 1)

	// Removing everything drops the hooks key but keeps the rest.
	delete(reloaded.Hooks, "Stop")
	UninstallHooks(reloaded)
	require.NoError(t, SaveSettings(dir, reloaded))

	data, err = os.ReadFile(SettingsPath(dir))
	require.NoError(t, err)

	raw = nil
	require.NoError(t, json.Unmarshal(data, &raw))
	require.NotContains(t, raw, "hooks")
	require.Equal(t, "opus", raw["model"])
}

func TestLoadSettingsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, SettingsFileName), []byte("{"), 0o644,
	))

	_, err := LoadSettings(dir)
	require.Error(t, err)
}
