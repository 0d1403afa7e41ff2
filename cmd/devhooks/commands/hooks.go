package commands

import (
	"fmt"
	"io"

	"github.com/roasbeef/devhooks/internal/config"
	"github.com/roasbeef/devhooks/internal/hooks"
	"github.com/spf13/cobra"
)

var (
	// hooksScope selects the settings file: user or project.
	hooksScope string

	// hooksBinary is the devhooks command written into settings.json.
	hooksBinary string
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage Claude Code hooks integration",
	Long: `Manage the devhooks entries in Claude Code's settings.json.

devhooks registers two hooks:
- PostToolUse (Write|Edit|MultiEdit): advisories on the changed file
- UserPromptSubmit: intent detection and tips for the prompt

Entries from other tools and all other settings are left untouched.`,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the devhooks hooks in settings.json",
	Long: `Add the devhooks hook entries to settings.json. Running install
twice is a no-op.`,
	RunE: runHooksInstall,
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the devhooks hooks from settings.json",
	RunE:  runHooksUninstall,
}

var hooksStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check devhooks hooks installation status",
	RunE:  runHooksStatus,
}

func init() {
	hooksCmd.PersistentFlags().StringVar(
		&hooksScope, "scope", "user",
		"Settings scope: user (~/.claude) or project "+
			"(<project>/.claude)",
	)
	hooksInstallCmd.Flags().StringVar(
		&hooksBinary, "binary", hooks.DefaultBinary,
		"devhooks command to run from the hooks",
	)

	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)
	hooksCmd.AddCommand(hooksStatusCmd)
}

// getClaudeDir returns the .claude directory for the selected scope.
func getClaudeDir() (string, error) {
	switch hooksScope {
	case "user", "":
		return hooks.UserClaudeDir(), nil

	case "project":
		dir, err := config.FindProjectRoot(getProjectDir())
		if err != nil {
			return "", err
		}
		return hooks.ProjectClaudeDir(dir), nil

	default:
		return "", fmt.Errorf("unknown scope %q (want user or project)",
			hooksScope)
	}
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	claudeDir, err := getClaudeDir()
	if err != nil {
		return err
	}

	return installHooks(cmd.OutOrStdout(), claudeDir, hooksBinary)
}

// installHooks registers the devhooks entries in claudeDir.
func installHooks(w io.Writer, claudeDir, binary string) error {
	settings, err := hooks.LoadSettings(claudeDir)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	added := hooks.InstallHooks(settings, binary)
	if len(added) == 0 {
		fmt.Fprintf(w, "devhooks hooks already installed in %s\n",
			hooks.SettingsPath(claudeDir))
		return nil
	}

	if err := hooks.SaveSettings(claudeDir, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Fprintln(w, "devhooks hooks installed successfully!")
	fmt.Fprintf(w, "  - Settings: %s\n", hooks.SettingsPath(claudeDir))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Hooks installed:")
	for _, event := range added {
		fmt.Fprintf(w, "  - %s\n", event)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Start a new Claude Code session to activate the hooks.")

	return nil
}

func runHooksUninstall(cmd *cobra.Command, args []string) error {
	claudeDir, err := getClaudeDir()
	if err != nil {
		return err
	}

	return uninstallHooks(cmd.OutOrStdout(), claudeDir)
}

// uninstallHooks removes the devhooks entries from claudeDir.
func uninstallHooks(w io.Writer, claudeDir string) error {
	settings, err := hooks.LoadSettings(claudeDir)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	removed := hooks.UninstallHooks(settings)
	if len(removed) == 0 {
		fmt.Fprintln(w, "devhooks hooks are not installed.")
		return nil
	}

	if err := hooks.SaveSettings(claudeDir, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Fprintln(w, "devhooks hooks uninstalled.")
	fmt.Fprintf(w, "  - Updated: %s\n", hooks.SettingsPath(claudeDir))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Restart your Claude Code session for changes to "+
		"take effect.")

	return nil
}

func runHooksStatus(cmd *cobra.Command, args []string) error {
	claudeDir, err := getClaudeDir()
	if err != nil {
		return err
	}

	return hooksStatus(cmd.OutOrStdout(), claudeDir)
}

// hooksStatus reports which devhooks events are registered in claudeDir.
func hooksStatus(w io.Writer, claudeDir string) error {
	settings, err := hooks.LoadSettings(claudeDir)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	installed := hooks.InstalledEvents(settings)
	settingsPath := hooks.SettingsPath(claudeDir)

	switch outputFormat {
	case "json":
		if installed == nil {
			installed = []string{}
		}
		return outputJSON(w, map[string]any{
			"installed":     hooks.IsInstalled(settings),
			"hook_events":   installed,
			"settings_path": settingsPath,
		})

	default:
		fmt.Fprintln(w, "devhooks Hooks Status")
		fmt.Fprintln(w, "=====================")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Settings: %s\n", settingsPath)

		if hooks.IsInstalled(settings) {
			fmt.Fprintln(w, "Status: installed")
		} else if len(installed) > 0 {
			fmt.Fprintln(w, "Status: partially installed")
		} else {
			fmt.Fprintln(w, "Status: not installed")
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Run 'devhooks hooks install' to install.")
			return nil
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Hook events:")
		for _, event := range installed {
			fmt.Fprintf(w, "  - %s\n", event)
		}
	}

	return nil
}
