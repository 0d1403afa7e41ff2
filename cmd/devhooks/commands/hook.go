package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/roasbeef/devhooks/internal/hookio"
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Entry points run by Claude Code hooks",
	Long: `Entry points invoked by Claude Code. Each reads one hook payload on
stdin and writes the response on stdout.

A hook never fails the host session: bad input and internal errors are
logged to stderr and the log file, and the command exits 0 with no output.`,
}

var hookFileChangeCmd = &cobra.Command{
	Use:   "file-change",
	Short: "Advise on files changed by a Write/Edit tool call",
	Long: `Read a file change event from stdin and print advisories.

Accepts either the native {"files": [...], "operation": ...} shape or a
Claude Code PostToolUse payload.`,
	Args: cobra.NoArgs,
	RunE: runHookFileChange,
}

var hookPromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Classify a submitted prompt and print tips",
	Long: `Read a prompt event from stdin, detect its intent and print the
matching suggestions.

Accepts either the native {"prompt", "files", "metadata"} shape or a Claude
Code UserPromptSubmit payload.`,
	Args: cobra.NoArgs,
	RunE: runHookPrompt,
}

func init() {
	hookCmd.AddCommand(hookFileChangeCmd)
	hookCmd.AddCommand(hookPromptCmd)
}

func runHookFileChange(cmd *cobra.Command, args []string) error {
	runHook(cmd, "file change", handleFileChange)
	return nil
}

func runHookPrompt(cmd *cobra.Command, args []string) error {
	runHook(cmd, "prompt", handlePrompt)
	return nil
}

// hookHandler processes one hook payload.
type hookHandler func(ctx context.Context, rt *runtime, r io.Reader,
	w io.Writer, format hookio.Format) error

// runHook runs handler and swallows every failure after logging it.
func runHook(cmd *cobra.Command, name string, handler hookHandler) {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	rt, err := loadRuntime(ctx, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "devhooks: %s hook skipped: %v\n", name, err)
		return
	}
	defer rt.Close()

	format, err := hookio.ParseFormat(outputFormat)
	if err != nil {
		log.ErrorS(ctx, "Hook skipped", err, "hook", name)
		return
	}

	err = handler(ctx, rt, cmd.InOrStdin(), cmd.OutOrStdout(), format)
	if err != nil {
		log.ErrorS(ctx, "Hook failed", err, "hook", name)
	}
}

// handleFileChange decodes a change event, advises on it and encodes the
// result.
func handleFileChange(ctx context.Context, rt *runtime, r io.Reader,
	w io.Writer, format hookio.Format) error {

	in, err := hookio.DecodeChange(r)
	if err != nil {
		return err
	}

	// Relative paths resolve against the project, then the host's cwd.
	root := getProjectDir()
	if root == "" {
		root = in.Cwd
	}

	log.DebugS(ctx, "File change hook",
		"operation", in.Event.Operation,
		"files", len(in.Event.Files),
		"session", in.SessionID,
		"root", root)

	res := rt.newAdvisor(root).Advise(ctx, in.Event)

	return hookio.EncodeAdvice(w, format, res)
}

// handlePrompt decodes a prompt event, classifies it and encodes the
// result.
func handlePrompt(ctx context.Context, rt *runtime, r io.Reader,
	w io.Writer, format hookio.Format) error {

	in, err := hookio.DecodePrompt(r)
	if err != nil {
		return err
	}

	res := rt.newClassifier().Classify(ctx, in.Event)

	return hookio.EncodeIntent(w, format, res)
}
