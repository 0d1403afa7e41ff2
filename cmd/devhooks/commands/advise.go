package commands

import (
	"context"
	"io"
	"strings"

	"github.com/roasbeef/devhooks/internal/advisor"
	"github.com/roasbeef/devhooks/internal/hookio"
	"github.com/roasbeef/devhooks/internal/intent"
	"github.com/spf13/cobra"
)

var (
	adviseChangeType string
	adviseOperation  string
)

var adviseCmd = &cobra.Command{
	Use:   "advise <path>...",
	Short: "Run the file change checks on the given paths",
	Long: `Run the same checks as the file-change hook on the given paths and
print the advisories. Relative paths resolve against --project, or the
enclosing git repository.`,
	Example: `  devhooks advise src/app.js src/util.py
  devhooks advise --change-type deleted old.js
  devhooks advise --format json --no-lint src/*.ts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdvise,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <prompt>...",
	Short: "Detect the intent of a prompt",
	Long: `Detect the intent of a prompt and print the matching suggestions.
All arguments are joined with spaces into one prompt.`,
	Example: `  devhooks classify "please review this PR"
  devhooks classify --format json write tests for the parser`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	adviseCmd.Flags().StringVar(
		&adviseChangeType, "change-type", string(advisor.ChangeModified),
		"Change type of every path: created, modified, deleted",
	)
	adviseCmd.Flags().StringVar(
		&adviseOperation, "operation", "cli",
		"Operation name recorded in diagnostics",
	)
}

func runAdvise(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	changeType, err := advisor.ParseChangeType(adviseChangeType)
	if err != nil {
		return err
	}
	format, err := hookio.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	rt, err := loadRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	return advisePaths(
		ctx, rt, cmd.OutOrStdout(), format, args, changeType,
		adviseOperation,
	)
}

// advisePaths advises on paths as a single change event.
func advisePaths(ctx context.Context, rt *runtime, w io.Writer,
	format hookio.Format, paths []string, changeType advisor.ChangeType,
	operation string) error {

	ev := advisor.ChangeEvent{
		Files:     make([]advisor.FileChange, 0, len(paths)),
		Operation: operation,
	}
	for _, path := range paths {
		ev.Files = append(ev.Files, advisor.FileChange{
			FilePath:   path,
			ChangeType: changeType,
		})
	}

	res := rt.newAdvisor(getProjectRoot()).Advise(ctx, ev)

	return hookio.EncodeAdvice(w, format, res)
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := hookio.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	rt, err := loadRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	return classifyPrompt(
		ctx, rt, cmd.OutOrStdout(), format, strings.Join(args, " "),
	)
}

// classifyPrompt classifies a bare prompt with no file context.
func classifyPrompt(ctx context.Context, rt *runtime, w io.Writer,
	format hookio.Format, prompt string) error {

	res := rt.newClassifier().Classify(ctx, intent.PromptEvent{
		Prompt: prompt,
	})

	return hookio.EncodeIntent(w, format, res)
}
