package commands

import (
	"github.com/roasbeef/devhooks/internal/github"
	"github.com/roasbeef/devhooks/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the GitHub and advisory tools over MCP on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout.

Tools:
- get_pr_info, list_pr_files, get_commit_info, create_pr_comment (via gh)
- advise_changes, classify_prompt
- diagnostics_stats (when the event store is enabled)

Register it with: claude mcp add devhooks -- devhooks mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := loadRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	root := getProjectRoot()
	server := mcp.NewServer(mcp.Config{
		GitHub:     github.NewClient(&github.ExecRunner{Dir: root}),
		Advisor:    rt.newAdvisor(root),
		Classifier: rt.newClassifier(),
		Events:     rt.store,
	})

	return server.RunStdio(ctx)
}
