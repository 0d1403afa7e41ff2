// Package mcp exposes the GitHub helpers and the advisory hooks as Model
// Context Protocol tools.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/roasbeef/devhooks/internal/advisor"
	"github.com/roasbeef/devhooks/internal/build"
	"github.com/roasbeef/devhooks/internal/db"
	"github.com/roasbeef/devhooks/internal/github"
	"github.com/roasbeef/devhooks/internal/intent"
)

// ServerName is the implementation name reported to MCP clients.
const ServerName = "devhooks"

// Server wraps the MCP server with its tool dependencies.
type Server struct {
	server     *mcp.Server
	github     *github.Client
	advisor    *advisor.Advisor
	classifier *intent.Classifier
	events     *db.Store
}

// Config holds the dependencies of the MCP server.
type Config struct {
	// GitHub backs the pull request and commit tools.
	GitHub *github.Client

	// Advisor backs the advise_changes tool.
	Advisor *advisor.Advisor

	// Classifier backs the classify_prompt tool.
	Classifier *intent.Classifier

	// Events is the optional diagnostics store. When nil the
	// diagnostics_stats tool is not registered.
	Events *db.Store
}

// NewServer creates an MCP server with every tool registered. Nil
// dependencies fall back to their defaults.
func NewServer(cfg Config) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: build.Version(),
	}, nil)

	if cfg.GitHub == nil {
		cfg.GitHub = github.NewClient(nil)
	}
	if cfg.Advisor == nil {
		cfg.Advisor = advisor.New(advisor.DefaultConfig())
	}
	if cfg.Classifier == nil {
		cfg.Classifier = intent.NewClassifier(nil)
	}

	s := &Server{
		server:     mcpServer,
		github:     cfg.GitHub,
		advisor:    cfg.Advisor,
		classifier: cfg.Classifier,
		events:     cfg.Events,
	}

	s.registerTools()

	return s
}

// Run serves the MCP protocol on transport until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	log.InfoS(ctx, "MCP server starting", "name", ServerName,
		"version", build.Version())

	return s.server.Run(ctx, transport)
}

// RunStdio serves the MCP protocol on stdin and stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// registerTools registers the GitHub and advisory tools.
func (s *Server) registerTools() {
	// GitHub tools.
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_pr_info",
		Description: "Get title, state, author and size of a pull request",
	}, s.handlePRInfo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_pr_files",
		Description: "List the files changed by a pull request",
	}, s.handlePRFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_commit_info",
		Description: "Get message, author and changed files of a commit",
	}, s.handleCommitInfo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_pr_comment",
		Description: "Post a comment on a pull request",
	}, s.handleCreatePRComment)

	// Advisory tools.
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "advise_changes",
		Description: "Check changed files for missing tests, debug " +
			"output, oversized files and lint findings",
	}, s.handleAdviseChanges)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_prompt",
		Description: "Detect the intent of a prompt and suggest tips",
	}, s.handleClassifyPrompt)

	if s.events != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "diagnostics_stats",
			Description: "Summarize recorded hook invocations",
		}, s.handleDiagnosticsStats)
	}
}
