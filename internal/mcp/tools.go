package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/roasbeef/devhooks/internal/advisor"
	"github.com/roasbeef/devhooks/internal/github"
	"github.com/roasbeef/devhooks/internal/intent"
)

// PRArgs identify a pull request.
type PRArgs struct {
	Number int `json:"number" jsonschema:"Pull request number"`
}

func (s *Server) handlePRInfo(ctx context.Context,
	req *mcp.CallToolRequest, args PRArgs) (*mcp.CallToolResult,
	github.PullRequest, error) {

	pr, err := s.github.PRInfo(ctx, args.Number)
	if err != nil {
		return nil, github.PullRequest{}, err
	}

	return nil, *pr, nil
}

// PRFilesResult is the result of the list_pr_files tool.
type PRFilesResult struct {
	Files []github.PullRequestFile `json:"files"`
}

func (s *Server) handlePRFiles(ctx context.Context,
	req *mcp.CallToolRequest, args PRArgs) (*mcp.CallToolResult,
	PRFilesResult, error) {

	files, err := s.github.PRFiles(ctx, args.Number)
	if err != nil {
		return nil, PRFilesResult{}, err
	}

	return nil, PRFilesResult{Files: files}, nil
}

// CommitArgs identify a commit.
type CommitArgs struct {
	SHA string `json:"sha" jsonschema:"Full or abbreviated commit hash"`
}

func (s *Server) handleCommitInfo(ctx context.Context,
	req *mcp.CallToolRequest, args CommitArgs) (*mcp.CallToolResult,
	github.Commit, error) {

	commit, err := s.github.CommitInfo(ctx, args.SHA)
	if err != nil {
		return nil, github.Commit{}, err
	}

	return nil, *commit, nil
}

// CreatePRCommentArgs are the arguments for the create_pr_comment tool.
type CreatePRCommentArgs struct {
	Number int    `json:"number" jsonschema:"Pull request number"`
	Body   string `json:"body" jsonschema:"Comment body in markdown"`
}

// CreatePRCommentResult is the result of the create_pr_comment tool.
type CreatePRCommentResult struct {
	URL string `json:"url"`
}

func (s *Server) handleCreatePRComment(ctx context.Context,
	req *mcp.CallToolRequest, args CreatePRCommentArgs) (
	*mcp.CallToolResult, CreatePRCommentResult, error) {

	url, err := s.github.CreatePRComment(ctx, args.Number, args.Body)
	if err != nil {
		return nil, CreatePRCommentResult{}, err
	}

	return nil, CreatePRCommentResult{URL: url}, nil
}

// FileArg is one changed file.
type FileArg struct {
	Path       string `json:"path" jsonschema:"File path"`
	ChangeType string `json:"change_type,omitempty" jsonschema:"created, modified or deleted,default=modified"`
}

// AdviseChangesArgs are the arguments for the advise_changes tool.
type AdviseChangesArgs struct {
	Files     []FileArg `json:"files" jsonschema:"Changed files to inspect"`
	Operation string    `json:"operation,omitempty" jsonschema:"Operation that changed the files"`
}

func (s *Server) handleAdviseChanges(ctx context.Context,
	req *mcp.CallToolRequest, args AdviseChangesArgs) (
	*mcp.CallToolResult, advisor.Result, error) {

	ev := advisor.ChangeEvent{
		Files:     make([]advisor.FileChange, 0, len(args.Files)),
		Operation: args.Operation,
	}
	if ev.Operation == "" {
		ev.Operation = "mcp"
	}

	for _, f := range args.Files {
		changeType := advisor.ChangeModified
		if f.ChangeType != "" {
			ct, err := advisor.ParseChangeType(f.ChangeType)
			if err != nil {
				return nil, advisor.Result{}, fmt.Errorf("%s: %w",
					f.Path, err)
			}
			changeType = ct
		}

		ev.Files = append(ev.Files, advisor.FileChange{
			FilePath:   f.Path,
			ChangeType: changeType,
		})
	}

	return nil, s.advisor.Advise(ctx, ev), nil
}

// ClassifyPromptArgs are the arguments for the classify_prompt tool.
type ClassifyPromptArgs struct {
	Prompt   string         `json:"prompt" jsonschema:"Prompt text to classify"`
	Files    []string       `json:"files,omitempty" jsonschema:"File context references"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"Metadata passed through to the result"`
}

func (s *Server) handleClassifyPrompt(ctx context.Context,
	req *mcp.CallToolRequest, args ClassifyPromptArgs) (
	*mcp.CallToolResult, intent.Result, error) {

	files := make([]any, len(args.Files))
	for i, f := range args.Files {
		files[i] = f
	}

	return nil, s.classifier.Classify(ctx, intent.PromptEvent{
		Prompt:   args.Prompt,
		Files:    files,
		Metadata: args.Metadata,
	}), nil
}

// DiagnosticsStatsArgs take no parameters.
type DiagnosticsStatsArgs struct{}

// DiagnosticsStatsResult summarizes the diagnostics store.
type DiagnosticsStatsResult struct {
	TotalEvents      int64            `json:"total_events"`
	FileChangeEvents int64            `json:"file_change_events"`
	PromptEvents     int64            `json:"prompt_events"`
	FilesAnalysed    int64            `json:"files_analysed"`
	Warnings         int64            `json:"warnings"`
	Intents          map[string]int64 `json:"intents"`
	Oldest           string           `json:"oldest,omitempty"`
}

func (s *Server) handleDiagnosticsStats(ctx context.Context,
	req *mcp.CallToolRequest, args DiagnosticsStatsArgs) (
	*mcp.CallToolResult, DiagnosticsStatsResult, error) {

	stats, err := s.events.Stats(ctx)
	if err != nil {
		return nil, DiagnosticsStatsResult{}, err
	}

	res := DiagnosticsStatsResult{
		TotalEvents:      stats.TotalEvents,
		FileChangeEvents: stats.FileChangeEvents,
		PromptEvents:     stats.PromptEvents,
		FilesAnalysed:    stats.FilesAnalysed,
		Warnings:         stats.Warnings,
		Intents:          stats.Intents,
	}
	if stats.Oldest != nil {
		res.Oldest = stats.Oldest.UTC().Format(time.RFC3339)
	}

	return nil, res, nil
}
