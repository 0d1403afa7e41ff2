// Package github reads pull requests and commits, and posts PR comments,
// through the gh CLI.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// shaPattern accepts abbreviated and full commit hashes.
var shaPattern = regexp.MustCompile(`^[0-9a-fA-F]{4,40}$`)

// PullRequest is the summary of a pull request.
type PullRequest struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	State       string `json:"state"`
	URL         string `json:"url"`
	Body        string `json:"body"`
	Author      string `json:"author"`
	HeadRefName string `json:"headRefName"`
	BaseRefName string `json:"baseRefName"`
	Additions   int    `json:"additions"`
	Deletions   int    `json:"deletions"`
}

// PullRequestFile is a file touched by a pull request.
type PullRequestFile struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Commit is the summary of a commit.
type Commit struct {
	SHA       string   `json:"sha"`
	Message   string   `json:"message"`
	Author    string   `json:"author"`
	Date      string   `json:"date"`
	Additions int      `json:"additions"`
	Deletions int      `json:"deletions"`
	Files     []string `json:"files"`
}

// Client wraps the gh CLI.
type Client struct {
	runner Runner
}

// NewClient returns a Client using runner. A nil runner uses gh from PATH.
func NewClient(runner Runner) *Client {
	if runner == nil {
		runner = &ExecRunner{}
	}

	return &Client{runner: runner}
}

func validateNumber(number int) error {
	if number <= 0 {
		return fmt.Errorf("invalid pull request number %d", number)
	}

	return nil
}

// PRInfo returns the summary of pull request number.
func (c *Client) PRInfo(ctx context.Context, number int) (*PullRequest,
	error) {

	if err := validateNumber(number); err != nil {
		return nil, err
	}

	out, err := c.runner.Run(ctx, "pr", "view", strconv.Itoa(number),
		"--json", "number,title,state,url,body,author,headRefName,"+
			"baseRefName,additions,deletions")
	if err != nil {
		return nil, err
	}

	var raw struct {
		PullRequest
		Author struct {
			Login string `json:"login"`
		} `json:"author"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse gh pr view output: %w", err)
	}

	pr := raw.PullRequest
	pr.Author = raw.Author.Login

	return &pr, nil
}

// PRFiles lists the files changed by pull request number.
func (c *Client) PRFiles(ctx context.Context,
	number int) ([]PullRequestFile, error) {

	if err := validateNumber(number); err != nil {
		return nil, err
	}

	out, err := c.runner.Run(ctx, "pr", "view", strconv.Itoa(number),
		"--json", "files")
	if err != nil {
		return nil, err
	}

	var raw struct {
		Files []PullRequestFile `json:"files"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse gh pr files output: %w", err)
	}
	if raw.Files == nil {
		raw.Files = []PullRequestFile{}
	}

	return raw.Files, nil
}

// CommitInfo returns the summary of commit sha in the current repository.
func (c *Client) CommitInfo(ctx context.Context, sha string) (*Commit,
	error) {

	if !shaPattern.MatchString(sha) {
		return nil, fmt.Errorf("invalid commit sha %q", sha)
	}

	out, err := c.runner.Run(ctx, "api",
		"repos/{owner}/{repo}/commits/"+sha)
	if err != nil {
		return nil, err
	}

	var raw struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string `json:"name"`
				Date string `json:"date"`
			} `json:"author"`
		} `json:"commit"`
		Stats struct {
			Additions int `json:"additions"`
			Deletions int `json:"deletions"`
		} `json:"stats"`
		Files []struct {
			Filename string `json:"filename"`
		} `json:"files"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse gh api commit output: %w", err)
	}

	commit := &Commit{
		SHA:       raw.SHA,
		Message:   raw.Commit.Message,
		Author:    raw.Commit.Author.Name,
		Date:      raw.Commit.Author.Date,
		Additions: raw.Stats.Additions,
		Deletions: raw.Stats.Deletions,
		Files:     make([]string, 0, len(raw.Files)),
	}
	for _, f := range raw.Files {
		commit.Files = append(commit.Files, f.Filename)
	}

	return commit, nil
}

// CreatePRComment posts body on pull request number and returns the URL
// of the new comment.
func (c *Client) CreatePRComment(ctx context.Context, number int,
	body string) (string, error) {

	if err := validateNumber(number); err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("comment body must not be empty")
	}

	out, err := c.runner.Run(ctx, "pr", "comment", strconv.Itoa(number),
		"--body", body)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}
