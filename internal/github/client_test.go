package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunner returns canned output and records the arguments it saw.
type fakeRunner struct {
	out  string
	err  error
	args []string
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	f.args = args
	return []byte(f.out), f.err
}

func TestPRInfo(t *testing.T) {
	runner := &fakeRunner{out: `{
		"number": 42, "title": "Add cache", "state": "OPEN",
		"url": "https://github.com/o/r/pull/42", "body": "desc",
		"author": {"login": "alice"}, "headRefName": "cache",
		"baseRefName": "main", "additions": 10, "deletions": 2
	}`}

	pr, err := NewClient(runner).PRInfo(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, &PullRequest{
		Number:      42,
		Title:       "Add cache",
		State:       "OPEN",
		URL:         "https://github.com/o/r/pull/42",
		Body:        "desc",
		Author:      "alice",
		HeadRefName: "cache",
		BaseRefName: "main",
		Additions:   10,
		Deletions:   2,
	}, pr)
	require.Equal(t, []string{"pr", "view", "42", "--json"},
		runner.args[:4])

	_, err = NewClient(runner).PRInfo(context.Background(), 0)
	require.ErrorContains(t, err, "invalid pull request number")
}

func TestPRFiles(t *testing.T) {
	runner := &fakeRunner{out: `{"files": [
		{"path": "a.go", "additions": 3, "deletions": 1},
		{"path": "b.go", "additions": 0, "deletions": 9}
	]}`}

	files, err := NewClient(runner).PRFiles(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []PullRequestFile{
		{Path: "a.go", Additions: 3, Deletions: 1},
		{Path: "b.go", Deletions: 9},
	}, files)

	runner.out = `{}`
	files, err = NewClient(runner).PRFiles(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Empty(t, files)
}

func TestCommitInfo(t *testing.T) {
	runner := &fakeRunner{out: `{
		"sha": "abc123",
		"commit": {"message": "fix", "author": {"name": "bob",
			"date": "2024-01-01T00:00:00Z"}},
		"stats": {"additions": 4, "deletions": 5},
		"files": [{"filename": "x.go"}, {"filename": "y.go"}]
	}`}

	commit, err := NewClient(runner).CommitInfo(
		context.Background(), "abc123",
	)
	require.NoError(t, err)
	require.Equal(t, "bob", commit.Author)
	require.Equal(t, []string{"x.go", "y.go"}, commit.Files)
	require.Equal(t, []string{"api", "repos/{owner}/{repo}/commits/abc123"},
		runner.args)

	_, err = NewClient(runner).CommitInfo(context.Background(), "../etc")
	require.ErrorContains(t, err, "invalid commit sha")
}

func TestCreatePRComment(t *testing.T) {
	runner := &fakeRunner{
		out: "https://github.com/o/r/pull/3#issuecomment-1\n",
	}

	url, err := NewClient(runner).CreatePRComment(
		context.Background(), 3, "looks good",
	)
	require.NoError(t, err)
	require.Equal(t, "https://github.com/o/r/pull/3#issuecomment-1", url)
	require.Equal(t,
		[]string{"pr", "comment", "3", "--body", "looks good"},
		runner.args)

	_, err = NewClient(runner).CreatePRComment(
		context.Background(), 3, "  ",
	)
	require.Error(t, err)
}

func TestRunnerErrorsPropagate(t *testing.T) {
	runner := &fakeRunner{err: ErrGHUnavailable}

	_, err := NewClient(runner).PRInfo(context.Background(), 1)
	require.ErrorIs(t, err, ErrGHUnavailable)
}

// writeFakeGH installs a shell script named gh in a temp dir.
func writeFakeGH(t *testing.T, script string) string {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	path := filepath.Join(t.TempDir(), "gh")
	require.NoError(t, os.WriteFile(
		path, []byte("#!/bin/sh\n"+script+"\n"), 0o755,
	))

	return path
}

func TestExecRunner(t *testing.T) {
	ctx := context.Background()

	ok := &ExecRunner{Binary: writeFakeGH(t, `echo "args: $*"`)}
	out, err := ok.Run(ctx, "pr", "view", "1")
	require.NoError(t, err)
	require.Equal(t, "args: pr view 1\n", string(out))

	unauth := &ExecRunner{Binary: writeFakeGH(t,
		`echo "To get started with GitHub CLI, please run:  gh auth login" >&2; exit 4`,
	)}
	_, err = unauth.Run(ctx, "pr", "view", "1")
	require.ErrorIs(t, err, ErrGHUnavailable)

	failing := &ExecRunner{Binary: writeFakeGH(t,
		`echo "no pull requests found" >&2; exit 1`,
	)}
	_, err = failing.Run(ctx, "pr", "view", "1")
	require.ErrorContains(t, err, "no pull requests found")
	require.False(t, errors.Is(err, ErrGHUnavailable))

	missing := &ExecRunner{Binary: "devhooks-no-such-gh"}
	_, err = missing.Run(ctx, "pr", "view", "1")
	require.ErrorIs(t, err, ErrGHUnavailable)
}
