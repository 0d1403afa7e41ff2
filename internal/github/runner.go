package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrGHUnavailable is returned when the gh CLI is missing or not logged in.
var ErrGHUnavailable = errors.New(
	"GitHub CLI (gh) is not installed or not authenticated; install it " +
		"and run `gh auth login`",
)

// DefaultTimeout bounds a single gh invocation.
const DefaultTimeout = 30 * time.Second

// Runner runs the gh CLI with args and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs a gh binary as a child process.
type ExecRunner struct {
	// Binary is the gh executable. Empty means "gh" on PATH.
	Binary string

	// Dir is the repository directory gh runs in.
	Dir string

	// Timeout bounds each run. Zero means DefaultTimeout.
	Timeout time.Duration
}

// authHints are stderr fragments gh prints when it has no credentials.
var authHints = []string{
	"gh auth login",
	"not logged into",
	"authentication required",
	"HTTP 401",
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte,
	error) {

	binary := r.Binary
	if binary == "" {
		binary = "gh"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, ErrGHUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("Running gh %s", strings.Join(args, " "))

	err = cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("gh %s timed out after %v", args[0],
			timeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		for _, hint := range authHints {
			if strings.Contains(msg, hint) {
				return nil, fmt.Errorf("%w: %s", ErrGHUnavailable,
					msg)
			}
		}
		if msg == "" {
			msg = err.Error()
		}

		return nil, fmt.Errorf("gh %s failed: %s", args[0], msg)
	}

	return stdout.Bytes(), nil
}
