// Package lint runs external lint tools against a single file. Every tool
// failure mode (missing binary, timeout, launch error) is reported as an Err
// result so callers can degrade silently.
package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

var (
	// ErrUnavailable is returned when the tool binary cannot be found or
	// started.
	ErrUnavailable = errors.New("lint tool unavailable")

	// ErrTimeout is returned when the tool exceeds its time budget.
	ErrTimeout = errors.New("lint tool timed out")
)

// Report is the outcome of a lint tool that ran to completion.
type Report struct {
	// Tool is the name of the executable that produced the report.
	Tool string

	// Passed is true when the tool exited cleanly.
	Passed bool

	// Output is the combined stdout and stderr of the tool.
	Output string
}

// Linter checks a single file.
type Linter interface {
	// Lint runs the check against path. An Err result means no signal is
	// available; an Ok result carries the pass/fail verdict.
	Lint(ctx context.Context, path string) fn.Result[Report]
}

// LinterFunc adapts a function into a Linter.
type LinterFunc func(ctx context.Context, path string) fn.Result[Report]

// Lint implements Linter.
func (f LinterFunc) Lint(ctx context.Context, path string) fn.Result[Report] {
	return f(ctx, path)
}

// Nop is a Linter that is always unavailable.
var Nop Linter = LinterFunc(
	func(context.Context, string) fn.Result[Report] {
		return fn.Err[Report](ErrUnavailable)
	},
)

// CommandConfig describes an external lint command.
type CommandConfig struct {
	// Argv is the command and leading arguments. The target path is
	// appended as the final argument.
	Argv []string

	// Timeout bounds a single run. Zero means DefaultTimeout.
	Timeout time.Duration

	// Dir is the working directory of the tool. Empty means the current
	// directory. A bare tool name is first looked up in
	// Dir/node_modules/.bin before PATH.
	Dir string

	// UnavailableExitCodes are exit codes the tool uses for its own
	// failures (bad config, crash) rather than findings.
	UnavailableExitCodes []int

	// UnavailableMarkers are output fragments printed by a launcher that
	// could not start the tool. A failed run whose output contains one of
	// them is unavailable, not a lint failure.
	UnavailableMarkers []string
}

// DefaultTimeout bounds a lint run when no timeout is configured.
const DefaultTimeout = 8 * time.Second

// DefaultESLintConfig runs eslint from the project's node_modules, falling
// back to PATH. ESLint exits 2 on configuration or internal errors.
func DefaultESLintConfig() CommandConfig {
	return CommandConfig{
		Argv:                 []string{"eslint"},
		Timeout:              DefaultTimeout,
		UnavailableExitCodes: []int{2},
		UnavailableMarkers:   []string{"npm error", "npm ERR!"},
	}
}

// DefaultPythonConfig runs pyflakes, which reports only error-level
// findings.
func DefaultPythonConfig() CommandConfig {
	return CommandConfig{
		Argv:               []string{"python3", "-m", "pyflakes"},
		Timeout:            DefaultTimeout,
		UnavailableMarkers: []string{"No module named"},
	}
}

// CommandLinter runs a CommandConfig as a child process.
type CommandLinter struct {
	cfg CommandConfig
}

// NewCommandLinter returns a linter for cfg.
func NewCommandLinter(cfg CommandConfig) *CommandLinter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &CommandLinter{cfg: cfg}
}

// Lint implements Linter.
func (c *CommandLinter) Lint(ctx context.Context,
	path string) fn.Result[Report] {

	if len(c.cfg.Argv) == 0 {
		return fn.Err[Report](fmt.Errorf("%w: empty command",
			ErrUnavailable))
	}

	tool := c.cfg.Argv[0]
	bin, err := c.resolve(tool)
	if err != nil {
		log.Debugf("Lint tool %s not found: %v", tool, err)
		return fn.Err[Report](fmt.Errorf("%w: %s", ErrUnavailable, tool))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	args := append(append([]string{}, c.cfg.Argv[1:]...), path)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = c.cfg.Dir
	cmd.WaitDelay = time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err = cmd.Run()

	log.Tracef("Lint %s %s finished in %v: %v", tool, path,
		time.Since(start), err)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fn.Err[Report](fmt.Errorf("%w after %v: %s",
				ErrTimeout, c.cfg.Timeout, tool))
		}

		return fn.Err[Report](ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return fn.Ok(Report{Tool: tool, Passed: true, Output: out.String()})

	case errors.As(err, &exitErr) && c.launchFailed(exitErr, out.String()):
		log.Debugf("Lint tool %s could not run (exit %d): %s", tool,
			exitErr.ExitCode(), strings.TrimSpace(out.String()))

		return fn.Err[Report](fmt.Errorf("%w: %s exited %d",
			ErrUnavailable, tool, exitErr.ExitCode()))

	case exitErr != nil:
		return fn.Ok(Report{
			Tool:   tool,
			Passed: false,
			Output: out.String(),
		})

	default:
		return fn.Err[Report](fmt.Errorf("%w: %s: %v", ErrUnavailable,
			tool, err))
	}
}

// resolve locates the tool binary. Bare names prefer the project-local
// node_modules/.bin entry.
func (c *CommandLinter) resolve(tool string) (string, error) {
	if c.cfg.Dir != "" && !strings.ContainsRune(tool, filepath.Separator) {
		local, err := filepath.Abs(
			filepath.Join(c.cfg.Dir, "node_modules", ".bin", tool),
		)
		if err != nil {
			return "", err
		}

		if info, err := os.Stat(local); err == nil &&
			info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {

			return local, nil
		}
	}

	return exec.LookPath(tool)
}

// launchFailed reports whether a non-zero exit came from the launcher or
// the tool itself failing rather than from findings.
func (c *CommandLinter) launchFailed(exitErr *exec.ExitError,
	output string) bool {

	if slices.Contains(c.cfg.UnavailableExitCodes, exitErr.ExitCode()) {
		return true
	}

	for _, marker := range c.cfg.UnavailableMarkers {
		if strings.Contains(output, marker) {
			return true
		}
	}

	return false
}
