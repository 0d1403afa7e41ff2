package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindProjectRoot returns the absolute projectDir when given. Otherwise it
// walks up from the working directory to the nearest directory holding a
// .git entry, falling back to the working directory itself.
func FindProjectRoot(projectDir string) (string, error) {
	if projectDir != "" {
		abs, err := filepath.Abs(projectDir)
		if err != nil {
			return "", fmt.Errorf("resolve project dir: %w", err)
		}

		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	return findGitRoot(cwd), nil
}

// findGitRoot returns the nearest ancestor of start, inclusive, that
// contains .git, or start when there is none. Worktrees and submodules keep
// a .git file rather than a directory, so either counts.
func findGitRoot(start string) string {
	for dir := start; ; {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
