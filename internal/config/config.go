// Package config loads the devhooks TOML configuration.
//
// Resolution order (later overrides earlier):
//  1. Built-in defaults
//  2. The file named by --config, or else .devhooks.toml in the project
//     directory when it exists
//
// Keys missing from the file keep their default value.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/roasbeef/devhooks/internal/advisor"
	"github.com/roasbeef/devhooks/internal/build"
	"github.com/roasbeef/devhooks/internal/lint"
)

// ProjectFileName is the config file looked up in the project directory.
const ProjectFileName = ".devhooks.toml"

// Config is the full devhooks configuration.
type Config struct {
	Advisor     AdvisorConfig     `toml:"advisor"`
	Lint        LintConfig        `toml:"lint"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Log         LogConfig         `toml:"log"`
}

// AdvisorConfig tunes the change advisor.
type AdvisorConfig struct {
	// MaxLines is the line count above which a file is flagged.
	MaxLines int `toml:"max_lines"`

	// Concurrency bounds how many files are analysed at once.
	Concurrency int `toml:"concurrency"`
}

// LintConfig describes the external lint tools.
type LintConfig struct {
	// Enabled turns the external tools on. When false the advisor runs
	// without them.
	Enabled bool `toml:"enabled"`

	// Timeout bounds a single tool run.
	Timeout Duration `toml:"timeout"`

	// JSCommand is the ESLint argv; the file path is appended.
	JSCommand []string `toml:"js_command"`

	// PythonCommand is the Python checker argv; the file path is
	// appended.
	PythonCommand []string `toml:"python_command"`
}

// DiagnosticsConfig selects where diagnostics records go.
type DiagnosticsConfig struct {
	// Enabled turns diagnostics recording on.
	Enabled bool `toml:"enabled"`

	// JSONLPath is the append-only JSONL file. Empty disables it.
	JSONLPath string `toml:"jsonl_path"`

	// DBPath is the sqlite event store. Empty disables it.
	DBPath string `toml:"db_path"`
}

// LogConfig configures the hook logs.
type LogConfig struct {
	// Level is the log level of every subsystem.
	Level string `toml:"level"`

	// Dir is the rotating log file directory. Empty disables file
	// logging.
	Dir string `toml:"dir"`

	// MaxFiles is the number of rotated files kept.
	MaxFiles int `toml:"max_files"`

	// MaxFileSize is the rotation threshold in megabytes.
	MaxFileSize int `toml:"max_file_size"`
}

// Duration is a time.Duration that decodes from strings like "8s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultDataDir returns ~/.devhooks.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".devhooks"
	}

	return filepath.Join(home, ".devhooks")
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()

	return &Config{
		Advisor: AdvisorConfig{
			MaxLines:    advisor.DefaultMaxLines,
			Concurrency: advisor.DefaultConcurrency,
		},
		Lint: LintConfig{
			Enabled:       true,
			Timeout:       Duration{lint.DefaultTimeout},
			JSCommand:     lint.DefaultESLintConfig().Argv,
			PythonCommand: lint.DefaultPythonConfig().Argv,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:   true,
			JSONLPath: filepath.Join(dataDir, "diagnostics.jsonl"),
			DBPath:    filepath.Join(dataDir, "events.db"),
		},
		Log: LogConfig{
			Level:       "info",
			Dir:         filepath.Join(dataDir, "logs"),
			MaxFiles:    build.DefaultMaxLogFiles,
			MaxFileSize: build.DefaultMaxLogFileSize,
		},
	}
}

// ResolvePath picks the config file: explicit wins, else the project file
// when present. An empty result means defaults only.
func ResolvePath(explicit, projectDir string) string {
	if explicit != "" {
		return explicit
	}
	if projectDir == "" {
		return ""
	}

	candidate := filepath.Join(projectDir, ProjectFileName)
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}

	return candidate
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("config file %s not found", path)

	case err != nil:
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		log.Warnf("Ignoring unknown config keys in %s: %s", path,
			strings.Join(keys, ", "))
	}

	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// expandPaths resolves a leading ~ in every path setting.
func (c *Config) expandPaths() {
	c.Diagnostics.JSONLPath = expandHome(c.Diagnostics.JSONLPath)
	c.Diagnostics.DBPath = expandHome(c.Diagnostics.DBPath)
	c.Log.Dir = expandHome(c.Log.Dir)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Advisor.MaxLines <= 0:
		return fmt.Errorf("advisor.max_lines must be positive")

	case c.Advisor.Concurrency <= 0:
		return fmt.Errorf("advisor.concurrency must be positive")

	case c.Lint.Timeout.Duration <= 0:
		return fmt.Errorf("lint.timeout must be positive")

	case c.Lint.Enabled && len(c.Lint.JSCommand) == 0:
		return fmt.Errorf("lint.js_command must not be empty")

	case c.Lint.Enabled && len(c.Lint.PythonCommand) == 0:
		return fmt.Errorf("lint.python_command must not be empty")

	case c.Log.MaxFiles < 0 || c.Log.MaxFileSize < 0:
		return fmt.Errorf("log rotation limits must not be negative")
	}

	return nil
}

// LogRotator returns the rotating log file config, or nil when file
// logging is disabled.
func (c *Config) LogRotator() *build.LogRotatorConfig {
	if c.Log.Dir == "" {
		return nil
	}

	rot := build.DefaultLogRotatorConfig()
	rot.LogDir = c.Log.Dir
	if c.Log.MaxFiles > 0 {
		rot.MaxLogFiles = c.Log.MaxFiles
	}
	if c.Log.MaxFileSize > 0 {
		rot.MaxLogFileSize = c.Log.MaxFileSize
	}

	return rot
}

// JSLint returns the ESLint command config. The launcher failure markers of
// the default command are kept when the command is overridden.
func (c *Config) JSLint() lint.CommandConfig {
	cfg := lint.DefaultESLintConfig()
	cfg.Argv = c.Lint.JSCommand
	cfg.Timeout = c.Lint.Timeout.Duration

	return cfg
}

// PythonLint returns the Python checker command config.
func (c *Config) PythonLint() lint.CommandConfig {
	cfg := lint.DefaultPythonConfig()
	cfg.Argv = c.Lint.PythonCommand
	cfg.Timeout = c.Lint.Timeout.Duration

	return cfg
}
