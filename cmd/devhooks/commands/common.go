package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/roasbeef/devhooks/internal/advisor"
	"github.com/roasbeef/devhooks/internal/build"
	"github.com/roasbeef/devhooks/internal/config"
	"github.com/roasbeef/devhooks/internal/db"
	"github.com/roasbeef/devhooks/internal/diag"
	"github.com/roasbeef/devhooks/internal/intent"
	"github.com/roasbeef/devhooks/internal/lint"
)

// errStoreDisabled is returned by commands that need the event store when
// diagnostics.db_path is empty or diagnostics are off.
var errStoreDisabled = errors.New("diagnostics store is disabled " +
	"(set [diagnostics] db_path and enabled = true)")

// runtime holds what a single CLI invocation needs.
type runtime struct {
	cfg   *config.Config
	logs  *build.LogManager
	store *db.Store
	sink  diag.Sink
	now   func() time.Time
}

// getProjectDir returns --project, else $CLAUDE_PROJECT_DIR.
func getProjectDir() string {
	if projectDir != "" {
		return projectDir
	}

	return os.Getenv("CLAUDE_PROJECT_DIR")
}

// getProjectRoot returns the project directory, else the enclosing git
// repository of the working directory, else the working directory.
func getProjectRoot() string {
	root, err := config.FindProjectRoot(getProjectDir())
	if err != nil {
		log.Debugf("Unable to resolve project root: %v", err)
		return getProjectDir()
	}

	return root
}

// loadConfig reads the config file selected by the global flags and applies
// the flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(configPath, getProjectRoot()))
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if noLint {
		cfg.Lint.Enabled = false
	}

	return cfg, nil
}

// loadRuntime loads the config, starts logging on stderr and opens the
// diagnostics sinks. Sinks that fail to open are skipped with a warning so
// a broken store never blocks a hook.
func loadRuntime(ctx context.Context, stderr io.Writer) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logs, err := build.NewLogManager(&build.LogConfig{
		Level:   cfg.Log.Level,
		Console: stderr,
		Rotator: cfg.LogRotator(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start logging: %w", err)
	}
	setupLoggers(logs)

	rt := &runtime{
		cfg:  cfg,
		logs: logs,
		now:  time.Now,
	}

	sinks := diag.MultiSink{diag.LogSink{}}
	if cfg.Diagnostics.Enabled {
		if path := cfg.Diagnostics.JSONLPath; path != "" {
			jsonl, err := diag.NewJSONLSink(path)
			if err != nil {
				log.WarnS(ctx, "Diagnostics file disabled", err,
					"path", path)
			} else {
				sinks = append(sinks, jsonl)
			}
		}

		if path := cfg.Diagnostics.DBPath; path != "" {
			store, err := db.NewSqliteStore(&db.SqliteConfig{
				DatabaseFileName: path,
			})
			if err != nil {
				log.WarnS(ctx, "Diagnostics store disabled", err,
					"path", path)
			} else {
				rt.store = store
				sinks = append(sinks, diag.NewStoreSink(store))
			}
		}
	}
	rt.sink = sinks

	return rt, nil
}

// Close releases the store and flushes the log file.
func (r *runtime) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			log.Warnf("Unable to close diagnostics store: %v", err)
		}
	}
	if r.logs != nil {
		_ = r.logs.Close()
	}
}

// newAdvisor builds an advisor rooted at root with the configured lint
// tools.
func (r *runtime) newAdvisor(root string) *advisor.Advisor {
	cfg := advisor.Config{
		MaxLines:    r.cfg.Advisor.MaxLines,
		Concurrency: r.cfg.Advisor.Concurrency,
		Sink:        r.sink,
		Root:        root,
		Now:         r.now,
	}

	if r.cfg.Lint.Enabled {
		js := r.cfg.JSLint()
		js.Dir = root
		py := r.cfg.PythonLint()
		py.Dir = root

		cfg.JSLinter = lint.NewCommandLinter(js)
		cfg.PyLinter = lint.NewCommandLinter(py)
	}

	return advisor.New(cfg)
}

// newClassifier builds a classifier reporting to the runtime's sinks.
func (r *runtime) newClassifier() *intent.Classifier {
	return intent.NewClassifier(r.sink)
}

// requireStore returns the event store or errStoreDisabled.
func (r *runtime) requireStore() (*db.Store, error) {
	if r.store == nil {
		return nil, errStoreDisabled
	}

	return r.store, nil
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
