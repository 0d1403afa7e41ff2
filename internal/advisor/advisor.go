// Package advisor inspects a batch of changed files and produces advisory
// messages. It never fails: every per-file problem degrades to fewer
// advisories.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/devhooks/internal/diag"
	"github.com/roasbeef/devhooks/internal/lint"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxLines is the line count above which a file is flagged as
	// too large.
	DefaultMaxLines = 600

	// DefaultConcurrency bounds the number of files analysed at once.
	DefaultConcurrency = 4
)

// Config holds the advisor's collaborators and thresholds.
type Config struct {
	// MaxLines is the inclusive size limit of a file.
	MaxLines int

	// Concurrency bounds the number of files analysed in parallel.
	Concurrency int

	// JSLinter checks .js/.jsx/.ts/.tsx files.
	JSLinter lint.Linter

	// PyLinter checks .py files.
	PyLinter lint.Linter

	// Sink receives one diagnostics record per Advise call.
	Sink diag.Sink

	// Root resolves relative file paths. Empty means the working
	// directory.
	Root string

	// Now is the clock used for diagnostics records.
	Now func() time.Time
}

// DefaultConfig returns a Config with the default thresholds, no lint
// tools and no diagnostics.
func DefaultConfig() Config {
	return Config{
		MaxLines:    DefaultMaxLines,
		Concurrency: DefaultConcurrency,
		JSLinter:    lint.Nop,
		PyLinter:    lint.Nop,
		Sink:        diag.Discard,
		Now:         time.Now,
	}
}

// Advisor produces advisories for file change batches.
type Advisor struct {
	cfg Config
}

// New returns an Advisor. Zero-valued fields of cfg take their defaults.
func New(cfg Config) *Advisor {
	def := DefaultConfig()
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = def.MaxLines
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.JSLinter == nil {
		cfg.JSLinter = def.JSLinter
	}
	if cfg.PyLinter == nil {
		cfg.PyLinter = def.PyLinter
	}
	if cfg.Sink == nil {
		cfg.Sink = def.Sink
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}

	return &Advisor{cfg: cfg}
}

// Advise analyses every file in ev and returns the combined advisories in
// input file order. Files not yet started when ctx is cancelled are
// skipped; advisories for files already analysed are still returned.
func (a *Advisor) Advise(ctx context.Context, ev ChangeEvent) Result {
	reports := make([]fileReport, len(ev.Files))

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)

	for i, fc := range ev.Files {
		if ctx.Err() != nil {
			log.DebugS(ctx, "Advise cancelled, skipping remaining files",
				"skipped", len(ev.Files)-i)
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			reports[i] = a.safeAnalyse(ctx, fc)
			return nil
		})
	}
	_ = g.Wait()

	res := newResult()
	for _, r := range reports {
		res.merge(r)
	}

	diag.Emit(ctx, a.cfg.Sink, diag.NewChangeRecord(
		a.cfg.Now(), ev.Operation, len(ev.Files),
		len(res.Notifications), len(res.Warnings), len(res.Errors),
	))

	return res
}

// safeAnalyse isolates a single file: errors and panics are logged and
// yield an empty report.
func (a *Advisor) safeAnalyse(ctx context.Context,
	fc FileChange) (report fileReport) {

	defer func() {
		if r := recover(); r != nil {
			log.ErrorS(ctx, "Panic while analysing file",
				fmt.Errorf("%v", r), "path", fc.FilePath,
				"stack", string(debug.Stack()))

			report = fileReport{}
		}
	}()

	report, err := a.analyse(ctx, fc)
	if err != nil {
		log.WarnS(ctx, "Unable to analyse file", err,
			"path", fc.FilePath, "change", fc.ChangeType)

		return fileReport{}
	}

	return report
}

// resolve returns the filesystem path for a file change.
func (a *Advisor) resolve(path string) string {
	if a.cfg.Root == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(a.cfg.Root, path)
}

// readContent returns the file content, or None if the file does not exist.
func readContent(path string) (fn.Option[string], error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fn.None[string](), nil

	case err != nil:
		return fn.None[string](), err
	}

	return fn.Some(string(data)), nil
}

func (a *Advisor) analyse(ctx context.Context,
	fc FileChange) (fileReport, error) {

	var report fileReport

	path := fc.FilePath
	diskPath := a.resolve(path)
	ext := Ext(path)

	content, err := readContent(diskPath)
	if err != nil {
		return fileReport{}, fmt.Errorf("read %s: %w", path, err)
	}

	log.TraceS(ctx, "Analysing file", "path", path, "ext", ext,
		"exists", content.IsSome())

	content.WhenSome(func(src string) {
		switch {
		case jsExtensions[ext]:
			a.checkJS(ctx, &report, path, diskPath, src)

		case ext == ".py":
			a.checkPython(ctx, &report, path, diskPath, src)
		}
	})

	switch {
	case IsTestFile(path):
		report.notify("Test file modified: %s", path)

	case IsSourceFile(path):
		expected := ExpectedTestPath(path)
		_, err := os.Stat(a.resolve(expected))
		if errors.Is(err, fs.ErrNotExist) {
			report.warn("No test file found for %s (expected %s)",
				path, expected)
		}
	}

	content.WhenSome(func(src string) {
		if n := countLines(src); n > a.cfg.MaxLines {
			report.warn("%s has %d lines (limit %d); consider "+
				"splitting it into smaller modules", path, n,
				a.cfg.MaxLines)
		}
	})

	return report, nil
}

func (a *Advisor) checkJS(ctx context.Context, report *fileReport, path,
	diskPath, src string) {

	if n := countConsoleLogs(src); n > 0 {
		report.warn("Found %d console.log statement(s) in %s", n, path)
	}

	if n := countTodos(src); n > 0 {
		report.notify("Found %d TODO/FIXME comment(s) in %s", n, path)
	}

	lintReport, err := a.cfg.JSLinter.Lint(ctx, diskPath).Unpack()
	switch {
	case err != nil:
		log.DebugS(ctx, "ESLint unavailable", "path", path,
			"reason", err)

	case lintReport.Passed:
		report.notify("ESLint check passed for %s", path)

	default:
		if n := countLintErrors(lintReport.Output); n > 0 {
			report.warn("ESLint found %d issue(s) in %s", n, path)
		}
	}

	if hasLongFunction(src) {
		report.warn("Long function detected in %s (over %d lines); "+
			"consider breaking it up", path, longFunctionWindow)
	}
}

func (a *Advisor) checkPython(ctx context.Context, report *fileReport, path,
	diskPath, src string) {

	if n := countPythonPrints(src); n > 0 {
		report.warn("Found %d print() statement(s) in %s", n, path)
	}

	lintReport, err := a.cfg.PyLinter.Lint(ctx, diskPath).Unpack()
	switch {
	case err != nil:
		log.DebugS(ctx, "Python checker unavailable", "path", path,
			"reason", err)

	case lintReport.Passed:
		report.notify("Python check passed for %s", path)

	case lintReport.Output != "":
		report.warn("Python check found issues in %s", path)
	}
}
