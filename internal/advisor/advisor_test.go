package advisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/devhooks/internal/diag"
	"github.com/roasbeef/devhooks/internal/lint"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// harness is an advisor rooted in a temporary project directory.
type harness struct {
	root string
	sink *diag.MemorySink
	adv  *Advisor
}

func newHarness(t *testing.T, mod func(*Config)) *harness {
	t.Helper()

	h := &harness{
		root: t.TempDir(),
		sink: diag.NewMemorySink(),
	}

	cfg := DefaultConfig()
	cfg.Root = h.root
	cfg.Sink = h.sink
	cfg.Now = func() time.Time {
		return time.UnixMilli(1_700_000_000_000)
	}
	if mod != nil {
		mod(&cfg)
	}
	h.adv = New(cfg)

	return h
}

func (h *harness) write(t *testing.T, rel, content string) {
	t.Helper()

	path := filepath.Join(h.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (h *harness) advise(t *testing.T, op string,
	files ...FileChange) Result {

	t.Helper()

	return h.adv.Advise(context.Background(), ChangeEvent{
		Files:     files,
		Operation: op,
	})
}

func modified(path string) FileChange {
	return FileChange{FilePath: path, ChangeType: ChangeModified}
}

// matching returns the messages containing substr.
func matching(msgs []string, substr string) []string {
	var out []string
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			out = append(out, m)
		}
	}

	return out
}

// lines builds content with exactly n newline separated segments.
func lines(n int, line string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = line
	}

	return strings.Join(parts, "\n")
}

func staticLinter(passed bool, output string) lint.Linter {
	return lint.LinterFunc(
		func(context.Context, string) fn.Result[lint.Report] {
			return fn.Ok(lint.Report{
				Tool:   "fake",
				Passed: passed,
				Output: output,
			})
		},
	)
}

// TestAdviseEmptyBatch verifies an empty batch yields empty lists and a
// single zeroed diagnostics record.
func TestAdviseEmptyBatch(t *testing.T) {
	h := newHarness(t, nil)

	res := h.advise(t, "Write")
	require.Empty(t, res.Notifications)
	require.Empty(t, res.Warnings)
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Notifications)
	require.True(t, res.Empty())

	events := h.sink.Events()
	require.Len(t, events, 1)

	rec, ok := events[0].(diag.ChangeRecord)
	require.True(t, ok)
	require.Equal(t, "Write", rec.Operation)
	require.Zero(t, rec.FileCount)
	require.Zero(t, rec.Warnings)
}

// TestAdviseTestFile verifies a test file gets one notification and no
// missing test warning.
func TestAdviseTestFile(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "src/utils.test.js", "test('adds', () => {});\n")

	res := h.advise(t, "Edit", modified("src/utils.test.js"))

	require.Equal(t, []string{
		"Test file modified: src/utils.test.js",
	}, res.Notifications)
	require.Empty(t, matching(res.Warnings, "No test file"))
}

// TestAdviseMissingTest verifies the missing sibling test warning names the
// primary conventional test file, and disappears once it exists.
func TestAdviseMissingTest(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "src/calc.js", "export const add = (a, b) => a + b;\n")

	res := h.advise(t, "Write", modified("src/calc.js"))
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "calc.test.js")
	require.Empty(t, res.Notifications)

	h.write(t, "src/calc.test.js", "")
	res = h.advise(t, "Write", modified("src/calc.js"))
	require.Empty(t, res.Warnings)
}

// TestAdviseDeletedFile verifies a deleted source file skips content checks
// but still goes through the test convention check.
func TestAdviseDeletedFile(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.JSLinter = staticLinter(true, "")
	})

	res := h.advise(t, "Edit", FileChange{
		FilePath:   "lib/gone.ts",
		ChangeType: ChangeDeleted,
	})
	require.Empty(t, res.Notifications)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "gone.test.ts")
}

// TestAdviseSizeBoundary verifies the size warning fires strictly above the
// limit.
func TestAdviseSizeBoundary(t *testing.T) {
	tests := []struct {
		lines           int
		trailingNewline bool
		wantWarn        bool
	}{
		{lines: 599},
		{lines: 600},
		{lines: 600, trailingNewline: true},
		{lines: 601, wantWarn: true},
		{lines: 601, trailingNewline: true, wantWarn: true},
		{lines: 2000, wantWarn: true},
	}

	for _, tc := range tests {
		name := fmt.Sprintf("%d_lines", tc.lines)
		if tc.trailingNewline {
			name += "_trailing_newline"
		}

		t.Run(name, func(t *testing.T) {
			content := lines(tc.lines, "text")
			if tc.trailingNewline {
				content += "\n"
			}

			h := newHarness(t, nil)
			h.write(t, "notes.txt", content)

			res := h.advise(t, "Write", modified("notes.txt"))
			if !tc.wantWarn {
				require.Empty(t, res.Warnings)
				return
			}

			require.Len(t, res.Warnings, 1)
			require.Contains(t, res.Warnings[0],
				fmt.Sprintf("%d lines", tc.lines))
		})
	}
}

// TestAdviseConsoleLogCount verifies the console.log warning embeds the
// exact count and is absent for zero occurrences.
func TestAdviseConsoleLogCount(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "n")

		h := newHarness(t, nil)

		var sb strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "console.log('step %d');\n", i)
		}
		sb.WriteString("export default 1;\n")
		h.write(t, "app/__tests__/main.test.js", sb.String())

		res := h.advise(t, "Write", modified("app/__tests__/main.test.js"))

		logs := matching(res.Warnings, "console.log")
		if n == 0 {
			require.Empty(rt, logs)
			return
		}

		require.Equal(rt, []string{fmt.Sprintf(
			"Found %d console.log statement(s) in "+
				"app/__tests__/main.test.js", n,
		)}, logs)
	})
}

// TestAdviseTodos verifies TODO and FIXME line comments are counted.
func TestAdviseTodos(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "tests/a.ts", strings.Join([]string{
		"// TODO: rename",
		"const a = 1; //FIXME later",
		"/* TODO block comments are not counted */",
		"// TODOS is not a marker",
	}, "\n"))

	res := h.advise(t, "Edit", modified("tests/a.ts"))
	require.Contains(t, res.Notifications,
		"Found 2 TODO/FIXME comment(s) in tests/a.ts")
}

// TestAdviseJSLint covers the lint tool outcomes.
func TestAdviseJSLint(t *testing.T) {
	tests := []struct {
		name      string
		linter    lint.Linter
		wantNote  string
		wantWarns []string
	}{
		{
			name:     "clean",
			linter:   staticLinter(true, ""),
			wantNote: "ESLint check passed for test/x.jsx",
		},
		{
			name: "errors counted",
			linter: staticLinter(false,
				"1:1 error no-undef\n2:3 error semi\n"),
			wantWarns: []string{
				"ESLint found 2 issue(s) in test/x.jsx",
			},
		},
		{
			name:   "failure without error token",
			linter: staticLinter(false, "1:1 warning unused\n"),
		},
		{
			name:   "unavailable",
			linter: lint.Nop,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, func(cfg *Config) {
				cfg.JSLinter = tc.linter
			})
			h.write(t, "test/x.jsx", "export const X = () => null;\n")

			res := h.advise(t, "Write", modified("test/x.jsx"))

			lintNotes := matching(res.Notifications, "ESLint")
			if tc.wantNote == "" {
				require.Empty(t, lintNotes)
			} else {
				require.Equal(t, []string{tc.wantNote}, lintNotes)
			}
			require.Equal(t, tc.wantWarns,
				matching(res.Warnings, "ESLint"))
		})
	}
}

// TestAdviseLinterPath verifies relative paths reach the linter resolved
// against the project root.
func TestAdviseLinterPath(t *testing.T) {
	var got string
	h := newHarness(t, func(cfg *Config) {
		cfg.JSLinter = lint.LinterFunc(
			func(_ context.Context, p string) fn.Result[lint.Report] {
				got = p
				return fn.Err[lint.Report](lint.ErrUnavailable)
			},
		)
	})
	h.write(t, "web/app.js", "")

	h.advise(t, "Write", modified("web/app.js"))
	require.Equal(t, filepath.Join(h.root, "web/app.js"), got)
}

// TestAdvisePython covers the print counter and the static checker.
func TestAdvisePython(t *testing.T) {
	src := strings.Join([]string{
		"def main():",
		"    print('a')",
		"    print ('not counted')",
		"    reprint('not counted')",
		"    print(1)",
	}, "\n")

	tests := []struct {
		name      string
		linter    lint.Linter
		wantNotes []string
		wantWarns []string
	}{
		{
			name:      "clean",
			linter:    staticLinter(true, ""),
			wantNotes: []string{"Python check passed for tests/job.py"},
			wantWarns: []string{
				"Found 2 print() statement(s) in tests/job.py",
			},
		},
		{
			name:   "issues",
			linter: staticLinter(false, "job.py:1: undefined name"),
			wantWarns: []string{
				"Found 2 print() statement(s) in tests/job.py",
				"Python check found issues in tests/job.py",
			},
		},
		{
			name:   "failure without output",
			linter: staticLinter(false, ""),
			wantWarns: []string{
				"Found 2 print() statement(s) in tests/job.py",
			},
		},
		{
			name:   "unavailable",
			linter: lint.Nop,
			wantWarns: []string{
				"Found 2 print() statement(s) in tests/job.py",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, func(cfg *Config) {
				cfg.PyLinter = tc.linter
			})
			h.write(t, "tests/job.py", src)

			res := h.advise(t, "Edit", modified("tests/job.py"))

			wantNotes := append(
				tc.wantNotes, "Test file modified: tests/job.py",
			)
			require.Equal(t, wantNotes, res.Notifications)
			require.Equal(t, tc.wantWarns, res.Warnings)
		})
	}
}

// TestAdviseLongFunction verifies the long function warning is emitted once
// per file.
func TestAdviseLongFunction(t *testing.T) {
	body := "function first() {\n" + lines(98, "  step();") + "\n}\n" +
		"function second() {\n" + lines(150, "  step();") + "\n}"

	h := newHarness(t, nil)
	h.write(t, "test/long.js", body)

	res := h.advise(t, "Write", modified("test/long.js"))
	require.Len(t, matching(res.Warnings, "Long function"), 1)
}

// TestAdviseLongFunctionLaterDeclaration verifies a declaration that does
// not fire does not stop the scan of the ones after it.
func TestAdviseLongFunctionLaterDeclaration(t *testing.T) {
	body := "function outer() {\n" + lines(150, "  step();") + "\n}\n" +
		"function inner() {\n" + lines(98, "  step();") + "\n}\n" +
		lines(10, "done();")

	h := newHarness(t, nil)
	h.write(t, "test/later.js", body)

	res := h.advise(t, "Write", modified("test/later.js"))
	require.Len(t, matching(res.Warnings, "Long function"), 1)
}

// TestAdviseFileIsolation verifies an unreadable file and a panicking check
// only drop the advisories of the affected file.
func TestAdviseFileIsolation(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.JSLinter = lint.LinterFunc(
			func(_ context.Context, p string) fn.Result[lint.Report] {
				if strings.HasSuffix(p, "boom.test.js") {
					panic("linter exploded")
				}
				return fn.Ok(lint.Report{Passed: true})
			},
		)
	})

	// A directory named like a source file fails to read.
	require.NoError(t, os.MkdirAll(filepath.Join(h.root, "dir.js"), 0o755))
	h.write(t, "test/boom.test.js", "x")
	h.write(t, "test/ok.test.js", "x")

	res := h.advise(t, "MultiEdit",
		modified("dir.js"),
		modified("test/boom.test.js"),
		modified("test/ok.test.js"),
	)

	require.Equal(t, []string{
		"ESLint check passed for test/ok.test.js",
		"Test file modified: test/ok.test.js",
	}, res.Notifications)
	require.Empty(t, res.Warnings)

	rec := h.sink.Events()[0].(diag.ChangeRecord)
	require.Equal(t, 3, rec.FileCount)
	require.Equal(t, 2, rec.Notifications)
}

// TestAdviseOrdering verifies advisories follow input file order even when
// files finish out of order.
func TestAdviseOrdering(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, func(cfg *Config) {
		cfg.Concurrency = 8
		cfg.JSLinter = lint.LinterFunc(
			func(_ context.Context, p string) fn.Result[lint.Report] {
				calls.Add(1)

				// Earlier files finish last.
				idx := strings.TrimSuffix(filepath.Base(p), ".test.js")
				if idx == "f0" || idx == "f1" {
					time.Sleep(50 * time.Millisecond)
				}
				return fn.Err[lint.Report](lint.ErrUnavailable)
			},
		)
	})

	var files []FileChange
	var want []string
	for i := 0; i < 12; i++ {
		rel := fmt.Sprintf("test/f%d.test.js", i)
		h.write(t, rel, "")
		files = append(files, modified(rel))
		want = append(want, "Test file modified: "+rel)
	}

	res := h.advise(t, "MultiEdit", files...)
	require.Equal(t, want, res.Notifications)
	require.EqualValues(t, 12, calls.Load())
}

// TestAdviseCancelled verifies a cancelled call analyses nothing but still
// records diagnostics.
func TestAdviseCancelled(t *testing.T) {
	h := newHarness(t, nil)
	h.write(t, "src/a.js", "console.log(1)")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := h.adv.Advise(ctx, ChangeEvent{
		Files:     []FileChange{modified("src/a.js")},
		Operation: "Write",
	})
	require.True(t, res.Empty())
	require.Len(t, h.sink.Events(), 1)
}

// TestAdviseIdempotent verifies repeated calls agree and leave the files
// untouched.
func TestAdviseIdempotent(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.JSLinter = staticLinter(false, "error")
	})

	src := "// TODO x\nconsole.log(1);\n" + lines(700, "a();")
	h.write(t, "src/big.ts", src)
	h.write(t, "src/util.py", "print(1)")

	ev := []FileChange{modified("src/big.ts"), modified("src/util.py")}
	first := h.advise(t, "Edit", ev...)
	second := h.advise(t, "Edit", ev...)

	require.Equal(t, first, second)
	require.False(t, first.Empty())

	data, err := os.ReadFile(filepath.Join(h.root, "src/big.ts"))
	require.NoError(t, err)
	require.Equal(t, src, string(data))
}

// TestNewDefaults verifies zero config fields fall back to defaults.
func TestNewDefaults(t *testing.T) {
	adv := New(Config{})
	require.Equal(t, DefaultMaxLines, adv.cfg.MaxLines)
	require.Equal(t, DefaultConcurrency, adv.cfg.Concurrency)
	require.NotNil(t, adv.cfg.Sink)
	require.NotNil(t, adv.cfg.Now)

	_, err := adv.cfg.JSLinter.Lint(context.Background(), "a").Unpack()
	require.True(t, errors.Is(err, lint.ErrUnavailable))
}

func TestParseChangeType(t *testing.T) {
	ct, err := ParseChangeType("deleted")
	require.NoError(t, err)
	require.Equal(t, ChangeDeleted, ct)

	_, err = ParseChangeType("renamed")
	require.Error(t, err)
}
