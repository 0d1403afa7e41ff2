package advisor

import (
	"regexp"
	"strings"
)

const (
	// consoleLogToken is matched literally, not through a parser.
	consoleLogToken = "console.log("

	// longFunctionWindow is the number of lines inspected after a named
	// function declaration.
	longFunctionWindow = 100
)

var (
	todoPattern        = regexp.MustCompile(`//\s*(TODO|FIXME)\b`)
	pythonPrintPattern = regexp.MustCompile(`\bprint\(`)
	namedFuncPattern   = regexp.MustCompile(`\bfunction\s+[A-Za-z_$][\w$]*\s*\(`)
)

// countLines returns the number of lines in content. A single trailing
// newline terminates the last line rather than starting a new one.
func countLines(content string) int {
	return strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
}

func countConsoleLogs(content string) int {
	return strings.Count(content, consoleLogToken)
}

func countTodos(content string) int {
	return len(todoPattern.FindAllStringIndex(content, -1))
}

func countPythonPrints(content string) int {
	return len(pythonPrintPattern.FindAllStringIndex(content, -1))
}

// countLintErrors counts occurrences of "error" in lint output.
func countLintErrors(output string) int {
	return strings.Count(output, "error")
}

// hasLongFunction walks the named function declarations in order and stops
// at the first one that fires. A declaration fires when the window starting
// at it holds a full longFunctionWindow lines and its braces balance.
func hasLongFunction(content string) bool {
	lines := strings.Split(content, "\n")

	for start, line := range lines {
		if !namedFuncPattern.MatchString(line) {
			continue
		}

		end := start + longFunctionWindow
		if end > len(lines) {
			// Later declarations have even shorter windows.
			return false
		}

		if bracesBalance(lines[start:end]) {
			return true
		}
	}

	return false
}

func bracesBalance(lines []string) bool {
	var open, closed int
	for _, line := range lines {
		open += strings.Count(line, "{")
		closed += strings.Count(line, "}")
	}

	return open == closed
}
