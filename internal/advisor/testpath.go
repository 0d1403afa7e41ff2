package advisor

import (
	"path/filepath"
	"strings"
)

// jsExtensions are the extensions handled by the JS/TS sub-check.
var jsExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
}

// sourceExtensions are the extensions expected to have a sibling test file.
var sourceExtensions = map[string]bool{
	".js":   true,
	".jsx":  true,
	".ts":   true,
	".tsx":  true,
	".py":   true,
	".java": true,
	".go":   true,
	".rs":   true,
	".rb":   true,
	".php":  true,
}

// testDirs are path segments that mark everything below them as tests.
var testDirs = map[string]bool{
	"tests":     true,
	"test":      true,
	"__tests__": true,
}

// Ext returns the lowercase extension of path.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsTestFile reports whether path follows a test naming convention.
func IsTestFile(path string) bool {
	slashed := filepath.ToSlash(path)
	base := slashed
	if i := strings.LastIndexByte(slashed, '/'); i >= 0 {
		base = slashed[i+1:]
	}

	if strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.") ||
		strings.Contains(base, "_test.") ||
		strings.HasPrefix(base, "test_") {

		return true
	}

	segments := strings.Split(slashed, "/")
	for _, seg := range segments[:len(segments)-1] {
		if testDirs[seg] {
			return true
		}
	}

	return false
}

// IsSourceFile reports whether path has an extension that is expected to
// come with a test file.
func IsSourceFile(path string) bool {
	return sourceExtensions[Ext(path)]
}

// TestPathCandidates returns the conventional test locations for a source
// file. The first entry is the primary candidate.
func TestPathCandidates(path string) []string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)

	return []string{
		filepath.Join(dir, name+".test"+ext),
		filepath.Join(dir, name+".spec"+ext),
		filepath.Join(dir, name+"_test"+ext),
		filepath.Join(dir, "test_"+name+ext),
		filepath.Join(dir, "__tests__", name+".test"+ext),
		filepath.Join(dir, "tests", name+".test"+ext),
	}
}

// ExpectedTestPath returns the primary conventional test path for path.
func ExpectedTestPath(path string) string {
	return TestPathCandidates(path)[0]
}
